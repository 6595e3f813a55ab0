package ir

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeDesc is the canonical type descriptor. Base is always a canonical
// keyword (aliases folded on ingestion), parameters are kept separately, and
// trailing [] pairs are folded into Array/Dimensions.
type TypeDesc struct {
	Base           string `json:"base"`
	Length         *int   `json:"length,omitempty"`
	Precision      *int   `json:"precision,omitempty"`
	Scale          *int   `json:"scale,omitempty"`
	WithTimezone   bool   `json:"with_timezone,omitempty"`
	IntervalFields string `json:"interval_fields,omitempty"`
	Array          bool   `json:"array,omitempty"`
	Dimensions     int    `json:"dimensions,omitempty"`

	// Custom marks a type the alias table does not know; Base carries the
	// lowercased source spelling in that case.
	Custom bool `json:"custom,omitempty"`
}

// Canonical base-type keywords.
const (
	TypeSmallint        = "SMALLINT"
	TypeInteger         = "INTEGER"
	TypeBigint          = "BIGINT"
	TypeSmallserial     = "SMALLSERIAL"
	TypeSerial          = "SERIAL"
	TypeBigserial       = "BIGSERIAL"
	TypeNumeric         = "NUMERIC"
	TypeReal            = "REAL"
	TypeDoublePrecision = "DOUBLE PRECISION"
	TypeMoney           = "MONEY"
	TypeVarchar         = "CHARACTER VARYING"
	TypeChar            = "CHARACTER"
	TypeText            = "TEXT"
	TypeBytea           = "BYTEA"
	TypeTimestamp       = "TIMESTAMP"
	TypeDate            = "DATE"
	TypeTime            = "TIME"
	TypeInterval        = "INTERVAL"
	TypeBoolean         = "BOOLEAN"
	TypeUUID            = "UUID"
	TypeJSON            = "JSON"
	TypeJSONB           = "JSONB"
	TypeXML             = "XML"
	TypeInet            = "INET"
	TypeCidr            = "CIDR"
	TypeMacaddr         = "MACADDR"
	TypeMacaddr8        = "MACADDR8"
	TypeBit             = "BIT"
	TypeBitVarying      = "BIT VARYING"
	TypeTsvector        = "TSVECTOR"
	TypeTsquery         = "TSQUERY"
	TypePgLSN           = "PG_LSN"
	TypeOID             = "OID"
)

// typeAliases folds every recognized source spelling onto its canonical
// keyword. Matching is case-insensitive; keys are stored lowercased.
var typeAliases = map[string]string{
	"smallint": TypeSmallint, "int2": TypeSmallint,
	"integer": TypeInteger, "int": TypeInteger, "int4": TypeInteger,
	"bigint": TypeBigint, "int8": TypeBigint,
	"smallserial": TypeSmallserial, "serial2": TypeSmallserial,
	"serial": TypeSerial, "serial4": TypeSerial,
	"bigserial": TypeBigserial, "serial8": TypeBigserial,
	"numeric": TypeNumeric, "decimal": TypeNumeric,
	"real": TypeReal, "float4": TypeReal,
	"double precision": TypeDoublePrecision, "float8": TypeDoublePrecision, "float": TypeDoublePrecision,
	"money":             TypeMoney,
	"character varying": TypeVarchar, "varchar": TypeVarchar,
	"character": TypeChar, "char": TypeChar, "bpchar": TypeChar,
	"text":      TypeText,
	"bytea":     TypeBytea,
	"timestamp": TypeTimestamp, "timestamptz": TypeTimestamp,
	"date": TypeDate,
	"time": TypeTime, "timetz": TypeTime,
	"interval": TypeInterval,
	"boolean":  TypeBoolean, "bool": TypeBoolean,
	"uuid":  TypeUUID,
	"json":  TypeJSON,
	"jsonb": TypeJSONB,
	"xml":   TypeXML,
	"inet":  TypeInet, "cidr": TypeCidr,
	"macaddr": TypeMacaddr, "macaddr8": TypeMacaddr8,
	"bit":         TypeBit,
	"bit varying": TypeBitVarying, "varbit": TypeBitVarying,
	"tsvector": TypeTsvector, "tsquery": TypeTsquery,
	"pg_lsn": TypePgLSN,
	"oid":    TypeOID, "regclass": TypeOID, "regproc": TypeOID, "regtype": TypeOID,
	// Range types keep their own canonical names.
	"int4range": "INT4RANGE", "int8range": "INT8RANGE", "numrange": "NUMRANGE",
	"tsrange": "TSRANGE", "tstzrange": "TSTZRANGE", "daterange": "DATERANGE",
	// Geometric types.
	"point": "POINT", "line": "LINE", "lseg": "LSEG", "box": "BOX",
	"path": "PATH", "polygon": "POLYGON", "circle": "CIRCLE",
}

var (
	arraySuffixRe = regexp.MustCompile(`(\s*\[\s*\d*\s*\])+$`)
	typeParamsRe  = regexp.MustCompile(`^(.*?)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)$`)
	timestampRe   = regexp.MustCompile(`(?i)^(timestamp|time)\s*(?:\(\s*(\d+)\s*\))?\s*(with|without)\s+time\s+zone$`)
	intervalRe    = regexp.MustCompile(`(?i)^interval\s+([a-z ]+?)(?:\s*\(\s*(\d+)\s*\))?$`)
)

// ParseType parses a SQL type string into its canonical descriptor. Unknown
// types are passed through as custom types rather than failing.
func ParseType(src string) TypeDesc {
	d := TypeDesc{}
	s := strings.TrimSpace(src)

	// Trailing [] pairs mark an array; each pair is one dimension.
	if m := arraySuffixRe.FindString(s); m != "" {
		d.Array = true
		d.Dimensions = strings.Count(m, "[")
		s = strings.TrimSpace(strings.TrimSuffix(s, m))
	}
	s = strings.TrimPrefix(strings.ToLower(s), "pg_catalog.")

	// TIMESTAMP/TIME [(p)] WITH[OUT] TIME ZONE
	if m := timestampRe.FindStringSubmatch(s); m != nil {
		base := typeAliases[strings.ToLower(m[1])]
		d.Base = base
		if m[2] != "" {
			p, _ := strconv.Atoi(m[2])
			d.Precision = &p
		}
		d.WithTimezone = strings.EqualFold(m[3], "with")
		return d
	}

	// INTERVAL <fields> [(p)]
	if m := intervalRe.FindStringSubmatch(s); m != nil {
		d.Base = TypeInterval
		d.IntervalFields = strings.ToUpper(strings.TrimSpace(m[1]))
		if m[2] != "" {
			p, _ := strconv.Atoi(m[2])
			d.Precision = &p
		}
		return d
	}

	// Split off (n) or (p, s).
	var length, precision, scale *int
	if m := typeParamsRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
		n, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			sc, _ := strconv.Atoi(m[3])
			precision, scale = &n, &sc
		} else {
			length = &n
		}
	}

	canonical, ok := typeAliases[s]
	if !ok {
		d.Base = s
		d.Custom = true
		return d
	}
	d.Base = canonical

	// timestamptz/timetz aliases imply the timezone flag.
	if s == "timestamptz" || s == "timetz" {
		d.WithTimezone = true
	}

	switch canonical {
	case TypeNumeric:
		if precision != nil {
			d.Precision, d.Scale = precision, scale
		} else if length != nil {
			d.Precision = length
		}
	case TypeVarchar, TypeChar, TypeBit, TypeBitVarying:
		d.Length = length
	case TypeTimestamp, TypeTime, TypeInterval:
		if length != nil {
			d.Precision = length
		} else {
			d.Precision = precision
		}
	default:
		// Parameters on other types are dropped; PostgreSQL rejects them.
	}
	return d
}

// IsIntegerKind reports whether the base type holds integers.
func (d TypeDesc) IsIntegerKind() bool {
	switch d.Base {
	case TypeSmallint, TypeInteger, TypeBigint, TypeSmallserial, TypeSerial, TypeBigserial:
		return true
	}
	return false
}

// IsBigIntegerKind reports whether integer defaults need a big-integer marker.
func (d TypeDesc) IsBigIntegerKind() bool {
	return d.Base == TypeBigint || d.Base == TypeBigserial
}

// IsSerialKind reports whether the type is one of the serial pseudo-types.
func (d TypeDesc) IsSerialKind() bool {
	switch d.Base {
	case TypeSmallserial, TypeSerial, TypeBigserial:
		return true
	}
	return false
}

// SQL renders the descriptor back to canonical SQL.
func (d TypeDesc) SQL() string {
	var b strings.Builder
	b.WriteString(d.Base)
	switch {
	case d.Length != nil:
		fmt.Fprintf(&b, "(%d)", *d.Length)
	case d.Precision != nil && d.Scale != nil:
		fmt.Fprintf(&b, "(%d,%d)", *d.Precision, *d.Scale)
	case d.Precision != nil && (d.Base == TypeNumeric || d.Base == TypeTimestamp || d.Base == TypeTime || d.Base == TypeInterval):
		fmt.Fprintf(&b, "(%d)", *d.Precision)
	}
	if d.Base == TypeTimestamp || d.Base == TypeTime {
		if d.WithTimezone {
			b.WriteString(" WITH TIME ZONE")
		}
	}
	if d.IntervalFields != "" {
		b.WriteString(" " + d.IntervalFields)
	}
	for i := 0; i < d.Dimensions; i++ {
		b.WriteString("[]")
	}
	return b.String()
}

// BuilderForm returns the short canonical builder call for the type, e.g.
// integer(), varchar(64), decimal(10, 2), timestamptz(3).
func (d TypeDesc) BuilderForm() string {
	if d.Custom {
		return fmt.Sprintf("customType('%s')", d.Base)
	}

	name := builderNames[d.Base]
	if name == "" {
		name = strings.ToLower(strings.ReplaceAll(d.Base, " ", ""))
	}
	if d.WithTimezone {
		switch d.Base {
		case TypeTimestamp:
			name = "timestamptz"
		case TypeTime:
			name = "timetz"
		}
	}

	var args []string
	switch {
	case d.Precision != nil && d.Scale != nil:
		args = append(args, strconv.Itoa(*d.Precision), strconv.Itoa(*d.Scale))
	case d.Precision != nil:
		args = append(args, strconv.Itoa(*d.Precision))
	case d.Length != nil:
		args = append(args, strconv.Itoa(*d.Length))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

// builderNames maps canonical keywords onto their builder function names
// where the two differ from a simple lowercasing.
var builderNames = map[string]string{
	TypeSmallint:        "smallint",
	TypeInteger:         "integer",
	TypeBigint:          "bigint",
	TypeSmallserial:     "smallserial",
	TypeSerial:          "serial",
	TypeBigserial:       "bigserial",
	TypeNumeric:         "decimal",
	TypeReal:            "real",
	TypeDoublePrecision: "doublePrecision",
	TypeMoney:           "money",
	TypeVarchar:         "varchar",
	TypeChar:            "char",
	TypeText:            "text",
	TypeBytea:           "bytea",
	TypeTimestamp:       "timestamp",
	TypeDate:            "date",
	TypeTime:            "time",
	TypeInterval:        "interval",
	TypeBoolean:         "boolean",
	TypeUUID:            "uuid",
	TypeJSON:            "json",
	TypeJSONB:           "jsonb",
	TypeXML:             "xml",
	TypeInet:            "inet",
	TypeCidr:            "cidr",
	TypeMacaddr:         "macaddr",
	TypeMacaddr8:        "macaddr8",
	TypeBit:             "bit",
	TypeBitVarying:      "bitVarying",
	TypeTsvector:        "tsvector",
	TypeTsquery:         "tsquery",
	TypePgLSN:           "pgLsn",
	TypeOID:             "oid",
}

// IsKnownType reports whether a source type spelling is in the alias table.
func IsKnownType(src string) bool {
	return !ParseType(src).Custom
}
