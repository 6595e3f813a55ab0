package ir

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PostgreSQL reserved words that need quoting when emitted.
var reservedWords = map[string]bool{
	"all": true, "and": true, "any": true, "array": true, "as": true,
	"asymmetric": true, "authorization": true, "between": true, "bigint": true,
	"binary": true, "boolean": true, "both": true, "by": true, "case": true,
	"cast": true, "char": true, "character": true, "check": true,
	"collate": true, "collation": true, "column": true, "constraint": true,
	"create": true, "cross": true, "current_catalog": true,
	"current_date": true, "current_role": true, "current_schema": true,
	"current_time": true, "current_timestamp": true, "current_user": true,
	"default": true, "deferrable": true, "delete": true, "distinct": true,
	"do": true, "else": true, "end": true, "except": true, "exists": true,
	"false": true, "fetch": true, "filter": true, "for": true, "foreign": true,
	"freeze": true, "from": true, "grant": true, "group": true, "having": true,
	"ilike": true, "in": true, "initially": true, "inner": true,
	"insert": true, "intersect": true, "into": true, "is": true,
	"isnull": true, "join": true, "lateral": true, "left": true, "like": true,
	"limit": true, "natural": true, "not": true, "null": true, "of": true,
	"offset": true, "on": true, "only": true, "or": true, "order": true,
	"outer": true, "primary": true, "references": true, "returning": true,
	"right": true, "select": true, "similar": true, "some": true,
	"symmetric": true, "table": true, "tablesample": true, "then": true,
	"to": true, "trailing": true, "true": true, "union": true, "unique": true,
	"update": true, "user": true, "using": true, "variadic": true,
	"verbose": true, "when": true, "where": true, "window": true,
	"with": true, "within": true,
}

// CanonicalIdent folds an identifier to its canonical form: unquoted
// identifiers are lowercased, quoted identifiers drop the quotes but keep
// their exact case (a quoted name is a distinct name).
func CanonicalIdent(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return strings.ReplaceAll(raw[1:len(raw)-1], `""`, `"`)
	}
	return strings.ToLower(raw)
}

// NeedsQuoting checks if an identifier needs quoting when rendered to SQL.
func NeedsQuoting(ident string) bool {
	if ident == "" {
		return false
	}
	if reservedWords[strings.ToLower(ident)] {
		return true
	}
	for i, r := range ident {
		if unicode.IsUpper(r) {
			return true
		}
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return true
		}
	}
	return false
}

// QuoteIdent quotes an identifier if needed.
func QuoteIdent(ident string) string {
	if NeedsQuoting(ident) {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
	return ident
}

// CamelCase converts a snake_case identifier to camelCase. Identifiers
// without underscores pass through unchanged.
func CamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// PascalCase converts a snake_case identifier to PascalCase, used for
// default export names.
func PascalCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}
