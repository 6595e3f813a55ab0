package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intp(n int) *int { return &n }

func TestParseType(t *testing.T) {
	tests := []struct {
		src  string
		want TypeDesc
	}{
		{"SERIAL", TypeDesc{Base: TypeSerial}},
		{"int4", TypeDesc{Base: TypeInteger}},
		{"INT8", TypeDesc{Base: TypeBigint}},
		{"varchar(255)", TypeDesc{Base: TypeVarchar, Length: intp(255)}},
		{"CHARACTER VARYING(64)", TypeDesc{Base: TypeVarchar, Length: intp(64)}},
		{"NUMERIC(10,2)", TypeDesc{Base: TypeNumeric, Precision: intp(10), Scale: intp(2)}},
		{"decimal(6)", TypeDesc{Base: TypeNumeric, Precision: intp(6)}},
		{"timestamptz", TypeDesc{Base: TypeTimestamp, WithTimezone: true}},
		{"TIMESTAMP(3) WITH TIME ZONE", TypeDesc{Base: TypeTimestamp, Precision: intp(3), WithTimezone: true}},
		{"TIME WITHOUT TIME ZONE", TypeDesc{Base: TypeTime}},
		{"INTERVAL YEAR TO MONTH", TypeDesc{Base: TypeInterval, IntervalFields: "YEAR TO MONTH"}},
		{"bool", TypeDesc{Base: TypeBoolean}},
		{"float8", TypeDesc{Base: TypeDoublePrecision}},
		{"DOUBLE PRECISION", TypeDesc{Base: TypeDoublePrecision}},
		{"TEXT[]", TypeDesc{Base: TypeText, Array: true, Dimensions: 1}},
		{"INT[][]", TypeDesc{Base: TypeInteger, Array: true, Dimensions: 2}},
		{"varchar(32)[3]", TypeDesc{Base: TypeVarchar, Length: intp(32), Array: true, Dimensions: 1}},
		{"pg_catalog.int4", TypeDesc{Base: TypeInteger}},
		{"varbit", TypeDesc{Base: TypeBitVarying}},
		{"tstzrange", TypeDesc{Base: "TSTZRANGE"}},
		{"my_enum", TypeDesc{Base: "my_enum", Custom: true}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := ParseType(tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseType(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestTypeDescSQL(t *testing.T) {
	tests := []struct {
		d    TypeDesc
		want string
	}{
		{TypeDesc{Base: TypeInteger}, "INTEGER"},
		{TypeDesc{Base: TypeVarchar, Length: intp(255)}, "CHARACTER VARYING(255)"},
		{TypeDesc{Base: TypeNumeric, Precision: intp(10), Scale: intp(2)}, "NUMERIC(10,2)"},
		{TypeDesc{Base: TypeTimestamp, WithTimezone: true}, "TIMESTAMP WITH TIME ZONE"},
		{TypeDesc{Base: TypeText, Array: true, Dimensions: 2}, "TEXT[][]"},
	}
	for _, tt := range tests {
		if got := tt.d.SQL(); got != tt.want {
			t.Errorf("SQL() = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeDescBuilderForm(t *testing.T) {
	tests := []struct {
		d    TypeDesc
		want string
	}{
		{TypeDesc{Base: TypeInteger}, "integer()"},
		{TypeDesc{Base: TypeVarchar, Length: intp(64)}, "varchar(64)"},
		{TypeDesc{Base: TypeNumeric, Precision: intp(10), Scale: intp(2)}, "decimal(10, 2)"},
		{TypeDesc{Base: TypeTimestamp, WithTimezone: true, Precision: intp(3)}, "timestamptz(3)"},
		{TypeDesc{Base: TypeDoublePrecision}, "doublePrecision()"},
		{TypeDesc{Base: "my_enum", Custom: true}, "customType('my_enum')"},
	}
	for _, tt := range tests {
		if got := tt.d.BuilderForm(); got != tt.want {
			t.Errorf("BuilderForm() = %q, want %q", got, tt.want)
		}
	}
}

func TestSerialPredicates(t *testing.T) {
	if !ParseType("BIGSERIAL").IsSerialKind() {
		t.Error("BIGSERIAL should be a serial kind")
	}
	if ParseType("BIGINT").IsSerialKind() {
		t.Error("BIGINT is not a serial kind")
	}
	if !ParseType("BIGINT").IsBigIntegerKind() {
		t.Error("BIGINT should be a big integer kind")
	}
}
