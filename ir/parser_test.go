package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strp(s string) *string { return &s }

func TestParseCreateTableBasic(t *testing.T) {
	sql := `CREATE TABLE users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}

	want := &Table{
		Name: "users",
		Columns: []*Column{
			{Name: "id", Type: TypeDesc{Base: TypeSerial}, PrimaryKey: true, Nullability: NotNull},
			{Name: "email", Type: TypeDesc{Base: TypeVarchar, Length: intp(255)}, Nullability: NotNull, Unique: true},
			{Name: "created_at", Type: TypeDesc{Base: TypeTimestamp, WithTimezone: true}, Default: strp("NOW()")},
		},
		Constraints: []*Constraint{
			{Kind: ConstraintPrimaryKey, Columns: []string{"id"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	if err := got.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestParseCreateTableCompositePrimaryKey(t *testing.T) {
	sql := `CREATE TABLE events (ts TIMESTAMPTZ, who TEXT, PRIMARY KEY (ts, who))`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}

	pk, ok := got.PrimaryKey()
	if !ok {
		t.Fatal("expected a table-level primary key")
	}
	if diff := cmp.Diff([]string{"ts", "who"}, pk.Columns); diff != "" {
		t.Errorf("primary key columns (-want +got):\n%s", diff)
	}
	for _, c := range got.Columns {
		if c.PrimaryKey {
			t.Errorf("column %q should not carry the inline primary key flag", c.Name)
		}
	}
}

func TestParseCreateTableSingleColumnTablePK(t *testing.T) {
	sql := `CREATE TABLE t (id UUID, PRIMARY KEY (id))`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}
	col, _ := got.Column("id")
	if !col.PrimaryKey || col.Nullability != NotNull {
		t.Errorf("single-column table PK should mark the column: %+v", col)
	}
}

func TestParseCreateTableHeader(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want Table
	}{
		{
			name: "temporary",
			sql:  "CREATE TEMPORARY TABLE scratch (x INT)",
			want: Table{Name: "scratch", Temporary: true},
		},
		{
			name: "temp abbreviation",
			sql:  "CREATE TEMP TABLE scratch (x INT)",
			want: Table{Name: "scratch", Temporary: true},
		},
		{
			name: "unlogged",
			sql:  "CREATE UNLOGGED TABLE fast (x INT)",
			want: Table{Name: "fast", Unlogged: true},
		},
		{
			name: "if not exists with schema",
			sql:  `CREATE TABLE IF NOT EXISTS app.users (x INT)`,
			want: Table{Name: "users", Schema: "app", IfNotExists: true},
		},
		{
			name: "quoted mixed-case name",
			sql:  `CREATE TABLE "UserAccounts" (x INT)`,
			want: Table{Name: "UserAccounts"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreateTable(tt.sql)
			if err != nil {
				t.Fatalf("ParseCreateTable: %v", err)
			}
			if got.Name != tt.want.Name || got.Schema != tt.want.Schema ||
				got.Temporary != tt.want.Temporary || got.Unlogged != tt.want.Unlogged ||
				got.IfNotExists != tt.want.IfNotExists {
				t.Errorf("header mismatch: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCreateTableErrors(t *testing.T) {
	_, err := ParseCreateTable("SELECT * FROM users")
	if !errors.Is(err, &ParseError{Kind: InvalidCreateTable}) {
		t.Errorf("want InvalidCreateTable, got %v", err)
	}

	_, err = ParseCreateTable("CREATE TABLE users")
	if !errors.Is(err, &ParseError{Kind: UnparseableBody}) {
		t.Errorf("want UnparseableBody, got %v", err)
	}
}

func TestParseColumnFlags(t *testing.T) {
	sql := `CREATE TABLE orders (
		status TEXT CHECK (status IN ('new', 'shipped', 'done')),
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		total NUMERIC(12,2) DEFAULT 0,
		full_name TEXT GENERATED ALWAYS AS (first || ' ' || last) STORED,
		seq_no BIGINT GENERATED BY DEFAULT AS IDENTITY,
		label TEXT COLLATE "de_DE"
	)`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}
	if len(got.SkippedFragments) != 0 {
		t.Fatalf("unexpected skipped fragments: %v", got.SkippedFragments)
	}

	status, _ := got.Column("status")
	if status.Check == nil || status.Check.Expression != "status IN ('new', 'shipped', 'done')" {
		t.Errorf("check expression: %+v", status.Check)
	}
	if diff := cmp.Diff([]string{"new", "shipped", "done"}, status.Check.AllowedValues); diff != "" {
		t.Errorf("allow-list (-want +got):\n%s", diff)
	}

	userID, _ := got.Column("user_id")
	wantRef := &Reference{Table: "users", Column: "id", OnDelete: "CASCADE"}
	if diff := cmp.Diff(wantRef, userID.References); diff != "" {
		t.Errorf("reference (-want +got):\n%s", diff)
	}

	fullName, _ := got.Column("full_name")
	if fullName.Generated == nil || !fullName.Generated.Stored ||
		fullName.Generated.Expression != "first || ' ' || last" {
		t.Errorf("generated column: %+v", fullName.Generated)
	}

	seqNo, _ := got.Column("seq_no")
	if seqNo.Identity == nil || seqNo.Identity.Kind != IdentityByDefault {
		t.Errorf("identity column: %+v", seqNo.Identity)
	}

	label, _ := got.Column("label")
	if label.Collation != "de_DE" {
		t.Errorf("collation = %q", label.Collation)
	}
}

func TestParseTableConstraints(t *testing.T) {
	sql := `CREATE TABLE links (
		a INT,
		b INT,
		CONSTRAINT links_uniq UNIQUE NULLS NOT DISTINCT (a, b),
		CONSTRAINT links_fk FOREIGN KEY (a, b) REFERENCES nodes (x, y) MATCH FULL ON DELETE SET NULL DEFERRABLE INITIALLY DEFERRED,
		CHECK (a < b),
		EXCLUDE USING gist (a WITH =)
	)`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}
	if len(got.Constraints) != 4 {
		t.Fatalf("want 4 constraints, got %d: %+v", len(got.Constraints), got.Constraints)
	}

	uniq := got.Constraints[0]
	if uniq.Kind != ConstraintUnique || !uniq.NullsNotDistinct || uniq.Name != "links_uniq" {
		t.Errorf("unique constraint: %+v", uniq)
	}

	fk := got.Constraints[1]
	if fk.Kind != ConstraintForeignKey || fk.RefTable != "nodes" ||
		fk.Match != "FULL" || fk.OnDelete != "SET NULL" ||
		!fk.Deferrable || !fk.InitiallyDeferred {
		t.Errorf("foreign key constraint: %+v", fk)
	}
	if diff := cmp.Diff([]string{"x", "y"}, fk.RefColumns); diff != "" {
		t.Errorf("fk ref columns (-want +got):\n%s", diff)
	}

	check := got.Constraints[2]
	if check.Kind != ConstraintCheck || check.Expression != "a < b" {
		t.Errorf("check constraint: %+v", check)
	}

	excl := got.Constraints[3]
	if excl.Kind != ConstraintExclusion || excl.Raw == "" {
		t.Errorf("exclusion constraint: %+v", excl)
	}
}

func TestParseTableTail(t *testing.T) {
	sql := `CREATE TABLE metrics (
		day DATE,
		v INT
	) PARTITION BY RANGE (day) WITH (fillfactor = 70) TABLESPACE fast ON COMMIT DELETE ROWS`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}
	if got.Partitioning == nil || got.Partitioning.Strategy != PartitionRange {
		t.Fatalf("partitioning: %+v", got.Partitioning)
	}
	if diff := cmp.Diff([]string{"day"}, got.Partitioning.Key); diff != "" {
		t.Errorf("partition key (-want +got):\n%s", diff)
	}
	if got.Tablespace != "fast" {
		t.Errorf("tablespace = %q", got.Tablespace)
	}
	if len(got.WithOptions) != 1 || got.WithOptions[0] != "fillfactor = 70" {
		t.Errorf("with options: %v", got.WithOptions)
	}
	if got.OnCommit != "DELETE ROWS" {
		t.Errorf("on commit = %q", got.OnCommit)
	}
}

func TestParseMalformedFragmentSkipped(t *testing.T) {
	sql := `CREATE TABLE t (id INT, ???, name TEXT)`

	got, err := ParseCreateTable(sql)
	if err != nil {
		t.Fatalf("ParseCreateTable: %v", err)
	}
	if len(got.Columns) != 2 {
		t.Errorf("want 2 parsed columns, got %d", len(got.Columns))
	}
	if len(got.SkippedFragments) != 1 || got.SkippedFragments[0] != "???" {
		t.Errorf("skipped fragments: %v", got.SkippedFragments)
	}
}

func TestParseScript(t *testing.T) {
	script := `
		CREATE TYPE mood AS ENUM ('sad', 'ok', 'happy');
		CREATE TABLE people (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			mood mood
		);
		CREATE INDEX people_name_idx ON people USING btree (name);
		CREATE UNIQUE INDEX people_upper ON people (upper(name));
		COMMENT ON TABLE people IS 'everyone';
		COMMENT ON COLUMN people.name IS 'display name';
		CREATE EXTENSION IF NOT EXISTS pg_trgm;
		GRANT SELECT ON people TO reporting;
	`

	s, err := ParseScript(script)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}

	if len(s.Enums) != 1 || s.Enums[0].Name != "mood" {
		t.Fatalf("enums: %+v", s.Enums)
	}
	if diff := cmp.Diff([]string{"sad", "ok", "happy"}, s.Enums[0].Values); diff != "" {
		t.Errorf("enum values (-want +got):\n%s", diff)
	}

	if len(s.Tables) != 1 {
		t.Fatalf("want 1 table, got %d", len(s.Tables))
	}
	people := s.Tables[0]
	if people.Comment != "everyone" {
		t.Errorf("table comment = %q", people.Comment)
	}
	name, _ := people.Column("name")
	if name.Comment != "display name" {
		t.Errorf("column comment = %q", name.Comment)
	}

	if len(people.Indexes) != 2 {
		t.Fatalf("want 2 indexes, got %d", len(people.Indexes))
	}
	if people.Indexes[0].Method != IndexBTree || people.Indexes[0].Columns[0] != "name" {
		t.Errorf("first index: %+v", people.Indexes[0])
	}
	if people.Indexes[1].Expression != "upper(name)" || !people.Indexes[1].Unique {
		t.Errorf("expression index: %+v", people.Indexes[1])
	}

	if len(s.Extensions) != 1 || s.Extensions[0] != "pg_trgm" {
		t.Errorf("extensions: %v", s.Extensions)
	}

	// GRANT is unmodeled and the extension statement is kept raw for
	// pattern rules.
	if len(s.RawStatements) != 2 {
		t.Errorf("raw statements: %v", s.RawStatements)
	}
}

func TestParseScriptChildPartitions(t *testing.T) {
	script := `
		CREATE TABLE metrics (day DATE, v INT) PARTITION BY RANGE (day);
		CREATE TABLE metrics_2024 PARTITION OF metrics FOR VALUES FROM ('2024-01-01') TO ('2025-01-01');
		CREATE TABLE metrics_default PARTITION OF metrics DEFAULT;
	`

	s, err := ParseScript(script)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	metrics := s.Tables[0]
	if len(metrics.Partitions) != 2 {
		t.Fatalf("want 2 partitions, got %d", len(metrics.Partitions))
	}
	p0 := metrics.Partitions[0]
	if p0.Kind != PartitionKindRange || p0.From != "'2024-01-01'" || p0.To != "'2025-01-01'" {
		t.Errorf("range partition: %+v", p0)
	}
	if metrics.Partitions[1].Kind != PartitionKindDefault {
		t.Errorf("default partition: %+v", metrics.Partitions[1])
	}
}

func TestParseScriptTriggerAndFunction(t *testing.T) {
	script := `
		CREATE OR REPLACE FUNCTION touch_updated() RETURNS trigger LANGUAGE plpgsql AS $$
		BEGIN NEW.updated_at = now(); RETURN NEW; END $$;
		CREATE TABLE docs (id INT, updated_at TIMESTAMPTZ);
		CREATE TRIGGER docs_touch BEFORE UPDATE ON docs FOR EACH ROW EXECUTE FUNCTION touch_updated();
	`

	s, err := ParseScript(script)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(s.Functions) != 1 {
		t.Fatalf("functions: %+v", s.Functions)
	}
	fn := s.Functions[0]
	if !fn.ReturnsTrigger || fn.Language != "plpgsql" {
		t.Errorf("function: %+v", fn)
	}

	if len(s.Triggers) != 1 {
		t.Fatalf("triggers: %+v", s.Triggers)
	}
	tr := s.Triggers[0]
	if tr.Timing != "BEFORE" || tr.Level != "ROW" || tr.Function != "touch_updated" {
		t.Errorf("trigger: %+v", tr)
	}
	if diff := cmp.Diff([]string{"UPDATE"}, tr.Events); diff != "" {
		t.Errorf("trigger events (-want +got):\n%s", diff)
	}
}

func TestCheckInvariantsRejectsConflictingPK(t *testing.T) {
	tbl := &Table{
		Name: "bad",
		Columns: []*Column{
			{Name: "a", Type: TypeDesc{Base: TypeInteger}, PrimaryKey: true},
		},
		Constraints: []*Constraint{
			{Kind: ConstraintPrimaryKey, Columns: []string{"b"}},
		},
	}
	if err := tbl.CheckInvariants(); err == nil {
		t.Error("expected invariant violation for disagreeing primary keys")
	}
}
