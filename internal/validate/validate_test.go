package validate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgdialect/pgdialect/internal/dialect"
	"github.com/pgdialect/pgdialect/ir"
)

func codes(diags []ir.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func mustParse(t *testing.T, sql string) *ir.Table {
	t.Helper()
	tbl, err := ir.ParseCreateTable(sql)
	require.NoError(t, err)
	return tbl
}

func TestValidateDSQLUnsupportedTypes(t *testing.T) {
	tbl := mustParse(t, `CREATE TABLE t (
		id SERIAL PRIMARY KEY,
		data JSONB,
		tags TEXT[]
	)`)

	res, err := Table(tbl, dialect.DSQL, Options{})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"DSQL-TYPE-001", "DSQL-TYPE-002", "DSQL-TYPE-014"}, codes(res.Errors()))

	first := res.Errors()[0]
	assert.Equal(t, "t.id", first.Location)
	require.NotNil(t, first.AutoFix)
	assert.Equal(t, "SERIAL", first.AutoFix.OriginalType)
	assert.Equal(t, "UUID", first.AutoFix.ReplacementType)
	assert.Contains(t, first.AutoFix.AdditionalChanges, "DEFAULT gen_random_uuid()")
}

func TestValidateDSQLArraySuppressesBaseTypeRule(t *testing.T) {
	// A JSONB[] column is reported as an array, not as JSONB.
	tbl := mustParse(t, `CREATE TABLE t (blobs JSONB[])`)

	res, err := Table(tbl, dialect.DSQL, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"DSQL-TYPE-014"}, codes(res.Diagnostics))
}

func TestValidateDSQLCleanTable(t *testing.T) {
	tbl := mustParse(t, `CREATE TABLE users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`)

	res, err := Table(tbl, dialect.DSQL, Options{})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Diagnostics)
}

func TestValidateDSQLModifiersAndConstraints(t *testing.T) {
	tbl := mustParse(t, `CREATE TEMPORARY TABLE orders (
		id BIGINT GENERATED ALWAYS AS IDENTITY,
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		label TEXT COLLATE "C",
		seq INT DEFAULT nextval('orders_seq')
	)`)

	res, err := Table(tbl, dialect.DSQL, Options{})
	require.NoError(t, err)

	got := codes(res.Diagnostics)
	assert.Contains(t, got, "DSQL-TBL-001")
	assert.Contains(t, got, "DSQL-COL-002")
	assert.Contains(t, got, "DSQL-CON-001")
	assert.Contains(t, got, "DSQL-CON-005")
	assert.Contains(t, got, "DSQL-MOD-002")
	assert.Contains(t, got, "DSQL-MOD-001")

	// Table-level findings come before column-level ones.
	assert.Equal(t, "DSQL-TBL-001", got[0])
}

func TestValidateDSQLMacaddrReplacementOverride(t *testing.T) {
	tbl := mustParse(t, `CREATE TABLE devices (addr MACADDR)`)

	res, err := Table(tbl, dialect.DSQL, Options{MacaddrReplacement: "CHAR(17)"})
	require.NoError(t, err)
	require.Len(t, res.Errors(), 1)
	require.NotNil(t, res.Errors()[0].AutoFix)
	assert.Equal(t, "CHAR(17)", res.Errors()[0].AutoFix.ReplacementType)
}

func TestValidateDSQLIndexRules(t *testing.T) {
	s, err := ir.ParseScript(`
		CREATE TABLE docs (id UUID PRIMARY KEY, body TEXT);
		CREATE INDEX docs_gin ON docs USING gin (body);
		CREATE INDEX CONCURRENTLY docs_body ON docs (body);
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)

	got := codes(res.Diagnostics)
	assert.Contains(t, got, "DSQL-IDX-001")
	assert.Contains(t, got, "DSQL-IDX-002")
}

func TestValidateDSQLSchemaEntities(t *testing.T) {
	s, err := ir.ParseScript(`
		CREATE TABLE t (id UUID PRIMARY KEY);
		CREATE SEQUENCE t_seq START 100;
		CREATE MATERIALIZED VIEW mv AS SELECT id FROM t;
		CREATE EXTENSION IF NOT EXISTS pg_trgm;
		NOTIFY refresh;
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)

	got := codes(res.Diagnostics)
	assert.Contains(t, got, "DSQL-SEQ-001")
	assert.Contains(t, got, "DSQL-VIEW-001")
	assert.Contains(t, got, "DSQL-MISC-006")
	assert.Contains(t, got, "DSQL-MISC-001")
}

func TestValidateCockroach(t *testing.T) {
	s, err := ir.ParseScript(`
		CREATE TABLE bookings (
			room INT,
			during TSRANGE,
			EXCLUDE USING gist (room WITH =)
		);
		CREATE INDEX bookings_sp ON bookings USING spgist (room);
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.CockroachDB, Options{})
	require.NoError(t, err)

	got := codes(res.Errors())
	assert.Contains(t, got, "CRDB_E100")
	assert.Contains(t, got, "CRDB_E200")
	assert.False(t, res.Valid)
}

func TestValidateCockroachHashIndexIsWarning(t *testing.T) {
	s, err := ir.ParseScript(`
		CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT);
		CREATE INDEX kv_hash ON kv USING hash (k);
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.CockroachDB, Options{})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"CRDB_W400"}, codes(res.Warnings()))
}

func TestValidateNileTenantKey(t *testing.T) {
	shared := mustParse(t, `CREATE TABLE settings (k TEXT PRIMARY KEY, v TEXT)`)
	res, err := Table(shared, dialect.Nile, Options{})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"NILE-W001"}, codes(res.Warnings()))

	isolated := mustParse(t, `CREATE TABLE notes (tenant_id UUID, id UUID, body TEXT)`)
	res, err = Table(isolated, dialect.Nile, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

func TestValidatePostgresAcceptsEverything(t *testing.T) {
	s, err := ir.ParseScript(`
		CREATE TABLE t (id SERIAL PRIMARY KEY, data JSONB, tags TEXT[]);
		CREATE INDEX t_gin ON t USING gin (data);
		NOTIFY refresh;
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.Postgres, Options{})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Diagnostics)
}

func TestValidateSkippedFragmentsSurface(t *testing.T) {
	tbl := mustParse(t, `CREATE TABLE t (id UUID, ???)`)

	res, err := Table(tbl, dialect.Postgres, Options{})
	require.NoError(t, err)
	require.Len(t, res.Warnings(), 1)
	assert.Equal(t, SkippedFragmentCode, res.Warnings()[0].Code)
}

func TestValidateUnknownDialect(t *testing.T) {
	_, err := Schema(&ir.Schema{}, "oracle", Options{})
	require.Error(t, err)
}

func TestValidateDSQLSchemaTableLimit(t *testing.T) {
	s := &ir.Schema{}
	for i := 0; i < 1001; i++ {
		s.Tables = append(s.Tables, mustParse(t, fmt.Sprintf("CREATE TABLE t_%d (id INT)", i)))
	}

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "DSQL-DB-004", res.Diagnostics[0].Code)
	assert.Equal(t, "schema", res.Diagnostics[0].Location)
}

func TestValidateDSQLDropTrigger(t *testing.T) {
	s, err := ir.ParseScript(`
		CREATE TABLE t (id UUID PRIMARY KEY);
		DROP TRIGGER trg ON t;
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"DSQL-TRG-001"}, codes(res.Diagnostics))
	assert.Equal(t, "drop trigger trg on t", res.Diagnostics[0].Location)
}

func TestValidateDSQLEntityWalkOrder(t *testing.T) {
	// Declaration order in the script must not matter: functions come first,
	// then triggers, sequences, views.
	s, err := ir.ParseScript(`
		CREATE TABLE t (id UUID PRIMARY KEY);
		CREATE SEQUENCE t_seq;
		CREATE VIEW v AS SELECT id FROM t;
		CREATE FUNCTION f() RETURNS INTEGER LANGUAGE sql AS $$ SELECT 1 $$;
		CREATE TRIGGER trg BEFORE INSERT ON t FOR EACH ROW EXECUTE FUNCTION f();
	`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"DSQL-FUNC-001", "DSQL-TRG-001", "DSQL-SEQ-001", "DSQL-VIEW-002"},
		codes(res.Diagnostics))
}

func TestValidateDSQLDoBlock(t *testing.T) {
	s, err := ir.ParseScript(`DO $$ BEGIN RAISE NOTICE 'hi'; END $$;`)
	require.NoError(t, err)

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)
	assert.Contains(t, codes(res.Errors()), "DSQL-FUNC-005")
	assert.False(t, res.Valid)
}

func TestValidateDSQLViewDefinitionLimit(t *testing.T) {
	s := &ir.Schema{Views: []*ir.View{{
		Name:       "wide",
		Definition: strings.Repeat("SELECT 1 UNION ALL ", 4000),
	}}}

	res, err := Schema(s, dialect.DSQL, Options{})
	require.NoError(t, err)
	assert.Contains(t, codes(res.Errors()), "DSQL-VIEW-004")
	assert.Equal(t, "view wide", res.Errors()[0].Location)
}
