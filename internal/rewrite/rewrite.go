// Package rewrite turns PostgreSQL DDL into DSQL-compatible DDL by applying
// an ordered list of textual rules. Each rule is tagged with the rule code it
// resolves, so a rewrite explains itself in terms of the validator's
// findings. The pass is idempotent: running it on its own output is a no-op.
package rewrite

import (
	"regexp"

	"github.com/pgdialect/pgdialect/internal/logger"
)

// Change records one applied rule.
type Change struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Result is the outcome of a rewrite.
type Result struct {
	SQL      string   `json:"sql"`
	Modified bool     `json:"modified"`
	Changes  []Change `json:"changes,omitempty"`
}

type rule struct {
	code string
	desc string
	re   *regexp.Regexp
	repl string
}

// dsqlRules is applied strictly in order. Ordering matters twice: the serial
// family goes longest-spelling first, and table-level FOREIGN KEY clauses
// must be stripped before the bare REFERENCES rule picks up their remainder.
var dsqlRules = []rule{
	{
		code: "DSQL-TYPE-001",
		desc: "replace BIGSERIAL with UUID DEFAULT gen_random_uuid()",
		re:   regexp.MustCompile(`(?i)\bBIGSERIAL\b`),
		repl: "UUID DEFAULT gen_random_uuid()",
	},
	{
		code: "DSQL-TYPE-001",
		desc: "replace SMALLSERIAL with UUID DEFAULT gen_random_uuid()",
		re:   regexp.MustCompile(`(?i)\bSMALLSERIAL\b`),
		repl: "UUID DEFAULT gen_random_uuid()",
	},
	{
		code: "DSQL-TYPE-001",
		desc: "replace SERIAL with UUID DEFAULT gen_random_uuid()",
		re:   regexp.MustCompile(`(?i)\bSERIAL\b`),
		repl: "UUID DEFAULT gen_random_uuid()",
	},
	{
		code: "DSQL-TYPE-002",
		desc: "replace JSONB with TEXT",
		re:   regexp.MustCompile(`(?i)\bJSONB\b`),
		repl: "TEXT",
	},
	{
		code: "DSQL-TYPE-002",
		desc: "replace JSON with TEXT",
		re:   regexp.MustCompile(`(?i)\bJSON\b`),
		repl: "TEXT",
	},
	{
		code: "DSQL-TYPE-003",
		desc: "replace XML with TEXT",
		re:   regexp.MustCompile(`(?i)\bXML\b`),
		repl: "TEXT",
	},
	{
		code: "DSQL-TYPE-004",
		desc: "replace MONEY with NUMERIC(19,4)",
		re:   regexp.MustCompile(`(?i)\bMONEY\b`),
		repl: "NUMERIC(19,4)",
	},
	{
		code: "DSQL-TBL-001",
		desc: "drop TEMPORARY table modifier",
		re:   regexp.MustCompile(`(?i)\bCREATE\s+(TEMPORARY|TEMP)\s+TABLE\b`),
		repl: "CREATE TABLE",
	},
	{
		code: "DSQL-TBL-002",
		desc: "drop UNLOGGED table modifier",
		re:   regexp.MustCompile(`(?i)\bCREATE\s+UNLOGGED\s+TABLE\b`),
		repl: "CREATE TABLE",
	},
	{
		code: "DSQL-CON-001",
		desc: "drop table-level FOREIGN KEY constraint",
		re:   regexp.MustCompile(`(?i),\s*(CONSTRAINT\s+("[^"]+"|[\w$]+)\s+)?FOREIGN\s+KEY\s*\([^)]*\)`),
		repl: "",
	},
	{
		code: "DSQL-CON-001",
		desc: "drop REFERENCES clause",
		re: regexp.MustCompile(`(?i)\s+REFERENCES\s+("[^"]+"|[\w.$]+)\s*(\([^)]*\))?` +
			`((\s+MATCH\s+(FULL|PARTIAL|SIMPLE))|` +
			`(\s+ON\s+(DELETE|UPDATE)\s+(CASCADE|RESTRICT|NO\s+ACTION|SET\s+NULL|SET\s+DEFAULT))|` +
			`(\s+NOT\s+DEFERRABLE)|(\s+DEFERRABLE)|(\s+INITIALLY\s+(DEFERRED|IMMEDIATE)))*`),
		repl: "",
	},
	{
		code: "DSQL-IDX-002",
		desc: "drop CONCURRENTLY from index builds",
		re:   regexp.MustCompile(`(?i)\bCONCURRENTLY\s+`),
		repl: "",
	},
	{
		code: "DSQL-IDX-001",
		desc: "replace unsupported index method with BTREE",
		re:   regexp.MustCompile(`(?i)\bUSING\s+(GIN|GIST|SPGIST|BRIN|HASH)\b`),
		repl: "USING BTREE",
	},
}

var (
	leadingCommaRe  = regexp.MustCompile(`\(\s*,`)
	danglingCommaRe = regexp.MustCompile(`,(\s*)\)`)
	doubleCommaRe   = regexp.MustCompile(`,\s*,`)
	blankLinesRe    = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)
	trailingWSRe    = regexp.MustCompile(`[ \t]+\n`)
)

// ForDSQL rewrites a statement or script for DSQL.
func ForDSQL(sql string) *Result {
	out := sql
	var changes []Change

	for _, r := range dsqlRules {
		n := len(r.re.FindAllStringIndex(out, -1))
		if n == 0 {
			continue
		}
		out = r.re.ReplaceAllString(out, r.repl)
		changes = append(changes, Change{Code: r.code, Description: r.desc, Count: n})
	}

	if len(changes) > 0 {
		out = cleanup(out)
		logger.Get().Debug("rewrite applied", "rules", len(changes))
	}
	return &Result{SQL: out, Modified: len(changes) > 0, Changes: changes}
}

// Batch rewrites each statement independently so callers can map results
// back to their inputs.
func Batch(stmts []string) []*Result {
	out := make([]*Result, len(stmts))
	for i, s := range stmts {
		out[i] = ForDSQL(s)
	}
	return out
}

// cleanup repairs the punctuation damage left by removal rules: stray commas
// next to parens and runs of blank lines.
func cleanup(sql string) string {
	for {
		fixed := doubleCommaRe.ReplaceAllString(sql, ",")
		fixed = leadingCommaRe.ReplaceAllString(fixed, "(")
		fixed = danglingCommaRe.ReplaceAllString(fixed, "$1)")
		fixed = blankLinesRe.ReplaceAllString(fixed, "\n\n")
		fixed = trailingWSRe.ReplaceAllString(fixed, "\n")
		if fixed == sql {
			return fixed
		}
		sql = fixed
	}
}
