package pgdialect

import "github.com/pgdialect/pgdialect/ir"

// Report bundles everything one analysis pass produces for a script.
type Report struct {
	Schema     *ir.Schema        `json:"schema"`
	Validation *ValidationResult `json:"validation"`
	// Rewrite is set only when the target dialect is DSQL and the input
	// needed changes.
	Rewrite *RewriteResult `json:"rewrite,omitempty"`
	Hash    string         `json:"hash"`
}

// Analyze parses a script, validates it for the dialect, computes the schema
// fingerprint, and, for DSQL, attaches the rewrite when the input needed one.
func Analyze(script string, d Dialect, opts ValidateOptions) (*Report, error) {
	s, err := ParseSQL(script)
	if err != nil {
		return nil, err
	}
	res, err := Validate(s, d, opts)
	if err != nil {
		return nil, err
	}
	hash, err := Hash(s)
	if err != nil {
		return nil, err
	}

	report := &Report{Schema: s, Validation: res, Hash: hash}
	if d == DSQL {
		if rw := RewriteForDSQL(script); rw.Modified {
			report.Rewrite = rw
		}
	}
	return report, nil
}
