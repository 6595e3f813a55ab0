// Package validate checks a parsed schema against a dialect rule catalog.
// The walker itself is dialect-agnostic: it visits the schema in a fixed
// order, asks the catalog whether a rule applies at each point, and
// accumulates diagnostics. It never stops early.
package validate

import (
	"fmt"
	"strings"

	"github.com/pgdialect/pgdialect/internal/dialect"
	"github.com/pgdialect/pgdialect/internal/logger"
	"github.com/pgdialect/pgdialect/ir"
)

// SkippedFragmentCode tags fragments the parser could not model. It is not a
// dialect rule; it fires for every dialect.
const SkippedFragmentCode = "PARSE-SKIP"

// Options tunes a validation run.
type Options struct {
	// MacaddrReplacement overrides the suggested replacement type for MAC
	// address columns. Empty keeps the catalog default.
	MacaddrReplacement string
}

// Result is the outcome of one validation run.
type Result struct {
	Dialect     dialect.ID      `json:"dialect"`
	Valid       bool            `json:"valid"`
	Diagnostics []ir.Diagnostic `json:"diagnostics"`
}

// Errors returns the error-severity diagnostics.
func (r *Result) Errors() []ir.Diagnostic {
	return r.filter(ir.SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (r *Result) Warnings() []ir.Diagnostic {
	return r.filter(ir.SeverityWarning)
}

func (r *Result) filter(sev ir.Severity) []ir.Diagnostic {
	var out []ir.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Schema validates a whole schema for the given dialect.
func Schema(s *ir.Schema, id dialect.ID, opts Options) (*Result, error) {
	cat, err := dialect.Load(id)
	if err != nil {
		return nil, err
	}

	v := &visitor{catalog: cat, opts: opts}
	v.schemaLimits(s)
	for _, t := range s.Tables {
		v.table(t)
	}
	v.schemaEntities(s)
	v.rawStatements(s.RawStatements)

	res := &Result{Dialect: id, Valid: true, Diagnostics: v.diags}
	for _, d := range v.diags {
		if d.Severity == ir.SeverityError {
			res.Valid = false
			break
		}
	}
	logger.Get().Debug("validation finished",
		"dialect", id, "diagnostics", len(res.Diagnostics), "valid", res.Valid)
	return res, nil
}

// Table validates a single table.
func Table(t *ir.Table, id dialect.ID, opts Options) (*Result, error) {
	return Schema(ir.SchemaOf(t), id, opts)
}

type visitor struct {
	catalog *dialect.Catalog
	opts    Options
	diags   []ir.Diagnostic
}

func (v *visitor) emit(r dialect.Rule, location string) {
	v.diags = append(v.diags, v.diagnostic(r, location, nil))
}

func (v *visitor) emitType(r dialect.Rule, location string, t ir.TypeDesc) {
	v.diags = append(v.diags, v.diagnostic(r, location, &t))
}

func (v *visitor) diagnostic(r dialect.Rule, location string, t *ir.TypeDesc) ir.Diagnostic {
	d := ir.Diagnostic{
		Code:        r.Code,
		Severity:    ir.Severity(r.Severity),
		Message:     r.Message,
		Category:    r.Category,
		Location:    location,
		Alternative: r.Alternative,
		DocsURL:     r.DocsURL,
	}
	if r.Replacement != "" && t != nil {
		fix := &ir.AutoFix{
			OriginalType:      t.SQL(),
			ReplacementType:   r.Replacement,
			AdditionalChanges: r.Additional,
		}
		if v.opts.MacaddrReplacement != "" &&
			(t.Base == ir.TypeMacaddr || t.Base == ir.TypeMacaddr8) {
			fix.ReplacementType = v.opts.MacaddrReplacement
		}
		d.AutoFix = fix
	}
	return d
}

// schemaLimits checks schema-wide entity counts before the per-table walk.
func (v *visitor) schemaLimits(s *ir.Schema) {
	if r, ok := v.catalog.LimitFor("max_tables_per_schema"); ok && len(s.Tables) > r.Limit {
		v.emit(r, "schema")
	}
	if r, ok := v.catalog.LimitFor("max_views_per_schema"); ok && len(s.Views) > r.Limit {
		v.emit(r, "schema")
	}
}

// table walks one table: header features, columns, constraints, indexes, then
// leftovers the parser skipped. The order is fixed so diagnostics are
// reproducible.
func (v *visitor) table(t *ir.Table) {
	loc := t.QualifiedName()

	if t.Temporary {
		v.feature("temporary", loc)
	}
	if t.Unlogged {
		v.feature("unlogged", loc)
	}
	if t.Partitioning != nil {
		v.feature("partitioning", loc)
	}
	if len(t.Inherits) > 0 {
		v.feature("inherits", loc)
	}
	if t.Tablespace != "" {
		v.feature("tablespace", loc)
	}
	if len(t.WithOptions) > 0 {
		v.feature("with_options", loc)
	}
	if t.OnCommit != "" {
		v.feature("on_commit", loc)
	}

	if r, ok := v.catalog.LimitFor("max_columns_per_table"); ok && len(t.Columns) > r.Limit {
		v.emit(r, loc)
	}

	for _, c := range t.Columns {
		v.column(t, c)
	}
	for _, c := range t.Constraints {
		v.constraint(t, c)
	}
	for _, idx := range t.Indexes {
		v.index(t, idx)
	}
	if r, ok := v.catalog.LimitFor("max_indexes_per_table"); ok && len(t.Indexes) > r.Limit {
		v.emit(r, loc)
	}

	v.tenantKey(t)

	for _, frag := range t.SkippedFragments {
		v.diags = append(v.diags, ir.Diagnostic{
			Code:     SkippedFragmentCode,
			Severity: ir.SeverityWarning,
			Category: "parse",
			Message:  fmt.Sprintf("unrecognized table definition fragment %q was ignored", frag),
			Location: loc,
		})
	}
}

func (v *visitor) feature(key, location string) {
	if r, ok := v.catalog.ForFeature(key); ok {
		v.emit(r, location)
	}
}

func (v *visitor) column(t *ir.Table, c *ir.Column) {
	loc := t.QualifiedName() + "." + c.Name

	// An array column fires the array rule only; the element type is the
	// array's problem, not a second finding.
	switch {
	case c.Type.Array:
		v.feature("array", loc)
	case c.Type.Custom:
		v.feature("custom_type", loc)
	default:
		if r, ok := v.catalog.ForType(c.Type.Base); ok {
			v.emitType(r, loc, c.Type)
		}
	}

	if c.Type.Base == ir.TypeVarchar && c.Type.Length != nil {
		if r, ok := v.catalog.LimitFor("max_varchar_length"); ok && *c.Type.Length > r.Limit {
			v.emit(r, loc)
		}
	}
	if c.Type.Base == ir.TypeNumeric && c.Type.Precision != nil {
		if r, ok := v.catalog.LimitFor("max_numeric_precision"); ok && *c.Type.Precision > r.Limit {
			v.emit(r, loc)
		}
	}

	if c.Identity != nil {
		v.feature("identity", loc)
	}
	if c.Generated != nil {
		v.feature("generated", loc)
	}
	if c.Collation != "" {
		v.feature("collation", loc)
	}
	if c.Default != nil && strings.Contains(strings.ToLower(*c.Default), "nextval(") {
		v.feature("nextval_default", loc)
	}
	if c.References != nil {
		v.feature("foreign_key", loc)
		if c.References.OnDelete != "" || c.References.OnUpdate != "" {
			v.feature("fk_actions", loc)
		}
	}
}

func (v *visitor) constraint(t *ir.Table, c *ir.Constraint) {
	loc := t.QualifiedName()
	if c.Name != "" {
		loc = fmt.Sprintf("%s (constraint %s)", loc, c.Name)
	}

	switch c.Kind {
	case ir.ConstraintForeignKey:
		v.feature("foreign_key", loc)
		if c.Match != "" {
			if c.Match == "PARTIAL" {
				if r, ok := v.catalog.ForFeature("fk_match_partial"); ok {
					v.emit(r, loc)
				}
			}
			v.feature("fk_match", loc)
		}
		if c.OnDelete != "" || c.OnUpdate != "" {
			v.feature("fk_actions", loc)
		}
	case ir.ConstraintExclusion:
		v.feature("exclusion", loc)
	case ir.ConstraintUnique:
		if c.NullsNotDistinct {
			v.feature("nulls_not_distinct", loc)
		}
	}

	if c.Deferrable || c.InitiallyDeferred {
		v.feature("deferrable", loc)
	}
}

func (v *visitor) index(t *ir.Table, idx *ir.Index) {
	loc := t.QualifiedName() + "." + idx.Name

	if idx.Method != "" && idx.Method != ir.IndexBTree {
		key := "index_method:" + strings.ToLower(string(idx.Method))
		if r, ok := v.catalog.ForFeature(key); ok {
			v.emit(r, loc)
		} else {
			v.feature("index_method", loc)
		}
	}
	if idx.Concurrently {
		v.feature("index_concurrently", loc)
	}
	if idx.Opclass != "" {
		v.feature("index_opclass", loc)
	}
	if r, ok := v.catalog.LimitFor("max_index_columns"); ok && len(idx.Columns) > r.Limit {
		v.emit(r, loc)
	}

	// A key column whose type the dialect rejects cannot be indexed either,
	// but only when the dialect says so.
	if r, ok := v.catalog.ForFeature("index_unsupported_type"); ok {
		for _, colName := range idx.Columns {
			col, found := t.Column(colName)
			if !found {
				continue
			}
			if _, bad := v.catalog.ForType(col.Type.Base); bad || col.Type.Array {
				v.emit(r, loc)
				break
			}
		}
	}
}

// tenantKey fires when the dialect requires a tenant discriminator column and
// the table lacks one.
func (v *visitor) tenantKey(t *ir.Table) {
	r, ok := v.catalog.ForFeature("tenant_key")
	if !ok {
		return
	}
	if _, found := t.Column("tenant_id"); found {
		return
	}
	v.emit(r, t.QualifiedName())
}

// schemaEntities visits the non-table entities: functions, then triggers,
// then sequences, then views.
func (v *visitor) schemaEntities(s *ir.Schema) {
	for _, fn := range s.Functions {
		loc := "function " + fn.Name
		switch {
		case fn.IsProcedure:
			v.feature("procedure", loc)
		case fn.ReturnsTrigger:
			v.feature("trigger_function", loc)
		default:
			v.feature("function", loc)
		}
	}
	for _, tr := range s.Triggers {
		loc := fmt.Sprintf("trigger %s on %s", tr.Name, tr.Table)
		if tr.Drop {
			loc = "drop " + loc
		}
		v.feature("trigger", loc)
	}
	for _, seq := range s.Sequences {
		v.feature("sequence", "sequence "+seq.Name)
	}
	for _, view := range s.Views {
		loc := "view " + view.Name
		if view.Materialized {
			v.feature("materialized_view", loc)
		} else {
			v.feature("view", loc)
		}
		if r, ok := v.catalog.LimitFor("max_view_definition_length"); ok && len(view.Definition) > r.Limit {
			v.emit(r, loc)
		}
	}
	for _, ext := range s.Extensions {
		v.feature("extension", "extension "+ext)
	}
}

// rawStatements runs the catalog's pattern rules over unmodeled statements.
// Each rule fires at most once per statement.
func (v *visitor) rawStatements(stmts []string) {
	for _, stmt := range stmts {
		for _, p := range v.catalog.PatternRules() {
			if p.Regexp.MatchString(stmt) {
				v.emit(p.Rule, summarize(stmt))
			}
		}
	}
}

func summarize(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 60 {
		return stmt[:57] + "..."
	}
	return stmt
}
