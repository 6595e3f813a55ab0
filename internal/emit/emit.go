// Package emit renders a parsed schema as schema-builder source code: one
// defineTable call per table, column builders chained with their modifiers.
// Constructs the builder language cannot express are dropped and reported as
// warnings, never silently.
package emit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/pgdialect/pgdialect/ir"
)

// DefaultImportPath is used when Options.ImportPath is empty.
const DefaultImportPath = "@pgdialect/core"

// Options tunes code generation.
type Options struct {
	// ImportPath is the module the import statement pulls builders from.
	ImportPath string
	// ExportName overrides the export identifier. Only meaningful when
	// emitting a single table; the default is the PascalCase table name.
	ExportName string
	// SnakeCase keeps column names verbatim as property keys. The default
	// renames snake_case columns to camelCase properties, keeping the SQL
	// name as the builder's first argument.
	SnakeCase bool
	// IncludeImports prepends the import statement listing every builder the
	// generated code uses.
	IncludeImports bool
}

// Result is generated code plus anything that could not be expressed.
type Result struct {
	Code     string   `json:"code"`
	Warnings []string `json:"warnings,omitempty"`
}

// Table generates builder code for a single table.
func Table(t *ir.Table, opts Options) (*Result, error) {
	return Schema(ir.SchemaOf(t), opts)
}

// Schema generates builder code for every table in the schema, in order.
func Schema(s *ir.Schema, opts Options) (*Result, error) {
	if len(s.Tables) == 0 {
		return nil, fmt.Errorf("schema has no tables to emit")
	}

	g := &generator{opts: opts, builders: map[string]bool{"defineTable": true}}
	var blocks []string
	for _, t := range s.Tables {
		if err := t.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("refusing to emit: %w", err)
		}
		blocks = append(blocks, g.table(t))
	}

	code := strings.Join(blocks, "\n\n")
	if opts.IncludeImports {
		code = g.importLine() + "\n\n" + code
	}
	return &Result{Code: code + "\n", Warnings: g.warnings}, nil
}

type generator struct {
	opts     Options
	builders map[string]bool
	warnings []string
}

func (g *generator) warnf(format string, args ...any) {
	g.warnings = append(g.warnings, fmt.Sprintf(format, args...))
}

func (g *generator) importLine() string {
	names := make([]string, 0, len(g.builders))
	for n := range g.builders {
		names = append(names, n)
	}
	sort.Strings(names)

	path := g.opts.ImportPath
	if path == "" {
		path = DefaultImportPath
	}
	return fmt.Sprintf("import { %s } from '%s';", strings.Join(names, ", "), path)
}

func (g *generator) table(t *ir.Table) string {
	export := g.opts.ExportName
	if export == "" {
		export = ir.PascalCase(t.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "export const %s = defineTable('%s', {\n", export, t.Name)
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "  %s: %s,\n", g.propertyKey(c), g.column(t, c))
	}
	b.WriteString("}")

	if extra := g.tableOptions(t); extra != "" {
		b.WriteString(", {\n" + extra + "}")
	}
	b.WriteString(");")
	return b.String()
}

var jsIdentRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func (g *generator) propertyKey(c *ir.Column) string {
	key := c.Name
	if !g.opts.SnakeCase {
		key = ir.CamelCase(key)
	}
	if !jsIdentRe.MatchString(key) {
		return "'" + strings.ReplaceAll(key, "'", "\\'") + "'"
	}
	return key
}

func (g *generator) column(t *ir.Table, c *ir.Column) string {
	var b strings.Builder
	b.WriteString(g.typeBuilder(c))

	if c.Type.Array {
		if c.Type.Dimensions > 1 {
			fmt.Fprintf(&b, ".array(%d)", c.Type.Dimensions)
		} else {
			b.WriteString(".array()")
		}
	}
	if c.PrimaryKey {
		b.WriteString(".primaryKey()")
	} else if c.Nullability == ir.NotNull {
		b.WriteString(".notNull()")
	}
	if c.Unique {
		b.WriteString(".unique()")
	}
	if c.Default != nil {
		fmt.Fprintf(&b, ".default(%s)", formatDefault(*c.Default, c.Type))
	}
	if c.Identity != nil {
		if c.Identity.Kind == ir.IdentityByDefault {
			b.WriteString(".identity('byDefault')")
		} else {
			b.WriteString(".identity()")
		}
	}
	if c.Generated != nil {
		fmt.Fprintf(&b, ".generatedAs(%s", quoteJS(c.Generated.Expression))
		if c.Generated.Stored {
			b.WriteString(", { stored: true }")
		}
		b.WriteString(")")
	}
	if c.References != nil {
		b.WriteString(g.references(c.References))
	}
	if c.Check != nil {
		fmt.Fprintf(&b, ".check(%s)", quoteJS(c.Check.Expression))
	}
	if c.Collation != "" {
		g.warnf("%s.%s: collation %q is not expressible and was dropped",
			t.Name, c.Name, c.Collation)
	}
	return b.String()
}

// typeBuilder renders the column's builder call. When the property key
// diverges from the SQL name, the SQL name goes in as the first argument.
func (g *generator) typeBuilder(c *ir.Column) string {
	call := c.Type.BuilderForm()
	name := call[:strings.Index(call, "(")]
	g.builders[name] = true

	sqlName := c.Name
	if !g.opts.SnakeCase && ir.CamelCase(c.Name) != c.Name {
		args := call[strings.Index(call, "(")+1 : len(call)-1]
		if args == "" {
			return fmt.Sprintf("%s('%s')", name, sqlName)
		}
		return fmt.Sprintf("%s('%s', %s)", name, sqlName, args)
	}
	return call
}

func (g *generator) references(r *ir.Reference) string {
	var opts []string
	if r.OnDelete != "" {
		opts = append(opts, fmt.Sprintf("onDelete: '%s'", strings.ToLower(r.OnDelete)))
	}
	if r.OnUpdate != "" {
		opts = append(opts, fmt.Sprintf("onUpdate: '%s'", strings.ToLower(r.OnUpdate)))
	}

	target := fmt.Sprintf("'%s'", r.Table)
	if r.Column != "" {
		target = fmt.Sprintf("'%s', '%s'", r.Table, r.Column)
	}
	if len(opts) > 0 {
		return fmt.Sprintf(".references(%s, { %s })", target, strings.Join(opts, ", "))
	}
	return fmt.Sprintf(".references(%s)", target)
}

// tableOptions renders the third defineTable argument: the constraints and
// clauses that live at table scope.
func (g *generator) tableOptions(t *ir.Table) string {
	var lines []string

	if t.Schema != "" && t.Schema != "public" {
		lines = append(lines, fmt.Sprintf("  schema: '%s',", t.Schema))
	}

	if pk, ok := t.PrimaryKey(); ok && len(pk.Columns) > 1 {
		lines = append(lines, fmt.Sprintf("  primaryKey: [%s],", quoteList(pk.Columns)))
	}

	for _, c := range t.Constraints {
		switch c.Kind {
		case ir.ConstraintUnique:
			if c.NullsNotDistinct {
				lines = append(lines, fmt.Sprintf("  unique: { columns: [%s], nullsNotDistinct: true },",
					quoteList(c.Columns)))
			} else {
				lines = append(lines, fmt.Sprintf("  unique: [%s],", quoteList(c.Columns)))
			}
		case ir.ConstraintCheck:
			lines = append(lines, fmt.Sprintf("  check: %s,", quoteJS(c.Expression)))
		case ir.ConstraintForeignKey:
			g.warnf("%s: table-level foreign key %s is not expressible and was dropped",
				t.Name, constraintLabel(c))
		case ir.ConstraintExclusion:
			g.warnf("%s: exclusion constraint %s is not expressible and was dropped",
				t.Name, constraintLabel(c))
		}
		if c.Deferrable || c.InitiallyDeferred {
			g.warnf("%s: deferrability of constraint %s was dropped", t.Name, constraintLabel(c))
		}
	}

	if p := t.Partitioning; p != nil {
		key := p.Key
		if p.Strategy == ir.PartitionHash && len(key) > 1 {
			g.warnf("%s: hash partitioning uses only the first key column %q", t.Name, key[0])
			key = key[:1]
		}
		lines = append(lines, fmt.Sprintf("  partitionBy: { strategy: '%s', key: [%s] },",
			strings.ToLower(string(p.Strategy)), quoteList(key)))
	}

	for _, idx := range t.Indexes {
		lines = append(lines, g.indexLine(idx))
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (g *generator) indexLine(idx *ir.Index) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("name: '%s'", idx.Name))
	if idx.Expression != "" {
		parts = append(parts, fmt.Sprintf("expression: %s", quoteJS(idx.Expression)))
	} else {
		parts = append(parts, fmt.Sprintf("columns: [%s]", quoteList(idx.Columns)))
	}
	if idx.Unique {
		parts = append(parts, "unique: true")
	}
	if idx.Method != "" && idx.Method != ir.IndexBTree {
		parts = append(parts, fmt.Sprintf("method: '%s'", strings.ToLower(string(idx.Method))))
	}
	if idx.Where != "" {
		parts = append(parts, fmt.Sprintf("where: %s", quoteJS(idx.Where)))
	}
	return fmt.Sprintf("  index: { %s },", strings.Join(parts, ", "))
}

func constraintLabel(c *ir.Constraint) string {
	if c.Name != "" {
		return "'" + c.Name + "'"
	}
	return "(" + strings.Join(c.Columns, ", ") + ")"
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}

// quoteJS renders an arbitrary SQL snippet as a builder string argument,
// reusing the driver's literal quoting so embedded quotes stay valid.
func quoteJS(s string) string {
	return pq.QuoteLiteral(s)
}

// knownDefaultFns are SQL functions kept verbatim (in string form) when they
// appear as a column default.
var knownDefaultFns = map[string]bool{
	"now()": true, "current_timestamp": true, "current_date": true,
	"current_time": true, "gen_random_uuid()": true, "uuid_generate_v4()": true,
	"localtimestamp": true, "statement_timestamp()": true, "clock_timestamp()": true,
}

var (
	intLitRe   = regexp.MustCompile(`^-?\d+$`)
	floatLitRe = regexp.MustCompile(`^-?\d+\.\d+([eE][+-]?\d+)?$`)
	castRe     = regexp.MustCompile(`\s*::\s*[\w ]+(\(\d+(,\d+)?\))?$`)
)

// formatDefault renders a SQL default expression as the builder argument.
// Literals map onto their native forms; function calls and anything else stay
// as quoted SQL.
func formatDefault(expr string, t ir.TypeDesc) string {
	trimmed := strings.TrimSpace(expr)
	// Dumps often carry a cast on the literal ('x'::text); drop it.
	trimmed = castRe.ReplaceAllString(trimmed, "")
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "null":
		return "null"
	case lower == "true" || lower == "false":
		return lower
	case knownDefaultFns[lower]:
		return quoteJS(trimmed)
	case intLitRe.MatchString(trimmed):
		if t.IsBigIntegerKind() {
			return trimmed + "n"
		}
		return trimmed
	case floatLitRe.MatchString(trimmed):
		return trimmed
	case strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") && len(trimmed) >= 2:
		inner := strings.ReplaceAll(trimmed[1:len(trimmed)-1], "''", "'")
		return quoteJS(inner)
	default:
		return quoteJS(trimmed)
	}
}
