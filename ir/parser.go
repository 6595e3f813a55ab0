package ir

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	createTableHeaderRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+(?:(TEMPORARY|TEMP|UNLOGGED)\s+)?TABLE\s+(IF\s+NOT\s+EXISTS\s+)?(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)`)

	constraintNameRe = regexp.MustCompile(`(?is)^CONSTRAINT\s+("[^"]+"|[\w$]+)\s+(.*)$`)
	referencesRe     = regexp.MustCompile(`(?is)^("[^"]+"|[\w$.]+)\s*(?:\(\s*([^)]*)\s*\))?$`)
	allowListRe      = regexp.MustCompile(`(?is)^\s*\(?\s*("[^"]+"|[\w$]+)\s+IN\s*\((.*)\)\s*\)?\s*$`)
	partitionByRe    = regexp.MustCompile(`(?is)\bPARTITION\s+BY\s+(LIST|RANGE|HASH)\s*\(([^)]*)\)`)
	inheritsRe       = regexp.MustCompile(`(?is)\bINHERITS\s*\(([^)]*)\)`)
	tablespaceRe     = regexp.MustCompile(`(?is)\bTABLESPACE\s+("[^"]+"|[\w$]+)`)
	withOptionsRe    = regexp.MustCompile(`(?is)\bWITH\s*\(([^)]*)\)`)
	onCommitRe       = regexp.MustCompile(`(?is)\bON\s+COMMIT\s+(PRESERVE\s+ROWS|DELETE\s+ROWS|DROP)`)
	rangeBoundsRe    = regexp.MustCompile(`(?is)\bFROM\s*\(([^)]*)\)\s*TO\s*\(([^)]*)\)`)
)

// ParseCreateTable parses a single CREATE TABLE statement into a Table. The
// statement may be schema-qualified and may carry IF NOT EXISTS and the
// TEMPORARY/TEMP/UNLOGGED modifiers. Fragments of the body that match no
// known column or constraint pattern are skipped and recorded for the
// validator to surface as warnings.
func ParseCreateTable(sql string) (*Table, error) {
	src := strings.TrimSpace(stripComments(sql))
	src = strings.TrimSuffix(src, ";")

	m := createTableHeaderRe.FindStringSubmatch(src)
	if m == nil {
		return nil, newParseError(InvalidCreateTable, "statement does not begin with CREATE TABLE")
	}

	t := &Table{Name: CanonicalIdent(m[4])}
	switch strings.ToUpper(m[1]) {
	case "TEMPORARY", "TEMP":
		t.Temporary = true
	case "UNLOGGED":
		t.Unlogged = true
	}
	if m[2] != "" {
		t.IfNotExists = true
	}
	if m[3] != "" {
		t.Schema = CanonicalIdent(m[3])
	}

	rest := src[len(m[0]):]
	body, tail, ok := extractBody(rest)
	if !ok {
		return nil, newParseError(UnparseableBody, "no parenthesised column list found for table %q", t.Name)
	}

	for _, frag := range splitTableBody(body) {
		if isTableConstraint(frag) {
			if c, ok := parseTableConstraint(frag); ok {
				t.Constraints = append(t.Constraints, c)
			} else {
				t.SkippedFragments = append(t.SkippedFragments, frag)
			}
			continue
		}
		if col, ok := parseColumnDef(frag); ok {
			t.Columns = append(t.Columns, col)
		} else {
			t.SkippedFragments = append(t.SkippedFragments, frag)
		}
	}

	parseTableTail(t, tail)
	reconcilePrimaryKey(t)
	return t, nil
}

// extractBody locates the outermost parenthesised group of the table body and
// returns its content plus everything after the closing paren.
func extractBody(rest string) (body, tail string, ok bool) {
	start := -1
	var inStr bool
	var quote byte
	depth := 0

	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if inStr {
			if ch == quote {
				if i+1 < len(rest) && rest[i+1] == quote {
					i++
					continue
				}
				inStr = false
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inStr = true
			quote = ch
		case '(':
			if depth == 0 {
				if start == -1 {
					start = i
				} else {
					return "", "", false
				}
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start != -1 {
				return rest[start+1 : i], rest[i+1:], true
			}
		default:
			if start == -1 && !isSpace(ch) {
				// Non-paren content before the body means there is no body
				// (e.g. PARTITION OF clauses).
				return "", "", false
			}
		}
	}
	return "", "", false
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

var constraintLeads = []string{"PRIMARY KEY", "UNIQUE", "CHECK", "FOREIGN KEY", "CONSTRAINT", "EXCLUDE"}

func isTableConstraint(frag string) bool {
	u := strings.ToUpper(strings.TrimSpace(frag))
	for _, lead := range constraintLeads {
		if strings.HasPrefix(u, lead) {
			// A column may legitimately be named "unique" only when quoted,
			// which the prefix check already excludes.
			return true
		}
	}
	return false
}

// columnFlagKeywords terminate the type-name portion of a column definition.
var columnFlagKeywords = map[string]bool{
	"NOT": true, "NULL": true, "PRIMARY": true, "UNIQUE": true,
	"DEFAULT": true, "REFERENCES": true, "CHECK": true, "CONSTRAINT": true,
	"GENERATED": true, "COLLATE": true,
}

// parseColumnDef parses one column definition fragment.
func parseColumnDef(frag string) (*Column, bool) {
	tokens := tokenize(frag)
	if len(tokens) < 2 {
		return nil, false
	}

	col := &Column{Name: CanonicalIdent(tokens[0])}

	// Everything up to the first flag keyword is the type string.
	i := 1
	var typeParts []string
	for ; i < len(tokens); i++ {
		if columnFlagKeywords[strings.ToUpper(tokens[i])] {
			break
		}
		typeParts = append(typeParts, tokens[i])
	}
	if len(typeParts) == 0 {
		return nil, false
	}
	col.Type = ParseType(strings.Join(typeParts, " "))

	for i < len(tokens) {
		upper := strings.ToUpper(tokens[i])
		switch upper {
		case "NOT":
			if i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "NULL") {
				col.Nullability = NotNull
				i += 2
				continue
			}
			return nil, false
		case "NULL":
			col.Nullability = NullableExplicit
			i++
		case "PRIMARY":
			if i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "KEY") {
				col.PrimaryKey = true
				col.Nullability = NotNull
				i += 2
				continue
			}
			return nil, false
		case "UNIQUE":
			col.Unique = true
			i++
		case "DEFAULT":
			expr, next := captureDefault(tokens, i+1)
			if expr == "" {
				return nil, false
			}
			col.Default = &expr
			i = next
		case "REFERENCES":
			ref, next, ok := captureReferences(tokens, i+1)
			if !ok {
				return nil, false
			}
			col.References = ref
			i = next
		case "CHECK":
			if i+1 >= len(tokens) {
				return nil, false
			}
			expr := stripOuterParens(tokens[i+1])
			check := &ColumnCheck{Expression: expr}
			if vals, ok := parseAllowList(expr); ok {
				check.AllowedValues = vals
			}
			col.Check = check
			i += 2
		case "GENERATED":
			gen, id, next, ok := captureGenerated(tokens, i+1)
			if !ok {
				return nil, false
			}
			col.Generated, col.Identity = gen, id
			i = next
		case "COLLATE":
			if i+1 >= len(tokens) {
				return nil, false
			}
			col.Collation = CanonicalIdent(tokens[i+1])
			i += 2
		default:
			// Unknown trailing token; skip the whole fragment rather than
			// guess at its meaning.
			return nil, false
		}
	}
	return col, true
}

// captureDefault consumes the default expression: at least one token, then
// more until the next flag keyword.
func captureDefault(tokens []string, i int) (string, int) {
	if i >= len(tokens) {
		return "", i
	}
	parts := []string{tokens[i]}
	i++
	for i < len(tokens) && !columnFlagKeywords[strings.ToUpper(tokens[i])] {
		parts = append(parts, tokens[i])
		i++
	}
	return strings.Join(parts, " "), i
}

// captureReferences consumes REFERENCES <table>[(col)] [ON DELETE a] [ON UPDATE a].
func captureReferences(tokens []string, i int) (*Reference, int, bool) {
	if i >= len(tokens) {
		return nil, i, false
	}
	m := referencesRe.FindStringSubmatch(tokens[i])
	if m == nil {
		return nil, i, false
	}
	ref := &Reference{Table: CanonicalIdent(m[1])}
	if m[2] != "" {
		ref.Column = CanonicalIdent(m[2])
	}
	i++

	// Target columns may be a separate parenthesised token.
	if ref.Column == "" && i < len(tokens) && strings.HasPrefix(tokens[i], "(") {
		ref.Column = CanonicalIdent(stripOuterParens(tokens[i]))
		i++
	}

	for i < len(tokens) && strings.EqualFold(tokens[i], "ON") {
		if i+1 >= len(tokens) {
			return nil, i, false
		}
		verb := strings.ToUpper(tokens[i+1])
		action, next, ok := captureAction(tokens, i+2)
		if !ok {
			return nil, i, false
		}
		switch verb {
		case "DELETE":
			ref.OnDelete = action
		case "UPDATE":
			ref.OnUpdate = action
		default:
			return nil, i, false
		}
		i = next
	}
	return ref, i, true
}

// captureAction consumes a referential action (CASCADE, RESTRICT, NO ACTION,
// SET NULL, SET DEFAULT).
func captureAction(tokens []string, i int) (string, int, bool) {
	if i >= len(tokens) {
		return "", i, false
	}
	switch strings.ToUpper(tokens[i]) {
	case "CASCADE", "RESTRICT":
		return strings.ToUpper(tokens[i]), i + 1, true
	case "NO":
		if i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "ACTION") {
			return "NO ACTION", i + 2, true
		}
	case "SET":
		if i+1 < len(tokens) {
			switch strings.ToUpper(tokens[i+1]) {
			case "NULL":
				return "SET NULL", i + 2, true
			case "DEFAULT":
				return "SET DEFAULT", i + 2, true
			}
		}
	}
	return "", i, false
}

// captureGenerated consumes GENERATED ALWAYS AS (expr) [STORED] or
// GENERATED {ALWAYS | BY DEFAULT} AS IDENTITY [(options)].
func captureGenerated(tokens []string, i int) (*Generated, *Identity, int, bool) {
	kind := IdentityAlways
	switch {
	case i < len(tokens) && strings.EqualFold(tokens[i], "ALWAYS"):
		i++
	case i+1 < len(tokens) && strings.EqualFold(tokens[i], "BY") && strings.EqualFold(tokens[i+1], "DEFAULT"):
		kind = IdentityByDefault
		i += 2
	default:
		return nil, nil, i, false
	}
	if i >= len(tokens) || !strings.EqualFold(tokens[i], "AS") {
		return nil, nil, i, false
	}
	i++
	if i >= len(tokens) {
		return nil, nil, i, false
	}

	if strings.EqualFold(tokens[i], "IDENTITY") {
		id := &Identity{Kind: kind}
		i++
		if i < len(tokens) && strings.HasPrefix(tokens[i], "(") {
			id.SequenceOptions = strings.TrimSpace(stripOuterParens(tokens[i]))
			i++
		}
		return nil, id, i, true
	}

	if kind != IdentityAlways || !strings.HasPrefix(tokens[i], "(") {
		return nil, nil, i, false
	}
	gen := &Generated{Expression: stripOuterParens(tokens[i])}
	i++
	if i < len(tokens) && strings.EqualFold(tokens[i], "STORED") {
		gen.Stored = true
		i++
	}
	return gen, nil, i, true
}

// parseTableConstraint parses a table-level constraint fragment, dispatching
// on keyword order.
func parseTableConstraint(frag string) (*Constraint, bool) {
	frag = strings.TrimSpace(frag)
	c := &Constraint{}

	if m := constraintNameRe.FindStringSubmatch(frag); m != nil {
		c.Name = CanonicalIdent(m[1])
		frag = strings.TrimSpace(m[2])
	}
	upper := strings.ToUpper(frag)

	switch {
	case strings.HasPrefix(upper, "PRIMARY KEY"):
		c.Kind = ConstraintPrimaryKey
		cols, rest, ok := parenGroup(frag[len("PRIMARY KEY"):])
		if !ok {
			return nil, false
		}
		c.Columns = splitIdentList(cols)
		parseConstraintTail(c, rest)
	case strings.HasPrefix(upper, "UNIQUE"):
		c.Kind = ConstraintUnique
		rest := frag[len("UNIQUE"):]
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(rest)), "NULLS NOT DISTINCT") {
			c.NullsNotDistinct = true
			rest = strings.TrimSpace(rest)[len("NULLS NOT DISTINCT"):]
		}
		cols, tail, ok := parenGroup(rest)
		if !ok {
			return nil, false
		}
		c.Columns = splitIdentList(cols)
		parseConstraintTail(c, tail)
	case strings.HasPrefix(upper, "CHECK"):
		c.Kind = ConstraintCheck
		expr, rest, ok := parenGroup(frag[len("CHECK"):])
		if !ok {
			return nil, false
		}
		c.Expression = expr
		parseConstraintTail(c, rest)
	case strings.HasPrefix(upper, "FOREIGN KEY"):
		c.Kind = ConstraintForeignKey
		cols, rest, ok := parenGroup(frag[len("FOREIGN KEY"):])
		if !ok {
			return nil, false
		}
		c.Columns = splitIdentList(cols)
		if !parseForeignKeyTail(c, rest) {
			return nil, false
		}
	case strings.HasPrefix(upper, "EXCLUDE"):
		c.Kind = ConstraintExclusion
		c.Raw = frag
	default:
		return nil, false
	}
	return c, true
}

// parseForeignKeyTail consumes REFERENCES <table>(<cols>) plus the optional
// MATCH, action, and deferrability clauses.
func parseForeignKeyTail(c *Constraint, rest string) bool {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(strings.ToUpper(rest), "REFERENCES") {
		return false
	}
	rest = strings.TrimSpace(rest[len("REFERENCES"):])

	tokens := tokenize(rest)
	if len(tokens) == 0 {
		return false
	}
	m := referencesRe.FindStringSubmatch(tokens[0])
	if m == nil {
		return false
	}
	c.RefTable = CanonicalIdent(m[1])
	if m[2] != "" {
		c.RefColumns = splitIdentList(m[2])
	}
	i := 1
	if len(c.RefColumns) == 0 && i < len(tokens) && strings.HasPrefix(tokens[i], "(") {
		c.RefColumns = splitIdentList(stripOuterParens(tokens[i]))
		i++
	}

	for i < len(tokens) {
		switch strings.ToUpper(tokens[i]) {
		case "MATCH":
			if i+1 >= len(tokens) {
				return false
			}
			c.Match = strings.ToUpper(tokens[i+1])
			i += 2
		case "ON":
			if i+1 >= len(tokens) {
				return false
			}
			verb := strings.ToUpper(tokens[i+1])
			action, next, ok := captureAction(tokens, i+2)
			if !ok {
				return false
			}
			if verb == "DELETE" {
				c.OnDelete = action
			} else {
				c.OnUpdate = action
			}
			i = next
		case "DEFERRABLE":
			c.Deferrable = true
			i++
		case "INITIALLY":
			if i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "DEFERRED") {
				c.InitiallyDeferred = true
			}
			i += 2
		case "NOT":
			// NOT DEFERRABLE
			i += 2
		default:
			return false
		}
	}
	return true
}

// parseConstraintTail picks up deferrability markers trailing any constraint.
func parseConstraintTail(c *Constraint, rest string) {
	upper := strings.ToUpper(rest)
	if strings.Contains(upper, "DEFERRABLE") && !strings.Contains(upper, "NOT DEFERRABLE") {
		c.Deferrable = true
	}
	if strings.Contains(upper, "INITIALLY DEFERRED") {
		c.InitiallyDeferred = true
	}
}

// parenGroup returns the content of the first balanced paren group in s and
// everything after it.
func parenGroup(s string) (inner, rest string, ok bool) {
	body, tail, ok := extractBody(s)
	return body, tail, ok
}

// splitIdentList splits a comma-separated identifier list, canonicalizing
// each entry.
func splitIdentList(s string) []string {
	var out []string
	for _, part := range splitTableBody(s) {
		if id := CanonicalIdent(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func stripOuterParens(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// parseAllowList recognizes a simple "col IN ('a', 'b')" check expression and
// returns its literal values.
func parseAllowList(expr string) ([]string, bool) {
	m := allowListRe.FindStringSubmatch(expr)
	if m == nil {
		return nil, false
	}
	var vals []string
	for _, part := range splitTableBody(m[2]) {
		part = strings.TrimSpace(part)
		part = strings.TrimSuffix(strings.TrimPrefix(part, "'"), "'")
		vals = append(vals, strings.ReplaceAll(part, "''", "'"))
	}
	if len(vals) == 0 {
		return nil, false
	}
	return vals, true
}

// parseTableTail extracts the clauses after the closing paren of the body.
func parseTableTail(t *Table, tail string) {
	if m := partitionByRe.FindStringSubmatch(tail); m != nil {
		t.Partitioning = &Partitioning{
			Strategy: PartitionStrategy(strings.ToUpper(m[1])),
			Key:      splitIdentList(m[2]),
		}
	}
	if m := inheritsRe.FindStringSubmatch(tail); m != nil {
		t.Inherits = splitIdentList(m[1])
	}
	if m := tablespaceRe.FindStringSubmatch(tail); m != nil {
		t.Tablespace = CanonicalIdent(m[1])
	}
	if m := withOptionsRe.FindStringSubmatch(tail); m != nil {
		for _, opt := range splitTableBody(m[1]) {
			t.WithOptions = append(t.WithOptions, strings.TrimSpace(opt))
		}
	}
	if m := onCommitRe.FindStringSubmatch(tail); m != nil {
		t.OnCommit = strings.ToUpper(regexp.MustCompile(`\s+`).ReplaceAllString(m[1], " "))
	}
}

// reconcilePrimaryKey enforces the single-source-of-truth invariant: an
// inline primary key column gets an equivalent table-level entry, and a
// single-column table-level primary key marks its column.
func reconcilePrimaryKey(t *Table) {
	var inline *Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			inline = c
			break
		}
	}

	pk, hasPK := t.PrimaryKey()
	switch {
	case inline != nil && !hasPK:
		t.Constraints = append(t.Constraints, &Constraint{
			Kind:    ConstraintPrimaryKey,
			Columns: []string{inline.Name},
		})
	case inline == nil && hasPK && len(pk.Columns) == 1:
		if col, ok := t.Column(pk.Columns[0]); ok {
			col.PrimaryKey = true
			col.Nullability = NotNull
		}
	}
}

// parseChildPartition parses the FOR VALUES clause of a
// CREATE TABLE ... PARTITION OF statement.
func parseChildPartition(name, clause string) *ChildPartition {
	p := &ChildPartition{Name: name}
	upper := strings.ToUpper(clause)

	switch {
	case strings.Contains(upper, "DEFAULT"):
		p.Kind = PartitionKindDefault
	case strings.Contains(upper, "FOR VALUES IN"):
		p.Kind = PartitionKindList
		if inner, _, ok := extractBody(clause[strings.Index(upper, "IN")+2:]); ok {
			for _, v := range splitTableBody(inner) {
				p.Values = append(p.Values, strings.TrimSpace(v))
			}
		}
	case strings.Contains(upper, "FOR VALUES FROM"):
		p.Kind = PartitionKindRange
		if m := rangeBoundsRe.FindStringSubmatch(clause); m != nil {
			p.From = strings.TrimSpace(m[1])
			p.To = strings.TrimSpace(m[2])
		}
	case strings.Contains(upper, "MODULUS"):
		p.Kind = PartitionKindHash
		if m := regexp.MustCompile(`(?i)MODULUS\s+(\d+)\s*,\s*REMAINDER\s+(\d+)`).FindStringSubmatch(clause); m != nil {
			p.Modulus, _ = strconv.Atoi(m[1])
			p.Remainder, _ = strconv.Atoi(m[2])
		}
	default:
		p.Kind = PartitionKindDefault
	}
	return p
}
