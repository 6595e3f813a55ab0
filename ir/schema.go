package ir

import (
	"errors"
	"regexp"
	"strings"
)

var (
	partitionOfRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s+PARTITION\s+OF\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s*(.*)$`)

	createIndexRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+(UNIQUE\s+)?INDEX\s+(CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?("[^"]+"|[\w$]+)?\s*ON\s+(?:ONLY\s+)?(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s*(?:USING\s+([\w$]+)\s*)?(\(.*)$`)

	createEnumRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+TYPE\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s+AS\s+ENUM\s*\((.*)\)\s*$`)

	createCompositeRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+TYPE\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s+AS\s*\((.*)\)\s*$`)

	createDomainRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+DOMAIN\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s+(?:AS\s+)?(.*)$`)

	createExtensionRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+EXTENSION\s+(?:IF\s+NOT\s+EXISTS\s+)?("[^"]+"|[\w$]+)`)

	createSequenceRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+SEQUENCE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)(.*)$`)

	createViewRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(MATERIALIZED\s+)?VIEW\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s+AS\s+(.*)$`)

	createFunctionRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(FUNCTION|PROCEDURE)\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)\s*\(`)

	functionReturnsRe  = regexp.MustCompile(`(?is)\bRETURNS\s+(SETOF\s+)?([\w ]+?)(?:\s+AS\b|\s+LANGUAGE\b|\s*$)`)
	functionLanguageRe = regexp.MustCompile(`(?is)\bLANGUAGE\s+([\w$]+)`)

	createTriggerRe = regexp.MustCompile(
		`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:CONSTRAINT\s+)?TRIGGER\s+("[^"]+"|[\w$]+)\s+(BEFORE|AFTER|INSTEAD\s+OF)\s+(.*?)\s+ON\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)(.*)$`)

	dropTriggerRe = regexp.MustCompile(
		`(?is)^\s*DROP\s+TRIGGER\s+(?:IF\s+EXISTS\s+)?("[^"]+"|[\w$]+)\s+ON\s+(?:("[^"]+"|[\w$]+)\s*\.\s*)?("[^"]+"|[\w$]+)`)

	triggerFunctionRe = regexp.MustCompile(`(?is)\bEXECUTE\s+(?:FUNCTION|PROCEDURE)\s+([\w$."]+)\s*\(`)
	triggerWhenRe     = regexp.MustCompile(`(?is)\bWHEN\s*\((.*)\)\s*EXECUTE\b`)

	commentOnRe = regexp.MustCompile(
		`(?is)^\s*COMMENT\s+ON\s+(TABLE|COLUMN)\s+([\w$."]+)\s+IS\s+'((?:[^']|'')*)'\s*$`)

	indexWhereRe   = regexp.MustCompile(`(?is)\bWHERE\s+(.*)$`)
	indexIncludeRe = regexp.MustCompile(`(?is)\bINCLUDE\s*\(([^)]*)\)`)
)

// ParseScript parses a multi-statement SQL script into a Schema. CREATE TABLE
// statements become Tables; indexes, enums, domains, composite types,
// extensions, sequences, views, functions, triggers and comments are attached
// to the model; everything else lands in RawStatements so the validator can
// still pattern-match it. Per-statement parse failures never abort the batch.
func ParseScript(script string) (*Schema, error) {
	s := &Schema{}
	for _, stmt := range splitStatements(stripComments(script)) {
		parseStatement(s, stmt)
	}
	return s, s.CheckInvariants()
}

func parseStatement(s *Schema, stmt string) {
	upper := strings.ToUpper(stmt)

	switch {
	case partitionOfRe.MatchString(stmt):
		m := partitionOfRe.FindStringSubmatch(stmt)
		child := parseChildPartition(CanonicalIdent(m[2]), m[5])
		parent := CanonicalIdent(m[4])
		if t := findTable(s, parent); t != nil {
			t.Partitions = append(t.Partitions, child)
		} else {
			s.RawStatements = append(s.RawStatements, stmt)
		}

	case strings.HasPrefix(strings.TrimSpace(upper), "CREATE") && strings.Contains(upper, "TABLE") && createTableHeaderRe.MatchString(stmt):
		t, err := ParseCreateTable(stmt)
		if err != nil {
			s.RawStatements = append(s.RawStatements, stmt)
			return
		}
		s.Tables = append(s.Tables, t)

	case createIndexRe.MatchString(stmt):
		parseIndexStatement(s, stmt)

	case createEnumRe.MatchString(stmt):
		m := createEnumRe.FindStringSubmatch(stmt)
		e := &Enum{Schema: CanonicalIdent(m[1]), Name: CanonicalIdent(m[2])}
		for _, v := range splitTableBody(m[3]) {
			v = strings.TrimSpace(v)
			v = strings.TrimSuffix(strings.TrimPrefix(v, "'"), "'")
			e.Values = append(e.Values, strings.ReplaceAll(v, "''", "'"))
		}
		s.Enums = append(s.Enums, e)

	case createCompositeRe.MatchString(stmt):
		m := createCompositeRe.FindStringSubmatch(stmt)
		ct := &CompositeType{Schema: CanonicalIdent(m[1]), Name: CanonicalIdent(m[2])}
		for _, f := range splitTableBody(m[3]) {
			toks := tokenize(f)
			if len(toks) < 2 {
				continue
			}
			ct.Fields = append(ct.Fields, CompositeField{
				Name: CanonicalIdent(toks[0]),
				Type: strings.Join(toks[1:], " "),
			})
		}
		s.CompositeTypes = append(s.CompositeTypes, ct)

	case createDomainRe.MatchString(stmt):
		m := createDomainRe.FindStringSubmatch(stmt)
		s.Domains = append(s.Domains, parseDomainBody(CanonicalIdent(m[1]), CanonicalIdent(m[2]), m[3]))

	case createExtensionRe.MatchString(stmt):
		m := createExtensionRe.FindStringSubmatch(stmt)
		s.Extensions = append(s.Extensions, CanonicalIdent(m[1]))
		s.RawStatements = append(s.RawStatements, stmt)

	case createSequenceRe.MatchString(stmt):
		m := createSequenceRe.FindStringSubmatch(stmt)
		s.Sequences = append(s.Sequences, parseSequenceBody(CanonicalIdent(m[1]), CanonicalIdent(m[2]), m[3]))

	case createViewRe.MatchString(stmt):
		m := createViewRe.FindStringSubmatch(stmt)
		s.Views = append(s.Views, &View{
			Schema:       CanonicalIdent(m[2]),
			Name:         CanonicalIdent(m[3]),
			Definition:   strings.TrimSpace(m[4]),
			Materialized: m[1] != "",
		})

	case createFunctionRe.MatchString(stmt):
		m := createFunctionRe.FindStringSubmatch(stmt)
		fn := &Function{
			Schema:      CanonicalIdent(m[2]),
			Name:        CanonicalIdent(m[3]),
			Definition:  stmt,
			IsProcedure: strings.EqualFold(m[1], "PROCEDURE"),
		}
		if rm := functionReturnsRe.FindStringSubmatch(stmt); rm != nil {
			fn.Returns = strings.TrimSpace(strings.ToUpper(rm[2]))
			fn.ReturnsTrigger = strings.EqualFold(strings.TrimSpace(rm[2]), "trigger")
		}
		if lm := functionLanguageRe.FindStringSubmatch(stmt); lm != nil {
			fn.Language = strings.ToLower(lm[1])
		}
		s.Functions = append(s.Functions, fn)

	case createTriggerRe.MatchString(stmt):
		s.Triggers = append(s.Triggers, parseTriggerStatement(stmt))

	case dropTriggerRe.MatchString(stmt):
		m := dropTriggerRe.FindStringSubmatch(stmt)
		s.Triggers = append(s.Triggers, &Trigger{
			Name:  CanonicalIdent(m[1]),
			Table: CanonicalIdent(m[3]),
			Drop:  true,
		})

	case commentOnRe.MatchString(stmt):
		attachComment(s, commentOnRe.FindStringSubmatch(stmt))

	default:
		s.RawStatements = append(s.RawStatements, stmt)
	}
}

func findTable(s *Schema, name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func parseIndexStatement(s *Schema, stmt string) {
	m := createIndexRe.FindStringSubmatch(stmt)
	table := findTable(s, CanonicalIdent(m[5]))
	if table == nil {
		s.RawStatements = append(s.RawStatements, stmt)
		return
	}

	idx := &Index{
		Name:         CanonicalIdent(m[3]),
		Unique:       m[1] != "",
		Concurrently: m[2] != "",
	}
	if m[6] != "" {
		idx.Method = IndexMethod(strings.ToUpper(m[6]))
	} else {
		idx.Method = IndexBTree
	}

	keyList, tail, ok := extractBody(m[7])
	if !ok {
		s.RawStatements = append(s.RawStatements, stmt)
		return
	}

	// The key list is either plain identifiers or an expression. Any entry
	// with parens or operators flips the whole list to expression form.
	entries := splitTableBody(keyList)
	expression := false
	for _, e := range entries {
		if strings.ContainsAny(e, "()+-*/|") {
			expression = true
			break
		}
	}
	if expression {
		idx.Expression = strings.TrimSpace(keyList)
	} else {
		for _, e := range entries {
			toks := tokenize(e)
			if len(toks) == 0 {
				continue
			}
			name := toks[0]
			rest := strings.ToUpper(strings.Join(toks[1:], " "))
			if strings.Contains(rest, "DESC") {
				idx.SortOrder = "DESC"
			}
			if strings.Contains(rest, "NULLS FIRST") {
				idx.NullsOrdering = "FIRST"
			} else if strings.Contains(rest, "NULLS LAST") {
				idx.NullsOrdering = "LAST"
			}
			// A trailing bare token that is not an ordering keyword is an
			// operator class.
			for _, t := range toks[1:] {
				switch strings.ToUpper(t) {
				case "ASC", "DESC", "NULLS", "FIRST", "LAST":
				default:
					idx.Opclass = strings.ToLower(t)
				}
			}
			idx.Columns = append(idx.Columns, CanonicalIdent(name))
		}
	}

	if im := indexIncludeRe.FindStringSubmatch(tail); im != nil {
		idx.Include = splitIdentList(im[1])
		tail = indexIncludeRe.ReplaceAllString(tail, "")
	}
	if wm := indexWhereRe.FindStringSubmatch(tail); wm != nil {
		idx.Where = strings.TrimSpace(strings.TrimSuffix(wm[1], ";"))
	}
	if om := withOptionsRe.FindStringSubmatch(tail); om != nil {
		for _, p := range splitTableBody(om[1]) {
			idx.StorageParams = append(idx.StorageParams, strings.TrimSpace(p))
		}
	}

	table.Indexes = append(table.Indexes, idx)
}

func parseDomainBody(schema, name, body string) *Domain {
	d := &Domain{Schema: schema, Name: name}

	work := body
	for _, cm := range regexp.MustCompile(`(?is)\bCHECK\s*`).FindAllStringIndex(work, -1) {
		if expr, _, ok := extractBody(work[cm[1]:]); ok {
			d.Checks = append(d.Checks, expr)
		}
	}
	if m := regexp.MustCompile(`(?is)\bDEFAULT\s+(\S+)`).FindStringSubmatch(work); m != nil {
		d.Default = m[1]
	}
	if regexp.MustCompile(`(?is)\bNOT\s+NULL\b`).MatchString(work) {
		d.NotNull = true
	}

	// The base type is everything before the first constraint keyword.
	stop := regexp.MustCompile(`(?is)\b(CHECK|DEFAULT|NOT|NULL|CONSTRAINT|COLLATE)\b`)
	if loc := stop.FindStringIndex(work); loc != nil {
		work = work[:loc[0]]
	}
	d.BaseType = strings.TrimSpace(work)
	return d
}

var sequenceOptionRe = regexp.MustCompile(
	`(?is)\b(START(?:\s+WITH)?|INCREMENT(?:\s+BY)?|MINVALUE|MAXVALUE|CACHE)\s+(-?\d+)`)

func parseSequenceBody(schema, name, body string) *Sequence {
	seq := &Sequence{Schema: schema, Name: name}

	if m := regexp.MustCompile(`(?is)\bAS\s+([\w$]+)`).FindStringSubmatch(body); m != nil {
		seq.DataType = strings.ToUpper(m[1])
	}
	for _, m := range sequenceOptionRe.FindAllStringSubmatch(body, -1) {
		n := parseInt64(m[2])
		switch strings.ToUpper(strings.Fields(m[1])[0]) {
		case "START":
			seq.Start = n
		case "INCREMENT":
			seq.Increment = n
		case "MINVALUE":
			seq.MinValue = n
		case "MAXVALUE":
			seq.MaxValue = n
		case "CACHE":
			seq.Cache = n
		}
	}
	if regexp.MustCompile(`(?is)(?:^|[^O])\bCYCLE\b`).MatchString(body) &&
		!regexp.MustCompile(`(?is)\bNO\s+CYCLE\b`).MatchString(body) {
		seq.Cycle = true
	}
	if m := regexp.MustCompile(`(?is)\bOWNED\s+BY\s+([\w$."]+)`).FindStringSubmatch(body); m != nil {
		seq.OwnedBy = strings.ToLower(m[1])
	}
	return seq
}

func parseInt64(s string) *int64 {
	var n int64
	neg := false
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			neg = true
			continue
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return &n
}

func parseTriggerStatement(stmt string) *Trigger {
	m := createTriggerRe.FindStringSubmatch(stmt)
	tr := &Trigger{
		Name:   CanonicalIdent(m[1]),
		Timing: strings.ToUpper(regexp.MustCompile(`\s+`).ReplaceAllString(m[2], " ")),
		Table:  CanonicalIdent(m[5]),
	}
	for _, ev := range regexp.MustCompile(`(?i)\bOR\b`).Split(m[3], -1) {
		ev = strings.ToUpper(strings.TrimSpace(ev))
		// UPDATE OF col1, col2 narrows the event; keep the verb only.
		if f := strings.Fields(ev); len(f) > 0 {
			tr.Events = append(tr.Events, f[0])
		}
	}

	tail := m[6]
	if regexp.MustCompile(`(?is)\bFOR\s+EACH\s+ROW\b`).MatchString(tail) {
		tr.Level = "ROW"
	} else {
		tr.Level = "STATEMENT"
	}
	if fm := triggerFunctionRe.FindStringSubmatch(tail); fm != nil {
		tr.Function = strings.ToLower(strings.Trim(fm[1], `"`))
	}
	if wm := triggerWhenRe.FindStringSubmatch(tail); wm != nil {
		tr.Condition = strings.TrimSpace(wm[1])
	}
	return tr
}

func attachComment(s *Schema, m []string) {
	text := strings.ReplaceAll(m[3], "''", "'")
	target := strings.ToLower(strings.Trim(m[2], `"`))

	switch strings.ToUpper(m[1]) {
	case "TABLE":
		name := target
		if i := strings.LastIndex(target, "."); i >= 0 {
			name = target[i+1:]
		}
		if t := findTable(s, name); t != nil {
			t.Comment = text
		}
	case "COLUMN":
		parts := strings.Split(target, ".")
		if len(parts) < 2 {
			return
		}
		col := parts[len(parts)-1]
		tbl := parts[len(parts)-2]
		if t := findTable(s, tbl); t != nil {
			if c, ok := t.Column(col); ok {
				c.Comment = text
			}
		}
	}
}

// ParseCreateTableStrict parses a single statement and distinguishes the two
// failure kinds for callers that want to branch on them.
func ParseCreateTableStrict(sql string) (*Table, error) {
	t, err := ParseCreateTable(sql)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, err
	}
	if err := t.CheckInvariants(); err != nil {
		return nil, newParseError(UnparseableBody, "%s", err.Error())
	}
	return t, nil
}
