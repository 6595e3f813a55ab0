package ir

import "strings"

// tokenize splits DDL source into paren-aware tokens in a single
// left-to-right scan. At depth 0, whitespace and commas split tokens; inside
// parens everything up to the matching close paren stays in one token, so a
// parenthesised type like NUMERIC(10,2) survives as a unit. String literals
// ('...' and "...") are copied verbatim, with a doubled quote as the escape.
// The scanner never fails: unbalanced input flushes its trailing content as a
// final token.
func tokenize(src string) []string {
	return scan(src, false)
}

// splitTableBody carves the parenthesised table body into
// one-definition-per-entry fragments. Identical scan, but only depth-0 commas
// split and whitespace is kept inside fragments.
func splitTableBody(body string) []string {
	return scan(body, true)
}

func scan(src string, commaOnly bool) []string {
	var (
		tokens  []string
		current strings.Builder
		depth   int
		inStr   bool
		quote   byte
	)

	flush := func() {
		if tok := strings.TrimSpace(current.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inStr {
			current.WriteByte(ch)
			if ch == quote {
				// Doubled quote is an escape, stay inside the literal.
				if i+1 < len(src) && src[i+1] == quote {
					current.WriteByte(src[i+1])
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
			current.WriteByte(ch)
		case '(':
			// A paren glued to a bare token (NUMERIC(10,2)) extends it; a
			// paren after whitespace starts a fresh parenthesised token,
			// since the whitespace already flushed the previous one.
			depth++
			current.WriteByte(ch)
		case ')':
			if depth > 0 {
				depth--
			}
			current.WriteByte(ch)
			if depth == 0 && !commaOnly {
				flush()
			}
		case ',':
			if depth == 0 {
				flush()
			} else {
				current.WriteByte(ch)
			}
		case ' ', '\t', '\n', '\r':
			if depth == 0 && !commaOnly {
				flush()
			} else {
				current.WriteByte(ch)
			}
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// stripComments removes -- line comments and /* */ block comments, leaving
// string literal contents untouched.
func stripComments(src string) string {
	var out strings.Builder
	var inStr bool
	var quote byte

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inStr {
			out.WriteByte(ch)
			if ch == quote {
				if i+1 < len(src) && src[i+1] == quote {
					out.WriteByte(src[i+1])
					i++
					continue
				}
				inStr = false
			}
			continue
		}

		if tag, ok := dollarTag(src, i); ok {
			end := strings.Index(src[i+len(tag):], tag)
			if end < 0 {
				out.WriteString(src[i:])
				break
			}
			stop := i + len(tag) + end + len(tag)
			out.WriteString(src[i:stop])
			i = stop - 1
			continue
		}

		switch {
		case ch == '\'' || ch == '"':
			inStr = true
			quote = ch
			out.WriteByte(ch)
		case ch == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				out.WriteByte('\n')
			}
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i++ // skip the closing '/'
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}

// dollarTag recognizes a dollar-quote opener ($$, $body$, ...) at position i
// and returns the full tag.
func dollarTag(src string, i int) (string, bool) {
	if src[i] != '$' {
		return "", false
	}
	j := i + 1
	for j < len(src) && (src[j] == '_' || isWordByte(src[j])) {
		j++
	}
	if j < len(src) && src[j] == '$' {
		return src[i : j+1], true
	}
	return "", false
}

func isWordByte(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

// splitStatements splits a SQL script on top-level semicolons, respecting
// string literals, dollar-quoted bodies, and paren depth.
func splitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		depth   int
		inStr   bool
		quote   byte
	)

	for i := 0; i < len(script); i++ {
		ch := script[i]

		if inStr {
			current.WriteByte(ch)
			if ch == quote {
				if i+1 < len(script) && script[i+1] == quote {
					current.WriteByte(script[i+1])
					i++
					continue
				}
				inStr = false
			}
			continue
		}

		if tag, ok := dollarTag(script, i); ok {
			end := strings.Index(script[i+len(tag):], tag)
			if end < 0 {
				current.WriteString(script[i:])
				break
			}
			stop := i + len(tag) + end + len(tag)
			current.WriteString(script[i:stop])
			i = stop - 1
			continue
		}

		switch ch {
		case '\'', '"':
			inStr = true
			quote = ch
			current.WriteByte(ch)
		case '(':
			depth++
			current.WriteByte(ch)
		case ')':
			if depth > 0 {
				depth--
			}
			current.WriteByte(ch)
		case ';':
			if depth == 0 {
				if s := strings.TrimSpace(current.String()); s != "" {
					stmts = append(stmts, s)
				}
				current.Reset()
			} else {
				current.WriteByte(ch)
			}
		default:
			current.WriteByte(ch)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
