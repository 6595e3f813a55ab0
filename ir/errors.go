package ir

import "fmt"

// ParseErrorKind classifies DDL parse failures.
type ParseErrorKind string

const (
	// InvalidCreateTable means the statement header did not match a
	// CREATE TABLE form.
	InvalidCreateTable ParseErrorKind = "InvalidCreateTable"
	// UnparseableBody means no parenthesised table body could be located.
	UnparseableBody ParseErrorKind = "UnparseableBody"
)

// ParseError is the well-typed error the DDL parser raises. It is fatal for
// the statement, never for the batch.
type ParseError struct {
	Kind ParseErrorKind
	Hint string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Hint)
	}
	return string(e.Kind)
}

// Is supports errors.Is matching against a bare kind-only ParseError.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

func newParseError(kind ParseErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Hint: fmt.Sprintf(format, args...)}
}
