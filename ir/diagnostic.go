package ir

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// AutoFix describes a mechanical replacement a rewriter can apply.
type AutoFix struct {
	OriginalType      string   `json:"original_type,omitempty"`
	ReplacementType   string   `json:"replacement_type,omitempty"`
	AdditionalChanges []string `json:"additional_changes,omitempty"`
}

// Diagnostic is a code-tagged message attached to the smallest meaningful
// location. Diagnostics are accumulated, never raised.
type Diagnostic struct {
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Category    string   `json:"category,omitempty"`
	Location    string   `json:"location,omitempty"`
	Alternative string   `json:"alternative,omitempty"`
	AutoFix     *AutoFix `json:"auto_fix,omitempty"`
	DocsURL     string   `json:"docs_url,omitempty"`
}

// Format renders the user-visible form:
//
//	[ERROR] DSQL-TYPE-001: SERIAL types are not supported
//	  Location: t.id
//	  Alternative: ...
//	  Docs: ...
func (d Diagnostic) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", d.severityLabel(), d.Code, d.Message)
	if d.Location != "" {
		fmt.Fprintf(&b, "\n  Location: %s", d.Location)
	}
	if d.Alternative != "" {
		fmt.Fprintf(&b, "\n  Alternative: %s", d.Alternative)
	}
	if d.DocsURL != "" {
		fmt.Fprintf(&b, "\n  Docs: %s", d.DocsURL)
	}
	return b.String()
}

func (d Diagnostic) severityLabel() string {
	switch d.Severity {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARN"
	default:
		return "INFO"
	}
}
