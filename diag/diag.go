// Package diag defines the diagnostic severities and sink the binder
// reports through, mirroring the shape of go.starlark.net/syntax's Error
// type: a position-tagged message collected into a list rather than
// thrown as a Go error mid-walk.
package diag

import (
	"fmt"
	"strings"

	"github.com/pynder/pynder/syntax"
)

// A Severity is one of the four settings a diagnostic rule may carry.
type Severity uint8

const (
	None Severity = iota
	Information
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Information:
		return "information"
	default:
		return "none"
	}
}

// ParseSeverity parses the severity spellings used in rule configuration
// ("error", "warning", "information" or "info", "none"), ignoring case
// and surrounding space.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return Error, true
	case "warning":
		return Warning, true
	case "information", "info":
		return Information, true
	case "none":
		return None, true
	default:
		return None, false
	}
}

// A Diagnostic is one reported issue, tagged with the rule that produced
// it (e.g. "bareRaiseOutsideExcept", "globalReassignment") so callers can filter or
// upgrade/downgrade by category.
type Diagnostic struct {
	Severity Severity
	Rule     string
	Message  string
	Range    syntax.Range
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Range, d.Severity, d.Message)
}

// A Sink receives diagnostics as the binder discovers them. It never
// aborts the walk; best-effort binding continues after every report.
type Sink interface {
	AddAt(severity Severity, rule, message string, rng syntax.Range)
}

// A List collects diagnostics in report order and satisfies error so a
// caller that wants a single error value for a file can use it directly,
// mirroring go.starlark.net/resolve.ErrorList.
type List struct {
	Diagnostics []Diagnostic
}

// NewList returns an empty sink backed by an in-memory List.
func NewList() *List { return &List{} }

func (l *List) AddAt(severity Severity, rule, message string, rng syntax.Range) {
	l.Diagnostics = append(l.Diagnostics, Diagnostic{
		Severity: severity,
		Rule:     rule,
		Message:  message,
		Range:    rng,
	})
}

// HasErrors reports whether any collected diagnostic is at Error severity.
func (l *List) HasErrors() bool {
	for _, d := range l.Diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (l *List) Error() string {
	var b strings.Builder
	for i, d := range l.Diagnostics {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.String())
	}
	return b.String()
}
