package lsp

import (
	"strings"

	"go.lsp.dev/protocol"
)

// Severity ranks a diagnostic. Lower values are more severe.
type Severity uint8

// Severities, numbered as in the protocol.
const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// MoreSevere reports whether s outranks o.
func (s Severity) MoreSevere(o Severity) bool {
	return s < o
}

// ParseSeverity parses a severity name. It accepts the protocol names and
// common abbreviations.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(name) {
	case "error", "err", "e":
		return SeverityError, true
	case "warning", "warn", "w":
		return SeverityWarning, true
	case "information", "info", "i":
		return SeverityInformation, true
	case "hint", "h":
		return SeverityHint, true
	}
	return 0, false
}

// severityFromProtocol maps a protocol severity. A missing or unknown
// severity is treated as an error.
func severityFromProtocol(s protocol.DiagnosticSeverity) Severity {
	switch s {
	case protocol.DiagnosticSeverityWarning:
		return SeverityWarning
	case protocol.DiagnosticSeverityInformation:
		return SeverityInformation
	case protocol.DiagnosticSeverityHint:
		return SeverityHint
	}
	return SeverityError
}

// ToProtocol returns the protocol severity.
func (s Severity) ToProtocol() protocol.DiagnosticSeverity {
	return protocol.DiagnosticSeverity(s)
}

// SeverityCounts tallies diagnostics by severity.
type SeverityCounts struct {
	Errors   int
	Warnings int
	Infos    int
	Hints    int
}

// Add counts one diagnostic of severity s.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityError:
		c.Errors++
	case SeverityWarning:
		c.Warnings++
	case SeverityInformation:
		c.Infos++
	case SeverityHint:
		c.Hints++
	}
}

// Total returns the number of diagnostics counted.
func (c SeverityCounts) Total() int {
	return c.Errors + c.Warnings + c.Infos + c.Hints
}
