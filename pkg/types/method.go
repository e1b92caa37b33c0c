package types

import (
	"strings"
)

// MethodKind represents the kind of a located code unit
type MethodKind string

const (
	MethodFunction MethodKind = "function"
	MethodClass    MethodKind = "class"
	MethodMethod   MethodKind = "method"
)

// PurposeUndocumented is the purpose text of a file with no usable documentation
const PurposeUndocumented = "Purpose not explicitly documented."

// Method represents a function, class or method found by signature matching
type Method struct {
	// Identification
	Name string
	Kind MethodKind

	// Location (1-based, inclusive)
	StartLine int
	EndLine   int

	// Content
	Params    []string
	Docstring string
	Body      string

	// Derived
	Summary         string
	DetailedSummary string
}

// Title returns the kind with an upper-case first letter, e.g. "Function"
func (k MethodKind) Title() string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SummaryText returns the detailed summary when present, else the basic summary
func (m *Method) SummaryText() string {
	if m.DetailedSummary != "" {
		return m.DetailedSummary
	}
	return m.Summary
}
