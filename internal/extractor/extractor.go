package extractor

import (
	"fmt"
	"strings"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

const (
	// minPurposeDocLen is the length a doc comment must exceed to count toward purpose
	minPurposeDocLen = 20

	entryPointPurpose = "This is an entry point file that starts the application."
	coreFilePurpose   = "This file contains core functionality for the application."
)

// Features holds everything derived from a single file
type Features struct {
	Methods      []types.Method
	Purpose      string
	Keywords     []string
	Features     []string
	IsEntryPoint bool
	IsCoreFile   bool
	Summary      string
}

// Extractor derives features from file content
type Extractor interface {
	Extract(path, content string, lang types.Language) Features
}

// PatternExtractor extracts features with per-language regular expressions
type PatternExtractor struct{}

// NewPatternExtractor creates a new pattern-based extractor
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract derives features for path. Unknown languages yield an empty feature
// set with both flags false and an undocumented purpose.
func (e *PatternExtractor) Extract(path, content string, lang types.Language) Features {
	return extract(path, content, lang, func(p profile) []types.Method {
		return extractMethods(p, content)
	})
}

// extract runs every feature pass over content with methods located by find
func extract(path, content string, lang types.Language, find func(profile) []types.Method) Features {
	if !lang.Known() {
		f := Features{
			Keywords: []string{},
			Features: []string{},
			Purpose:  types.PurposeUndocumented,
		}
		f.Summary = fileSummary(path, lang, &f)
		return f
	}

	p := profileFor(lang)
	methods := find(p)

	f := Features{
		Methods:      methods,
		IsEntryPoint: isEntryPoint(path, content, lang),
		IsCoreFile:   isCoreFile(content),
	}

	fileDocText := fileDoc(p, content)
	f.Purpose = purpose(fileDocText, methods, f.IsEntryPoint, f.IsCoreFile)

	docs := docBlocks(p, content)
	names := make([]string, 0, len(methods))
	var functionNames []string
	for _, m := range methods {
		names = append(names, m.Name)
		if m.Kind != types.MethodClass {
			functionNames = append(functionNames, m.Name)
		}
	}

	f.Keywords = extractKeywords(docs, append(names, identifierNames(content)...), content)
	f.Features = extractFeatures(docs, functionNames, content)
	f.Summary = fileSummary(path, lang, &f)

	return f
}

// purpose joins the file doc and long method docstrings, falling back to a
// role sentence or the undocumented marker
func purpose(fileDocText string, methods []types.Method, entry, core bool) string {
	var (
		parts []string
		seen  = make(map[string]bool)
	)
	add := func(doc string) {
		if len(doc) > minPurposeDocLen && !seen[doc] {
			seen[doc] = true
			parts = append(parts, doc)
		}
	}

	add(fileDocText)
	for _, m := range methods {
		add(m.Docstring)
	}

	if len(parts) == 0 {
		if entry {
			parts = append(parts, entryPointPurpose)
		}
		if core {
			parts = append(parts, coreFilePurpose)
		}
	}

	if len(parts) == 0 {
		return types.PurposeUndocumented
	}
	return strings.Join(parts, "\n")
}

// Role returns the display role of a file
func Role(entry, core bool) string {
	switch {
	case entry:
		return "Entry Point"
	case core:
		return "Core File"
	default:
		return "Supporting File"
	}
}

func fileSummary(path string, lang types.Language, f *Features) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nType: %s\nRole: %s", path, lang, Role(f.IsEntryPoint, f.IsCoreFile))

	if f.Purpose != types.PurposeUndocumented {
		fmt.Fprintf(&b, "\nPurpose: %s", f.Purpose)
	}

	if len(f.Methods) > 0 {
		b.WriteString("\n\nKey Components:")
		for _, m := range f.Methods {
			fmt.Fprintf(&b, "\n- %s %s", m.Kind.Title(), m.Name)
			if len(m.Params) > 0 {
				fmt.Fprintf(&b, "\n  Parameters: %s", strings.Join(m.Params, ", "))
			}
			if m.Docstring != "" {
				fmt.Fprintf(&b, "\n  Purpose: %s", m.Docstring)
			}
		}
	}

	return b.String()
}
