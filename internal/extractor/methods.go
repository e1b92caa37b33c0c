package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

// maxReturns caps the return expressions listed in a method summary
const maxReturns = 3

// reservedNames are control keywords that loose signature patterns can
// mistake for a definition name, e.g. "} else if (x) {"
var reservedNames = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true, "function": true, "do": true, "try": true,
	"with": true, "sizeof": true, "new": true, "typeof": true, "elif": true,
	"until": true, "unless": true, "foreach": true, "synchronized": true,
}

var returnPattern = regexp.MustCompile(`\breturn\s+([^\n;]+)`)

// signatureMatch is one raw hit of a signature rule
type signatureMatch struct {
	start, end int
	kind       types.MethodKind
	name       string
	params     string
}

// findSignatures runs every rule of p over content and returns the
// non-overlapping matches ordered by offset
func findSignatures(p profile, content string) []signatureMatch {
	var matches []signatureMatch

	for _, r := range p.signatures {
		nameIdx := r.pattern.SubexpIndex("name")
		paramsIdx := r.pattern.SubexpIndex("params")
		recvIdx := r.pattern.SubexpIndex("recv")

		for _, loc := range r.pattern.FindAllStringSubmatchIndex(content, -1) {
			name := group(content, loc, nameIdx)
			if name == "" || reservedNames[name] {
				continue
			}

			kind := r.kind
			if recvIdx >= 0 && loc[2*recvIdx] >= 0 {
				kind = types.MethodMethod
			}

			matches = append(matches, signatureMatch{
				start:  loc[0],
				end:    loc[1],
				kind:   kind,
				name:   name,
				params: group(content, loc, paramsIdx),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	// Drop matches overlapping an earlier kept match
	kept := matches[:0]
	lastEnd := -1
	for _, m := range matches {
		if m.start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.end
	}
	return kept
}

func group(s string, loc []int, idx int) string {
	if idx < 0 || 2*idx+1 >= len(loc) || loc[2*idx] < 0 {
		return ""
	}
	return s[loc[2*idx]:loc[2*idx+1]]
}

// extractMethods locates methods and fills their spans, parameters,
// docstrings and basic summaries
func extractMethods(p profile, content string) []types.Method {
	sigs := findSignatures(p, content)
	if len(sigs) == 0 {
		return nil
	}

	lines := newLineIndex(content)
	methods := make([]types.Method, 0, len(sigs))

	for i, sig := range sigs {
		bodyEnd := len(content)
		if i+1 < len(sigs) {
			bodyEnd = sigs[i+1].start
		}

		body := strings.TrimRight(content[sig.start:bodyEnd], " \t\r\n")
		m := types.Method{
			Name:      sig.name,
			Kind:      sig.kind,
			StartLine: lines.lineAt(sig.start),
			EndLine:   lines.lineAt(sig.start + max(len(body)-1, 0)),
			Params:    splitParams(sig.params),
			Docstring: docstringFor(p, content, sig),
			Body:      body,
		}
		m.Summary = methodSummary(&m, content[sig.end:bodyEnd])
		methods = append(methods, m)
	}

	return methods
}

// splitParams splits a parameter list on top-level commas
func splitParams(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var (
		params []string
		depth  int
		start  int
	)
	flush := func(end int) {
		p := strings.Join(strings.Fields(raw[start:end]), " ")
		switch p {
		case "", "self", "cls", "&self", "&mut self", "mut self", "void":
			return
		}
		params = append(params, p)
	}

	for i, r := range raw {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(raw))

	return params
}

// methodSummary renders the basic summary of a method:
//
//	Function load_config
//	Purpose: Load the configuration file.
//	Parameters: path
//	Returns: cfg
func methodSummary(m *types.Method, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", m.Kind.Title(), m.Name)

	if m.Docstring != "" {
		fmt.Fprintf(&b, "\nPurpose: %s", m.Docstring)
	}
	if len(m.Params) > 0 {
		fmt.Fprintf(&b, "\nParameters: %s", strings.Join(m.Params, ", "))
	}
	if returns := returnExpressions(body); len(returns) > 0 {
		fmt.Fprintf(&b, "\nReturns: %s", strings.Join(returns, ", "))
	}

	return b.String()
}

func returnExpressions(body string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, m := range returnPattern.FindAllStringSubmatch(body, -1) {
		expr := strings.TrimSpace(m[1])
		if expr == "" || seen[expr] {
			continue
		}
		seen[expr] = true
		out = append(out, expr)
		if len(out) == maxReturns {
			break
		}
	}
	return out
}

// lineIndex maps byte offsets to 1-based line numbers
type lineIndex []int

func newLineIndex(content string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) lineAt(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}
