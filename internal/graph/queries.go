package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

const (
	// SearchContextLines is the number of lines shown around a search match
	SearchContextLines = 3

	codebaseUndocumented = "Purpose not explicitly documented in the codebase."
)

// Overview summarizes the whole codebase
type Overview struct {
	Generation   string                 `json:"generation"`
	BuiltAt      time.Time              `json:"built_at"`
	Root         string                 `json:"root"`
	TotalFiles   int                    `json:"total_files"`
	Languages    map[types.Language]int `json:"languages"`
	EntryPoints  []string               `json:"entry_points"`
	CoreFiles    []string               `json:"core_files"`
	Imports      int                    `json:"import_edges"`
	References   int                    `json:"reference_edges"`
	TotalMethods int                    `json:"total_methods"`
	Purpose      string                 `json:"purpose"`
	Summary      string                 `json:"summary"`
}

// Overview computes the codebase overview
func (g *Graph) Overview() Overview {
	ov := Overview{
		Generation:  g.Generation,
		BuiltAt:     g.BuiltAt,
		Root:        g.Root,
		TotalFiles:  len(g.nodes),
		Languages:   g.LanguageCounts(),
		EntryPoints: []string{},
		CoreFiles:   []string{},
	}

	nodes := g.Nodes()
	var entries, cores []*Node
	for _, n := range nodes {
		ov.Imports += len(n.Imports)
		ov.References += len(n.References)
		ov.TotalMethods += len(n.Methods)
		if n.IsEntryPoint {
			ov.EntryPoints = append(ov.EntryPoints, n.Path)
			entries = append(entries, n)
		}
		if n.IsCoreFile {
			ov.CoreFiles = append(ov.CoreFiles, n.Path)
			cores = append(cores, n)
		}
	}

	var (
		purposes []string
		seen     = make(map[string]bool)
	)
	for _, n := range append(append([]*Node{}, entries...), cores...) {
		if n.Purpose == types.PurposeUndocumented || seen[n.Purpose] {
			continue
		}
		seen[n.Purpose] = true
		purposes = append(purposes, n.Purpose)
	}
	ov.Purpose = codebaseUndocumented
	if len(purposes) > 0 {
		ov.Purpose = strings.Join(purposes, "\n\n")
	}

	ov.Summary = renderOverview(&ov, entries, cores)
	return ov
}

func renderOverview(ov *Overview, entries, cores []*Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Codebase Overview:\nTotal Files: %d\n\nFile Types:", ov.TotalFiles)

	langs := make([]string, 0, len(ov.Languages))
	for l := range ov.Languages {
		langs = append(langs, string(l))
	}
	sort.Strings(langs)
	for _, l := range langs {
		fmt.Fprintf(&b, "\n- %s: %d files", l, ov.Languages[types.Language(l)])
	}

	section := func(title string, nodes []*Node) {
		if len(nodes) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n\n%s:", title)
		for _, n := range nodes {
			fmt.Fprintf(&b, "\n- %s", n.Path)
			if n.Purpose != types.PurposeUndocumented {
				fmt.Fprintf(&b, "\n  Purpose: %s", n.Purpose)
			}
		}
	}
	section("Entry Points", entries)
	section("Core Components", cores)

	return b.String()
}

// SearchMatch is one line matching a search term
type SearchMatch struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Context    string `json:"context"`
}

// FileMatches groups the matches in one file
type FileMatches struct {
	Path    string        `json:"path"`
	Matches []SearchMatch `json:"matches"`
}

// Search finds lines containing term, case-insensitively. Results are
// ordered by path; each match carries SearchContextLines lines of context on
// either side.
func (g *Graph) Search(term string) []FileMatches {
	results := []FileMatches{}
	if term == "" {
		return results
	}
	needle := strings.ToLower(term)

	for _, n := range g.Nodes() {
		if !strings.Contains(strings.ToLower(n.Content), needle) {
			continue
		}

		lines := strings.Split(n.Content, "\n")
		var matches []SearchMatch
		for i, line := range lines {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			start := max(0, i-SearchContextLines)
			end := min(len(lines)-1, i+SearchContextLines)
			matches = append(matches, SearchMatch{
				LineNumber: i + 1,
				Line:       line,
				Context:    strings.Join(lines[start:end+1], "\n"),
			})
		}
		if len(matches) > 0 {
			results = append(results, FileMatches{Path: n.Path, Matches: matches})
		}
	}

	return results
}

// TreeEntry is a directory or file in the file structure tree
type TreeEntry struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Path     string         `json:"path"`
	Language types.Language `json:"language,omitempty"`
	Children []*TreeEntry   `json:"children,omitempty"`
}

// FileTree returns the indexed paths as a nested tree rooted at ".".
// Directories sort before files; entries within each group sort by name.
func (g *Graph) FileTree() *TreeEntry {
	root := &TreeEntry{Name: ".", Type: "directory", Path: "."}
	dirs := map[string]*TreeEntry{"": root}

	for _, n := range g.Nodes() {
		parts := strings.Split(n.Path, "/")
		parent := root
		prefix := ""
		for _, dir := range parts[:len(parts)-1] {
			if prefix == "" {
				prefix = dir
			} else {
				prefix = prefix + "/" + dir
			}
			entry, ok := dirs[prefix]
			if !ok {
				entry = &TreeEntry{Name: dir, Type: "directory", Path: prefix}
				dirs[prefix] = entry
				parent.Children = append(parent.Children, entry)
			}
			parent = entry
		}
		parent.Children = append(parent.Children, &TreeEntry{
			Name:     parts[len(parts)-1],
			Type:     "file",
			Path:     n.Path,
			Language: n.Language,
		})
	}

	sortTree(root)
	return root
}

func sortTree(e *TreeEntry) {
	sort.SliceStable(e.Children, func(i, j int) bool {
		a, b := e.Children[i], e.Children[j]
		if a.Type != b.Type {
			return a.Type == "directory"
		}
		return a.Name < b.Name
	})
	for _, c := range e.Children {
		if c.Type == "directory" {
			sortTree(c)
		}
	}
}
