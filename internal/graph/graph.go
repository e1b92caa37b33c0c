package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

// EdgeKind is the kind of a directed relationship between two files
type EdgeKind string

const (
	EdgeImports    EdgeKind = "imports"
	EdgeReferences EdgeKind = "references"
)

// Edge is a directed relationship from Source to Target
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
}

// Node is one indexed file and everything derived from it
type Node struct {
	Path        string
	Language    types.Language
	Content     string
	ContentHash string

	Methods         []types.Method
	Purpose         string
	Keywords        []string
	Features        []string
	IsEntryPoint    bool
	IsCoreFile      bool
	Summary         string
	DetailedSummary string

	// Adjacency sets, kept sorted
	Imports      []string
	ImportedBy   []string
	References   []string
	ReferencedBy []string
}

// HashContent returns the hex sha256 of content
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SummaryText returns the detailed summary when present, else the basic summary
func (n *Node) SummaryText() string {
	if n.DetailedSummary != "" {
		return n.DetailedSummary
	}
	return n.Summary
}

// Relationships returns copies of the four adjacency sets
func (n *Node) Relationships() types.Relationships {
	return types.Relationships{
		Imports:      cloneStrings(n.Imports),
		ImportedBy:   cloneStrings(n.ImportedBy),
		References:   cloneStrings(n.References),
		ReferencedBy: cloneStrings(n.ReferencedBy),
	}
}

// Neighbors returns the sorted union of all one-hop neighbours
func (n *Node) Neighbors() []string {
	set := make(map[string]bool)
	for _, list := range [][]string{n.Imports, n.ImportedBy, n.References, n.ReferencedBy} {
		for _, p := range list {
			set[p] = true
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Graph is the set of nodes and edges produced by one build
type Graph struct {
	Root       string
	Generation string
	BuiltAt    time.Time

	nodes map[string]*Node
	edges int
}

// New creates an empty graph with a fresh generation id
func New(root string) *Graph {
	return &Graph{
		Root:       root,
		Generation: uuid.NewString(),
		BuiltAt:    time.Now(),
		nodes:      make(map[string]*Node),
	}
}

// AddNode registers a node. Paths must be unique.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.Path == "" {
		return fmt.Errorf("node path cannot be empty")
	}
	if _, exists := g.nodes[n.Path]; exists {
		return fmt.Errorf("duplicate node path: %s", n.Path)
	}
	g.nodes[n.Path] = n
	return nil
}

// Node returns the node at path
func (g *Graph) Node(path string) (*Node, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// EdgeCount returns the number of directed edges
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Paths returns all node paths in ascending order
func (g *Graph) Paths() []string {
	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Nodes returns all nodes ordered by path
func (g *Graph) Nodes() []*Node {
	paths := g.Paths()
	nodes := make([]*Node, len(paths))
	for i, p := range paths {
		nodes[i] = g.nodes[p]
	}
	return nodes
}

// AddEdge records a directed edge and its reverse adjacency. It reports
// false, without modifying the graph, for self-edges, unknown endpoints and
// edges that already exist.
func (g *Graph) AddEdge(source, target string, kind EdgeKind) bool {
	if source == target {
		return false
	}
	src, ok := g.nodes[source]
	if !ok {
		return false
	}
	dst, ok := g.nodes[target]
	if !ok {
		return false
	}

	var forward, reverse *[]string
	switch kind {
	case EdgeImports:
		forward, reverse = &src.Imports, &dst.ImportedBy
	case EdgeReferences:
		forward, reverse = &src.References, &dst.ReferencedBy
	default:
		return false
	}

	if !insertSorted(forward, target) {
		return false
	}
	insertSorted(reverse, source)
	g.edges++
	return true
}

// HasEdge reports whether the directed edge exists
func (g *Graph) HasEdge(source, target string, kind EdgeKind) bool {
	src, ok := g.nodes[source]
	if !ok {
		return false
	}
	list := src.Imports
	if kind == EdgeReferences {
		list = src.References
	}
	i := sort.SearchStrings(list, target)
	return i < len(list) && list[i] == target
}

// Edges returns every edge ordered by source, kind, then target
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for _, n := range g.Nodes() {
		for _, t := range n.Imports {
			edges = append(edges, Edge{Source: n.Path, Target: t, Kind: EdgeImports})
		}
		for _, t := range n.References {
			edges = append(edges, Edge{Source: n.Path, Target: t, Kind: EdgeReferences})
		}
	}
	return edges
}

// Related returns the relationships of the file at path
func (g *Graph) Related(path string) (types.Relationships, error) {
	n, ok := g.nodes[path]
	if !ok {
		return types.Relationships{}, fmt.Errorf("%s: %w", path, types.ErrFileNotFound)
	}
	return n.Relationships(), nil
}

// LanguageCounts returns the number of nodes per language
func (g *Graph) LanguageCounts() map[types.Language]int {
	counts := make(map[types.Language]int)
	for _, n := range g.nodes {
		counts[n.Language]++
	}
	return counts
}

func insertSorted(list *[]string, value string) bool {
	i := sort.SearchStrings(*list, value)
	if i < len(*list) && (*list)[i] == value {
		return false
	}
	*list = append(*list, "")
	copy((*list)[i+1:], (*list)[i:])
	(*list)[i] = value
	return true
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
