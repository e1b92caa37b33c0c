package resolver

import (
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// minReferenceName is the shortest class name that produces reference edges
const minReferenceName = 3

// importRule extracts specifiers from a file and maps one specifier to
// candidate paths in priority order. With linkAll every existing candidate is
// linked instead of only the first.
type importRule struct {
	pattern    *regexp.Regexp
	specifiers func(match []string) []string
	candidates func(r *run, from, spec string) []string
	linkAll    bool
}

// firstGroup returns the first capture group as the only specifier
func firstGroup(m []string) []string { return []string{m[1]} }

var rules = map[types.Language][]importRule{
	types.LanguagePython:     pythonRules,
	types.LanguageJavaScript: scriptRules,
	types.LanguageTypeScript: scriptRules,
	types.LanguageJava:       jvmRules,
	types.LanguageKotlin:     jvmRules,
	types.LanguageScala:      jvmRules,
	types.LanguageGroovy:     jvmRules,
	types.LanguageGo:         goRules,
	types.LanguageC:          includeRules,
	types.LanguageCPP:        includeRules,
	types.LanguageRuby:       rubyRules,
	types.LanguageRust:       rustRules,
}

// nonCode languages never produce reference edges
var nonCode = map[types.Language]bool{
	types.LanguageUnknown:  true,
	types.LanguageMarkdown: true,
	types.LanguageRST:      true,
	types.LanguageJSON:     true,
	types.LanguageYAML:     true,
	types.LanguageTOML:     true,
	types.LanguageXML:      true,
	types.LanguageINI:      true,
	types.LanguageConfig:   true,
	types.LanguageHTML:     true,
	types.LanguageCSS:      true,
	types.LanguageSCSS:     true,
	types.LanguageLess:     true,
	types.LanguageJupyter:  true,
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Stats reports the outcome of a resolution pass
type Stats struct {
	Imports    int
	References int
	Misses     int
}

// Resolver links graph nodes
type Resolver struct {
	logger *slog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used for resolution diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver
func New(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run holds per-pass lookup tables
type run struct {
	g       *graph.Graph
	modules []goModule
	goDirs  map[string][]string
}

// Resolve adds every resolvable import and reference edge to g. It must be
// called once, after all nodes have been added.
func (r *Resolver) Resolve(g *graph.Graph) Stats {
	var stats Stats
	state := newRun(g)

	for _, n := range g.Nodes() {
		for _, rule := range rules[n.Language] {
			for _, m := range rule.pattern.FindAllStringSubmatch(n.Content, -1) {
				for _, spec := range rule.specifiers(m) {
					spec = strings.TrimSpace(spec)
					if spec == "" {
						continue
					}
					targets := state.existing(rule.candidates(state, n.Path, spec), rule.linkAll)
					if len(targets) == 0 {
						stats.Misses++
						r.logger.Debug("unresolved import", "file", n.Path, "import", spec)
						continue
					}
					for _, target := range targets {
						if g.AddEdge(n.Path, target, graph.EdgeImports) {
							stats.Imports++
						}
					}
				}
			}
		}
	}

	stats.References = r.resolveReferences(g)

	r.logger.Debug("resolution complete",
		"imports", stats.Imports,
		"references", stats.References,
		"misses", stats.Misses)

	return stats
}

func newRun(g *graph.Graph) *run {
	state := &run{g: g, goDirs: make(map[string][]string)}
	for _, n := range g.Nodes() {
		if path.Base(n.Path) == "go.mod" {
			if mod := parseModulePath(n.Content); mod != "" {
				state.modules = append(state.modules, goModule{dir: dirOf(n.Path), path: mod})
			}
		}
		if n.Language == types.LanguageGo && !strings.HasSuffix(n.Path, "_test.go") {
			d := dirOf(n.Path)
			state.goDirs[d] = append(state.goDirs[d], n.Path)
		}
	}
	// Longest module path first so nested modules win
	sort.Slice(state.modules, func(i, j int) bool {
		return len(state.modules[i].path) > len(state.modules[j].path)
	})
	return state
}

// existing returns the candidates that are nodes, stopping at the first
// unless all is set
func (r *run) existing(candidates []string, all bool) []string {
	var found []string
	for _, c := range candidates {
		if _, ok := r.g.Node(c); ok {
			found = append(found, c)
			if !all {
				break
			}
		}
	}
	return found
}

// resolveReferences links files to the unique definer of each class name they
// mention
func (r *Resolver) resolveReferences(g *graph.Graph) int {
	definers := make(map[string][]string)
	for _, n := range g.Nodes() {
		for _, m := range n.Methods {
			if m.Kind == types.MethodClass && len(m.Name) >= minReferenceName {
				definers[m.Name] = appendUnique(definers[m.Name], n.Path)
			}
		}
	}

	count := 0
	for _, n := range g.Nodes() {
		if nonCode[n.Language] {
			continue
		}

		seen := make(map[string]bool)
		for _, id := range identifierPattern.FindAllString(n.Content, -1) {
			if seen[id] {
				continue
			}
			seen[id] = true

			paths := definers[id]
			if len(paths) != 1 || paths[0] == n.Path {
				continue
			}
			target := paths[0]
			if g.HasEdge(n.Path, target, graph.EdgeImports) {
				continue
			}
			if g.AddEdge(n.Path, target, graph.EdgeReferences) {
				count++
			}
		}
	}
	return count
}

// dirOf returns the directory of a repo-relative path, "" for the root
func dirOf(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// joinRel joins a repo-relative directory with a relative specifier. It
// reports false when the result would climb above the root.
func joinRel(dir, spec string) (string, bool) {
	var parts []string
	if dir != "" {
		parts = strings.Split(dir, "/")
	}
	for _, seg := range strings.Split(spec, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return "", false
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/"), true
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
