package resolver

import (
	"path"
	"regexp"
	"strings"
)

var pythonRules = []importRule{
	{
		pattern: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([^\n#;]+)`),
		specifiers: func(m []string) []string {
			var specs []string
			for _, part := range strings.Split(m[1], ",") {
				// "a.b as c" -> "a.b"
				if fields := strings.Fields(part); len(fields) > 0 {
					specs = append(specs, fields[0])
				}
			}
			return specs
		},
		candidates: func(_ *run, _ string, spec string) []string {
			return pythonModule(strings.ReplaceAll(spec, ".", "/"))
		},
	},
	{
		pattern: regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.*[\w.]*)[ \t]+import[ \t]+\(?([^\n)#]+)`),
		specifiers: func(m []string) []string {
			module := m[1]
			var specs []string
			for _, part := range strings.Split(m[2], ",") {
				fields := strings.Fields(strings.Trim(part, "() \t"))
				if len(fields) > 0 && fields[0] != "*" {
					specs = append(specs, module+" "+fields[0])
				}
			}
			if len(specs) == 0 {
				specs = append(specs, module+" ")
			}
			return specs
		},
		candidates: pythonFromCandidates,
	},
}

// pythonModule returns the module file then the package init for base
func pythonModule(base string) []string {
	if base == "" {
		return nil
	}
	return []string{base + ".py", base + "/__init__.py"}
}

// pythonFromCandidates resolves "module name" pairs from "from module import
// name". The module itself is preferred; a name that is a submodule is the
// fallback.
func pythonFromCandidates(_ *run, from, spec string) []string {
	module, name, _ := strings.Cut(spec, " ")

	dots := len(module) - len(strings.TrimLeft(module, "."))
	rest := strings.ReplaceAll(module[dots:], ".", "/")

	var base string
	if dots == 0 {
		base = rest
	} else {
		dir := dirOf(from)
		for i := 1; i < dots; i++ {
			if dir == "" {
				return nil
			}
			dir = dirOf(dir)
		}
		base = dir
		if rest != "" {
			if base == "" {
				base = rest
			} else {
				base = base + "/" + rest
			}
		}
	}

	var candidates []string
	if rest != "" {
		candidates = append(candidates, pythonModule(base)...)
	}
	if name != "" {
		sub := name
		if base != "" {
			sub = base + "/" + name
		}
		candidates = append(candidates, pythonModule(sub)...)
	}
	return candidates
}

var scriptExtensions = []string{".js", ".jsx", ".ts", ".tsx", ""}

func scriptCandidates(_ *run, from, spec string) []string {
	if !strings.HasPrefix(spec, ".") {
		return nil
	}
	base, ok := joinRel(dirOf(from), spec)
	if !ok {
		return nil
	}
	// "." from a root-level file names the root directory itself
	if base == "" {
		return []string{"index.js", "index.ts"}
	}

	candidates := make([]string, 0, len(scriptExtensions)+2)
	for _, ext := range scriptExtensions {
		candidates = append(candidates, base+ext)
	}
	return append(candidates, base+"/index.js", base+"/index.ts")
}

var scriptRules = []importRule{
	{
		pattern:    regexp.MustCompile(`\bimport\s+(?:[\w*{}\s,$]+?\s+from\s+)?["']([^"']+)["']`),
		specifiers: firstGroup,
		candidates: scriptCandidates,
	},
	{
		pattern:    regexp.MustCompile(`\bexport\s+(?:\*(?:\s+as\s+\w+)?|\{[^}]*\})\s+from\s+["']([^"']+)["']`),
		specifiers: firstGroup,
		candidates: scriptCandidates,
	},
	{
		pattern:    regexp.MustCompile(`\brequire\(\s*["']([^"']+)["']\s*\)`),
		specifiers: firstGroup,
		candidates: scriptCandidates,
	},
	{
		pattern:    regexp.MustCompile(`\bimport\(\s*["']([^"']+)["']\s*\)`),
		specifiers: firstGroup,
		candidates: scriptCandidates,
	},
}

// jvmSourceRoots are tried in order when mapping a package name to a path
var jvmSourceRoots = []string{"", "src/main/java/", "src/main/kotlin/", "src/"}

func jvmCandidates(_ *run, _ string, spec string) []string {
	if strings.HasSuffix(spec, ".*") {
		return nil
	}
	var candidates []string
	// A static import names a member; its owner is one segment up
	for _, s := range []string{spec, trimLastSegment(spec)} {
		if s == "" {
			continue
		}
		rel := strings.ReplaceAll(s, ".", "/")
		for _, root := range jvmSourceRoots {
			candidates = append(candidates, root+rel+".java", root+rel+".kt")
		}
	}
	return candidates
}

func trimLastSegment(spec string) string {
	i := strings.LastIndexByte(spec, '.')
	if i < 0 {
		return ""
	}
	return spec[:i]
}

var jvmRules = []importRule{
	{
		pattern:    regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(?:static[ \t]+)?(\w+(?:\.\w+)*(?:\.\*)?)`),
		specifiers: firstGroup,
		candidates: jvmCandidates,
	},
}

// goModule is a module declared by a go.mod in dir
type goModule struct {
	dir  string
	path string
}

var modulePattern = regexp.MustCompile(`(?m)^module\s+"?([^\s"]+)"?`)

func parseModulePath(gomod string) string {
	if m := modulePattern.FindStringSubmatch(gomod); m != nil {
		return m[1]
	}
	return ""
}

var goImportPath = regexp.MustCompile(`"([^"]+)"`)

// goCandidates maps an import path inside a local module to every non-test
// Go file of the package directory
func goCandidates(r *run, _ string, spec string) []string {
	for _, mod := range r.modules {
		if spec != mod.path && !strings.HasPrefix(spec, mod.path+"/") {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(spec, mod.path), "/")
		dir := mod.dir
		switch {
		case dir == "":
			dir = rel
		case rel != "":
			dir = dir + "/" + rel
		}
		return r.goDirs[dir]
	}
	return nil
}

var goRules = []importRule{
	{
		pattern:    regexp.MustCompile(`(?m)^import[ \t]+(?:[\w.]+[ \t]+)?"([^"]+)"`),
		specifiers: firstGroup,
		candidates: goCandidates,
		linkAll:    true,
	},
	{
		pattern: regexp.MustCompile(`(?ms)^import[ \t]*\((.*?)^\)`),
		specifiers: func(m []string) []string {
			var specs []string
			for _, im := range goImportPath.FindAllStringSubmatch(m[1], -1) {
				specs = append(specs, im[1])
			}
			return specs
		},
		candidates: goCandidates,
		linkAll:    true,
	},
}

var includeRules = []importRule{
	{
		pattern:    regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*"([^"]+)"`),
		specifiers: firstGroup,
		candidates: func(_ *run, from, spec string) []string {
			var candidates []string
			if rel, ok := joinRel(dirOf(from), spec); ok && rel != "" {
				candidates = append(candidates, rel)
			}
			if root, ok := joinRel("", spec); ok && root != "" {
				candidates = append(candidates, root)
			}
			return candidates
		},
	},
}

var rubyRules = []importRule{
	{
		pattern:    regexp.MustCompile(`\brequire_relative\s*\(?\s*["']([^"']+)["']`),
		specifiers: firstGroup,
		candidates: func(_ *run, from, spec string) []string {
			rel, ok := joinRel(dirOf(from), spec)
			if !ok || rel == "" {
				return nil
			}
			if strings.HasSuffix(rel, ".rb") {
				return []string{rel}
			}
			return []string{rel + ".rb", rel}
		},
	},
}

var rustRules = []importRule{
	{
		pattern:    regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?mod[ \t]+(\w+)[ \t]*;`),
		specifiers: firstGroup,
		candidates: func(_ *run, from, spec string) []string {
			// mod x; in lib.rs, main.rs or mod.rs lives beside the declaring
			// file, elsewhere in a directory named after it
			dir := dirOf(from)
			switch stem := strings.TrimSuffix(path.Base(from), ".rs"); stem {
			case "lib", "main", "mod":
			default:
				dir, _ = joinRel(dir, stem)
			}
			rel, _ := joinRel(dir, spec)
			return []string{rel + ".rs", rel + "/mod.rs"}
		},
	},
}
