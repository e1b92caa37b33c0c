package extractor

import (
	"path"
	"regexp"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

var entryPointPatterns = []*regexp.Regexp{
	// main guards
	regexp.MustCompile(`(?m)^\s*if\s+__name__\s*==\s*["']__main__["']\s*:`),
	regexp.MustCompile(`(?i)\bstatic\s+(?:async\s+)?(?:void|int|Task(?:<int>)?)\s+main\s*\(`),
	regexp.MustCompile(`(?m)^\s*(?:suspend\s+)?fun\s+main\s*\(`),
	regexp.MustCompile(`(?m)^\s*(?:async\s+)?fn\s+main\s*\(`),
	regexp.MustCompile(`(?m)^\s*int\s+main\s*\(`),

	// framework bootstrap calls
	regexp.MustCompile(`\bapp\.run\s*\(`),
	regexp.MustCompile(`\bapp\.listen\s*\(`),
	regexp.MustCompile(`\buvicorn\.run\s*\(`),
	regexp.MustCompile(`\bSpringApplication\.run\s*\(`),
	regexp.MustCompile(`\bReactDOM\.render\s*\(`),
	regexp.MustCompile(`\bcreateRoot\s*\(`),
	regexp.MustCompile(`\bhttp\.ListenAndServe(?:TLS)?\s*\(`),
}

var (
	goMainPackage = regexp.MustCompile(`(?m)^package\s+main\b`)
	goMainFunc    = regexp.MustCompile(`(?m)^func\s+main\s*\(\s*\)`)

	corePattern = regexp.MustCompile(`\b(?:class|struct|interface|trait|object|type)\s+\w*(?:Manager|Service|Handler|Controller|Processor|Engine|Client|Server)\b`)
)

var indexFilenames = map[string]bool{
	"index.js":    true,
	"index.ts":    true,
	"index.jsx":   true,
	"index.tsx":   true,
	"index.html":  true,
	"__main__.py": true,
}

// isEntryPoint reports whether the file starts an application
func isEntryPoint(filePath, content string, lang types.Language) bool {
	if indexFilenames[path.Base(filePath)] {
		return true
	}
	if lang == types.LanguageGo && goMainPackage.MatchString(content) && goMainFunc.MatchString(content) {
		return true
	}
	for _, p := range entryPointPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// isCoreFile reports whether the file declares a type named like a central
// component
func isCoreFile(content string) bool {
	return corePattern.MatchString(content)
}
