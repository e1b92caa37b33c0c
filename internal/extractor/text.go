package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	minKeywordLen    = 3
	minLiteralLen    = 4
	maxLiteralLen    = 80
	minFeatureLen    = 6
	maxFeatureWords  = 8
	minIdentifierLen = 2
)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "has": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true, "his": true,
	"how": true, "its": true, "may": true, "new": true, "now": true, "old": true,
	"see": true, "two": true, "way": true, "who": true, "did": true, "get": true,
	"let": true, "put": true, "say": true, "she": true, "too": true, "use": true,
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"will": true, "your": true, "into": true, "than": true, "then": true,
	"them": true, "they": true, "were": true, "been": true, "when": true,
	"what": true, "which": true, "their": true, "there": true, "these": true,
	"those": true, "would": true, "could": true, "should": true, "about": true,
	"also": true, "only": true, "some": true, "such": true, "each": true,
	"other": true, "more": true, "most": true, "very": true, "just": true,
	"over": true, "does": true, "here": true, "where": true, "while": true,
	"returns": true, "return": true, "param": true, "params": true,
	"args": true, "todo": true, "fixme": true, "self": true, "none": true,
	"null": true, "true": true, "false": true, "nil": true,
}

var (
	wordPattern    = regexp.MustCompile(`[A-Za-z]+`)
	declPattern    = regexp.MustCompile(`\b(?:const|let|var|val)\s+(\w+)`)
	literalPattern = regexp.MustCompile(`\b\w+\s*[:=]\s*["']([^"'\n]+)["']`)

	verbPattern = regexp.MustCompile(`(?i)\b(provides?|handles?|process(?:es)?|manages?|creates?|generates?|validates?|uploads?|downloads?|stores?|retrieves?|quer(?:y|ies)|search(?:es)?|filters?|sorts?|analy[sz]es?)\s*:?\s+([^.!?\n]+)`)
)

// routeRule turns a route registration idiom into (verb, path)
type routeRule struct {
	pattern *regexp.Regexp
	verb    func(m []string) []string
	path    int
}

func fixedVerb(idx int) func([]string) []string {
	return func(m []string) []string { return []string{strings.ToUpper(m[idx])} }
}

var routeRules = []routeRule{
	// Flask: @app.route("/x", methods=["GET", "POST"])
	{
		pattern: regexp.MustCompile(`@\w+\.route\(\s*["']([^"']+)["'](?:[^)]*methods\s*=\s*[\[(]([^\])]*)[\])])?`),
		path:    1,
		verb: func(m []string) []string {
			if m[2] == "" {
				return []string{"GET"}
			}
			var verbs []string
			for _, v := range strings.Split(m[2], ",") {
				v = strings.Trim(strings.TrimSpace(v), `"'`)
				if v != "" {
					verbs = append(verbs, strings.ToUpper(v))
				}
			}
			return verbs
		},
	},
	// FastAPI, Express, gin, echo: app.get("/x"), router.post("/x"), r.GET("/x")
	{
		pattern: regexp.MustCompile("\\.((?i:get|post|put|delete|patch|head|options))\\(\\s*[\"'`](/[^\"'`]*)[\"'`]"),
		path:    2,
		verb:    fixedVerb(1),
	},
	// NestJS: @Get("users")
	{
		pattern: regexp.MustCompile(`@(Get|Post|Put|Delete|Patch|Head|Options)\(\s*(?:["']([^"']*)["'])?\s*\)`),
		path:    2,
		verb:    fixedVerb(1),
	},
	// Spring: @GetMapping("/x"), @RequestMapping(value = "/x")
	{
		pattern: regexp.MustCompile(`@(Get|Post|Put|Delete|Patch|Request)Mapping\(\s*(?:(?:value|path)\s*=\s*)?\{?\s*"([^"]*)"`),
		path:    2,
		verb: func(m []string) []string {
			if m[1] == "Request" {
				return []string{"ANY"}
			}
			return []string{strings.ToUpper(m[1])}
		},
	},
	// net/http: http.HandleFunc("/x", h), mux.Handle("GET /x", h)
	{
		pattern: regexp.MustCompile(`\.Handle(?:Func)?\(\s*"((?:[A-Z]+\s+)?/[^"]*)"`),
		path:    1,
		verb: func(m []string) []string {
			if verb, _, ok := strings.Cut(m[1], " "); ok {
				return []string{verb}
			}
			return []string{"ANY"}
		},
	},
}

// splitIdentifier decomposes camelCase, PascalCase and snake_case names into
// lowercase words. Acronyms stay whole: "parseHTTPRequest" gives
// parse, http, request.
func splitIdentifier(name string) []string {
	var words []string
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(part)
		start := 0
		for i := 1; i < len(runes); i++ {
			prev, cur := runes[i-1], runes[i]
			boundary := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
				unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if boundary {
				words = append(words, strings.ToLower(string(runes[start:i])))
				start = i
			}
		}
		words = append(words, strings.ToLower(string(runes[start:])))
	}
	return words
}

// extractKeywords collects doc-comment words, decomposed identifiers and
// string-literal assignment values
func extractKeywords(docs []string, identifiers []string, content string) []string {
	set := make(map[string]bool)

	for _, doc := range docs {
		for _, w := range wordPattern.FindAllString(doc, -1) {
			w = strings.ToLower(w)
			if len(w) >= minKeywordLen && !stopwords[w] {
				set[w] = true
			}
		}
	}

	for _, id := range identifiers {
		for _, w := range splitIdentifier(id) {
			if len(w) >= minKeywordLen && !stopwords[w] {
				set[w] = true
			}
		}
	}

	for _, m := range literalPattern.FindAllStringSubmatch(content, -1) {
		v := strings.ToLower(strings.TrimSpace(m[1]))
		if len(v) >= minLiteralLen && len(v) <= maxLiteralLen {
			set[v] = true
		}
	}

	return sortedKeys(set)
}

// extractFeatures collects verb phrases from comments, multi-word identifier
// phrases and route registrations
func extractFeatures(docs []string, functionNames []string, content string) []string {
	set := make(map[string]bool)

	for _, doc := range docs {
		for _, m := range verbPattern.FindAllStringSubmatch(doc, -1) {
			phrase := strings.ToLower(m[1]) + " " + strings.TrimSpace(m[2])
			words := strings.Fields(phrase)
			if len(words) > maxFeatureWords {
				words = words[:maxFeatureWords]
			}
			phrase = strings.Join(words, " ")
			if len(phrase) >= minFeatureLen && len(words) > 1 {
				set[phrase] = true
			}
		}
	}

	for _, name := range functionNames {
		words := splitIdentifier(name)
		if len(words) < minIdentifierLen {
			continue
		}
		set[strings.Join(words, " ")] = true
	}

	for _, r := range routeRules {
		for _, m := range r.pattern.FindAllStringSubmatch(content, -1) {
			path := m[r.path]
			if _, p, ok := strings.Cut(path, " "); ok {
				path = p
			}
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			for _, verb := range r.verb(m) {
				set[fmt.Sprintf("provides %s endpoint at %s", verb, path)] = true
			}
		}
	}

	return sortedKeys(set)
}

// identifierNames returns declared constant and variable names
func identifierNames(content string) []string {
	var names []string
	for _, m := range declPattern.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}
	return names
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
