package extractor

import (
	"regexp"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

// docPosition controls where a method's doc comment is looked for
type docPosition int

const (
	docFollowing docPosition = iota // first block after the signature, then the block before it
	docPreceding                    // contiguous comment lines before the signature
)

// signatureRule locates one kind of definition. The pattern must contain a
// named group "name" and may contain "params" and "recv". When "recv" matches,
// the definition is reported as a method.
type signatureRule struct {
	kind    types.MethodKind
	pattern *regexp.Regexp
}

// profile is the set of extraction rules for a language
type profile struct {
	signatures  []signatureRule
	doc         docPosition
	lineComment []string
}

func rule(kind types.MethodKind, expr string) signatureRule {
	return signatureRule{kind: kind, pattern: regexp.MustCompile(expr)}
}

var (
	cFamilyComments = []string{"//"}
	hashComments    = []string{"#"}
)

var pythonProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+(?P<name>\w+)[ \t]*\((?P<params>[^)]*)\)[^:\n]*:`),
		rule(types.MethodClass, `(?m)^[ \t]*class[ \t]+(?P<name>\w+)[ \t]*(?:\((?P<params>[^)]*)\))?[ \t]*:`),
	},
	doc:         docFollowing,
	lineComment: hashComments,
}

var scriptProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `(?:async\s+)?function\s*\*?\s*(?P<name>\w+)\s*\((?P<params>[^)]*)\)[^{;\n]*\{`),
		rule(types.MethodFunction, `(?:const|let|var)\s+(?P<name>\w+)\s*=\s*(?:async\s+)?function\s*\((?P<params>[^)]*)\)\s*\{`),
		rule(types.MethodFunction, `(?:const|let|var)\s+(?P<name>\w+)\s*=\s*(?:async\s*)?\((?P<params>[^)]*)\)\s*(?::\s*[\w<>\[\]|, ]+)?\s*=>\s*\{`),
		rule(types.MethodClass, `(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(?P<name>\w+)[^{\n]*\{`),
		rule(types.MethodMethod, `(?m)^[ \t]*(?P<name>\w+)\s*:\s*(?:async\s+)?function\s*\((?P<params>[^)]*)\)\s*\{`),
		rule(types.MethodMethod, `(?m)^[ \t]*(?P<name>\w+)\s*:\s*(?:async\s*)?\((?P<params>[^)]*)\)\s*=>\s*\{`),
		rule(types.MethodMethod, `(?m)^[ \t]*(?:(?:public|private|protected|static|readonly|async)\s+)*(?P<name>\w+)\s*=\s*(?:async\s*)?\((?P<params>[^)]*)\)\s*=>\s*\{`),
		rule(types.MethodMethod, `(?m)^[ \t]+(?:(?:public|private|protected|static|async|get|set)\s+)*(?P<name>[A-Za-z_$][\w$]*)\s*\((?P<params>[^)]*)\)\s*(?::\s*[\w<>\[\]|, ]+)?\s*\{`),
	},
	doc:         docFollowing,
	lineComment: cFamilyComments,
}

var javaProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:(?:public|private|protected|abstract|final|static|sealed)\s+)*(?:class|interface|enum|record)\s+(?P<name>\w+)[^{;\n]*\{`),
		rule(types.MethodMethod, `(?m)^[ \t]*(?:@\w+(?:\([^)]*\))?\s+)*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)+[\w<>\[\]?,. ]+\s+(?P<name>\w+)\s*\((?P<params>[^)]*)\)\s*(?:throws\s+[\w., ]+)?\s*\{`),
	},
	doc:         docFollowing,
	lineComment: cFamilyComments,
}

var kotlinProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:(?:data|sealed|abstract|open|enum|inner|private|internal)\s+)*(?:class|interface|object)\s+(?P<name>\w+)`),
		rule(types.MethodFunction, `(?:(?:private|public|internal|protected|override|suspend|inline|open)\s+)*fun\s+(?:<[^>]*>\s*)?(?:\w+\.)?(?P<name>\w+)\s*\((?P<params>[^)]*)\)`),
	},
	doc:         docFollowing,
	lineComment: cFamilyComments,
}

var scalaProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:case\s+)?(?:class|object|trait)\s+(?P<name>\w+)`),
		rule(types.MethodFunction, `def\s+(?P<name>\w+)\s*(?:\[[^\]]*\])?\s*(?:\((?P<params>[^)]*)\))?`),
	},
	doc:         docFollowing,
	lineComment: cFamilyComments,
}

var groovyProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:class|interface|trait)\s+(?P<name>\w+)[^{\n]*\{`),
		rule(types.MethodFunction, `def\s+(?P<name>\w+)\s*\((?P<params>[^)]*)\)\s*\{`),
	},
	doc:         docFollowing,
	lineComment: cFamilyComments,
}

var cProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?m)^[ \t]*(?:typedef\s+)?(?:class|struct)\s+(?P<name>\w+)[^;{\n]*\{`),
		rule(types.MethodFunction, `(?m)^[\w*&:<>, \t]*?[\w*&>]+[ \t*&]+(?P<name>[A-Za-z_][\w:~]*)\s*\((?P<params>[^)]*)\)\s*(?:const\s*)?\{`),
	},
	doc:         docFollowing,
	lineComment: cFamilyComments,
}

var csharpProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:(?:public|private|protected|internal|abstract|sealed|static|partial)\s+)*(?:class|interface|struct|record|enum)\s+(?P<name>\w+)[^{;\n]*`),
		rule(types.MethodMethod, `(?m)^[ \t]*(?:(?:public|private|protected|internal|static|virtual|override|abstract|async|sealed)\s+)+[\w<>\[\]?,. ]+\s+(?P<name>\w+)\s*\((?P<params>[^)]*)\)\s*\{`),
	},
	doc:         docFollowing,
	lineComment: []string{"///", "//"},
}

var rubyProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?m)^[ \t]*(?:class|module)\s+(?P<name>[A-Z]\w*)`),
		rule(types.MethodMethod, `(?m)^[ \t]*def\s+(?:self\.)?(?P<name>\w+[?!=]?)\s*(?:\((?P<params>[^)]*)\))?`),
	},
	doc:         docPreceding,
	lineComment: hashComments,
}

var phpProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:(?:abstract|final)\s+)?(?:class|interface|trait)\s+(?P<name>\w+)[^{\n]*`),
		rule(types.MethodFunction, `(?:(?:public|private|protected|static|final|abstract)\s+)*function\s+(?P<name>\w+)\s*\((?P<params>[^)]*)\)`),
	},
	doc:         docFollowing,
	lineComment: []string{"//", "#"},
}

var goProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `(?m)^func\s+(?:\((?P<recv>[^)]*)\)\s*)?(?P<name>\w+)\s*(?:\[[^\]]*\])?\((?P<params>[^)]*)\)`),
		rule(types.MethodClass, `(?m)^type\s+(?P<name>\w+)(?:\[[^\]]*\])?\s+(?:struct|interface)\s*\{`),
	},
	doc:         docPreceding,
	lineComment: []string{"//"},
}

var rustProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(?P<name>\w+)\s*(?:<[^>]*>)?\s*\((?P<params>[^)]*)\)`),
		rule(types.MethodClass, `(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+(?P<name>\w+)`),
	},
	doc:         docPreceding,
	lineComment: []string{"///", "//!", "//"},
}

var swiftProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:(?:public|private|internal|open|final)\s+)*(?:class|struct|protocol|enum|extension)\s+(?P<name>\w+)`),
		rule(types.MethodFunction, `(?:(?:public|private|internal|open|static|override|mutating)\s+)*func\s+(?P<name>\w+)\s*(?:<[^>]*>)?\s*\((?P<params>[^)]*)\)`),
	},
	doc:         docPreceding,
	lineComment: []string{"///", "//"},
}

var dartProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `(?:abstract\s+)?(?:class|mixin)\s+(?P<name>\w+)[^{\n]*\{`),
		rule(types.MethodFunction, `(?m)^[ \t]*(?:static\s+)?(?:Future<[^>]*>|[\w<>?]+)\s+(?P<name>\w+)\s*\((?P<params>[^)]*)\)\s*(?:async\s*)?\{`),
	},
	doc:         docPreceding,
	lineComment: []string{"///", "//"},
}

var elixirProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodClass, `defmodule\s+(?P<name>[\w.]+)`),
		rule(types.MethodFunction, `defp?\s+(?P<name>\w+[?!]?)\s*(?:\((?P<params>[^)]*)\))?`),
	},
	doc:         docFollowing,
	lineComment: hashComments,
}

var luaProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `(?:local\s+)?function\s+(?P<name>[\w.:]+)\s*\((?P<params>[^)]*)\)`),
	},
	doc:         docPreceding,
	lineComment: []string{"--"},
}

var perlProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `sub\s+(?P<name>\w+)`),
		rule(types.MethodClass, `package\s+(?P<name>[\w:]+)\s*;`),
	},
	doc:         docPreceding,
	lineComment: hashComments,
}

var shellProfile = profile{
	signatures: []signatureRule{
		rule(types.MethodFunction, `(?m)^[ \t]*(?:function\s+)?(?P<name>[\w-]+)\s*\(\)\s*\{`),
		rule(types.MethodFunction, `(?m)^[ \t]*function\s+(?P<name>[\w-]+)\s*\{`),
	},
	doc:         docPreceding,
	lineComment: hashComments,
}

// profiles maps each language with signature rules to its profile. Known
// languages without an entry still get purpose, keywords and features from
// generic comment syntax but no methods.
var profiles = map[types.Language]profile{
	types.LanguagePython:     pythonProfile,
	types.LanguageJavaScript: scriptProfile,
	types.LanguageTypeScript: scriptProfile,
	types.LanguageJava:       javaProfile,
	types.LanguageKotlin:     kotlinProfile,
	types.LanguageScala:      scalaProfile,
	types.LanguageGroovy:     groovyProfile,
	types.LanguageC:          cProfile,
	types.LanguageCPP:        cProfile,
	types.LanguageCSharp:     csharpProfile,
	types.LanguageRuby:       rubyProfile,
	types.LanguagePHP:        phpProfile,
	types.LanguageGo:         goProfile,
	types.LanguageRust:       rustProfile,
	types.LanguageSwift:      swiftProfile,
	types.LanguageDart:       dartProfile,
	types.LanguageElixir:     elixirProfile,
	types.LanguageLua:        luaProfile,
	types.LanguagePerl:       perlProfile,
	types.LanguageBash:       shellProfile,
	types.LanguageZsh:        shellProfile,
}

var genericProfile = profile{
	doc:         docFollowing,
	lineComment: []string{"//", "#"},
}

func profileFor(lang types.Language) profile {
	if p, ok := profiles[lang]; ok {
		return p
	}
	return genericProfile
}
