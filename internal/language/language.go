package language

import (
	"path/filepath"
	"strings"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

var extensions = map[string]types.Language{
	".js":       types.LanguageJavaScript,
	".jsx":      types.LanguageJavaScript,
	".mjs":      types.LanguageJavaScript,
	".cjs":      types.LanguageJavaScript,
	".ts":       types.LanguageTypeScript,
	".tsx":      types.LanguageTypeScript,
	".py":       types.LanguagePython,
	".java":     types.LanguageJava,
	".kt":       types.LanguageKotlin,
	".kts":      types.LanguageKotlin,
	".scala":    types.LanguageScala,
	".groovy":   types.LanguageGroovy,
	".c":        types.LanguageC,
	".h":        types.LanguageC,
	".cpp":      types.LanguageCPP,
	".cc":       types.LanguageCPP,
	".cxx":      types.LanguageCPP,
	".hpp":      types.LanguageCPP,
	".cs":       types.LanguageCSharp,
	".rb":       types.LanguageRuby,
	".erb":      types.LanguageRuby,
	".php":      types.LanguagePHP,
	".go":       types.LanguageGo,
	".rs":       types.LanguageRust,
	".swift":    types.LanguageSwift,
	".html":     types.LanguageHTML,
	".htm":      types.LanguageHTML,
	".css":      types.LanguageCSS,
	".scss":     types.LanguageSCSS,
	".sass":     types.LanguageSCSS,
	".less":     types.LanguageLess,
	".ipynb":    types.LanguageJupyter,
	".md":       types.LanguageMarkdown,
	".markdown": types.LanguageMarkdown,
	".rst":      types.LanguageRST,
	".json":     types.LanguageJSON,
	".yaml":     types.LanguageYAML,
	".yml":      types.LanguageYAML,
	".toml":     types.LanguageTOML,
	".xml":      types.LanguageXML,
	".ini":      types.LanguageINI,
	".conf":     types.LanguageConfig,
	".cfg":      types.LanguageConfig,
	".sh":       types.LanguageBash,
	".bash":     types.LanguageBash,
	".zsh":      types.LanguageZsh,
	".fish":     types.LanguageFish,
	".bat":      types.LanguageBatch,
	".cmd":      types.LanguageBatch,
	".ps1":      types.LanguagePowerShell,
	".sql":      types.LanguageSQL,
	".graphql":  types.LanguageGraphQL,
	".gql":      types.LanguageGraphQL,
	".r":        types.LanguageR,
	".dart":     types.LanguageDart,
	".hs":       types.LanguageHaskell,
	".ex":       types.LanguageElixir,
	".exs":      types.LanguageElixir,
	".elm":      types.LanguageElm,
	".clj":      types.LanguageClojure,
	".fs":       types.LanguageFSharp,
	".pl":       types.LanguagePerl,
	".lua":      types.LanguageLua,
}

// Detect returns the language tag for path based on its extension
func Detect(path string) types.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensions[ext]; ok {
		return lang
	}
	return types.LanguageUnknown
}

// Supported returns every language the classifier can produce, excluding unknown
func Supported() []types.Language {
	seen := make(map[types.Language]bool, len(extensions))
	var langs []types.Language
	for _, lang := range extensions {
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs
}
