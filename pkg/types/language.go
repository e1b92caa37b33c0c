package types

// Language is a language tag assigned by the classifier
type Language string

const (
	LanguageUnknown    Language = "unknown"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageKotlin     Language = "kotlin"
	LanguageScala      Language = "scala"
	LanguageGroovy     Language = "groovy"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageRuby       Language = "ruby"
	LanguagePHP        Language = "php"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
	LanguageSwift      Language = "swift"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageSCSS       Language = "scss"
	LanguageLess       Language = "less"
	LanguageJupyter    Language = "jupyter"
	LanguageMarkdown   Language = "markdown"
	LanguageRST        Language = "restructuredtext"
	LanguageJSON       Language = "json"
	LanguageYAML       Language = "yaml"
	LanguageTOML       Language = "toml"
	LanguageXML        Language = "xml"
	LanguageINI        Language = "ini"
	LanguageConfig     Language = "config"
	LanguageBash       Language = "bash"
	LanguageZsh        Language = "zsh"
	LanguageFish       Language = "fish"
	LanguageBatch      Language = "batch"
	LanguagePowerShell Language = "powershell"
	LanguageSQL        Language = "sql"
	LanguageGraphQL    Language = "graphql"
	LanguageR          Language = "r"
	LanguageDart       Language = "dart"
	LanguageHaskell    Language = "haskell"
	LanguageElixir     Language = "elixir"
	LanguageElm        Language = "elm"
	LanguageClojure    Language = "clojure"
	LanguageFSharp     Language = "fsharp"
	LanguagePerl       Language = "perl"
	LanguageLua        Language = "lua"
)

// Known reports whether the language is anything other than unknown
func (l Language) Known() bool {
	return l != "" && l != LanguageUnknown
}

// String returns the language tag
func (l Language) String() string {
	if l == "" {
		return string(LanguageUnknown)
	}
	return string(l)
}
