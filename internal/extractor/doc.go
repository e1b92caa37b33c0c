// Package extractor derives per-file structural and semantic features from
// source text.
//
// Extraction is heuristic: an ordered set of language-specific signature
// patterns locates functions, classes and methods, and a method body runs from
// its signature to the next signature match or end of file. There is no brace
// or indentation matching, so a signature-like string inside a body or comment
// truncates the method early.
//
// SyntaxExtractor is the alternative strategy: Go files are parsed with
// go/parser and methods get exact spans from the syntax tree. A Go file that
// does not parse, and every other language, falls back to the patterns.
//
// The Extractor interface isolates the strategy from graph resolution and
// ranking:
//
//	ext := extractor.NewPatternExtractor()
//	f := ext.Extract("app/db.py", content, types.LanguagePython)
//	fmt.Println(f.IsCoreFile, f.Purpose, len(f.Methods))
package extractor
