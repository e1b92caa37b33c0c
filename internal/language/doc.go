// Package language classifies files for indexing.
//
// Classification is by lowercased file extension against a static table.
// Files with an unrecognized extension are tagged types.LanguageUnknown; they
// are still indexed but excluded from method and feature extraction.
//
// The package also owns the walk filters used by the indexer: the fixed set of
// ignored directory names, .gitignore rules, and binary detection by extension
// or content sniffing.
package language
