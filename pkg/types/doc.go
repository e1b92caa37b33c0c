// Package types provides shared type definitions for the CodeGraph MCP server.
//
// This package defines domain types used across multiple components of CodeGraph,
// including language tags, extracted methods, relevance results and the error
// kinds surfaced by indexing and ranking.
//
// # Core Types
//
// Language is a closed set of tags produced by the language classifier:
//
//	lang := types.LanguagePython
//	if lang.Known() {
//	    // eligible for method and feature extraction
//	}
//
// Method represents a function, class or method located by the heuristic
// signature patterns of the feature extractor:
//
//	m := types.Method{
//	    Name:      "load_config",
//	    Kind:      types.MethodFunction,
//	    StartLine: 12,
//	    EndLine:   30,
//	    Params:    []string{"path"},
//	}
//
// # Relevance Results
//
// RelevanceResult carries the ordered, graph-expanded file set returned by the
// ranker together with a per-file score breakdown and an enriched FileView:
//
//	for _, path := range result.Paths {
//	    view := result.Files[path]
//	    fmt.Println(path, result.Scores[path].Composite, len(view.Methods))
//	}
//
// # Errors
//
// Error kinds are sentinel values tested with errors.Is:
//
//	if errors.Is(err, types.ErrNotIndexed) {
//	    // build the graph first
//	}
package types
