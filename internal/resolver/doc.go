// Package resolver links the nodes of a graph with import and reference
// edges.
//
// Resolution runs once, after every node of a build exists. Import
// statements are found with per-language patterns and mapped to candidate
// repo-relative paths; the first candidate that is a node in the graph wins.
// Specifiers that resolve to nothing (third-party packages, the standard
// library, generated files) are dropped silently.
//
// Supported idioms:
//
//	Python       import a.b / from a.b import c / from .x import y
//	Java, Kotlin import a.b.C (also under src/main/java, src/main/kotlin, src)
//	JS, TS       import ... from './x' / require('./x') / import('./x')
//	Go           imports under the module path declared in go.mod
//	C, C++       #include "x.h"
//	Ruby         require_relative 'x'
//	Rust         mod x;
//
// A reference edge is added when a file mentions, as a whole identifier, a
// class name defined in exactly one other file that it does not import.
package resolver
