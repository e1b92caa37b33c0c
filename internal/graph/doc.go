// Package graph holds the codebase relationship graph.
//
// A Graph is an explicit value built once per indexing run: every file is a
// Node keyed by its repo-relative path, and directed import and reference
// edges are stored as symmetric adjacency sets on both endpoints. Edges are
// only ever added through AddEdge, which rejects self-edges and dangling
// endpoints and records the forward and reverse direction together.
//
// Once published, a Graph is treated as immutable. The indexer swaps the
// active graph pointer instead of mutating a live graph, so readers always
// observe one consistent snapshot.
package graph
