// Package mcp implements the Model Context Protocol (MCP) server for codegraph.
//
// The server exposes seven tools to AI coding assistants:
//   - index_codebase: Build the relationship graph of a source tree
//   - find_relevant_files: Rank files against a natural-language question
//   - get_related_files: Imports, importers and references of one file
//   - get_indexing_status: Progress of the current or last build
//   - get_codebase_overview: Languages, entry points and core files
//   - search_codebase: Case-insensitive text search with context
//   - get_file_structure: Directory tree of the indexed files
//
// # Protocol Overview
//
// MCP is JSON-RPC 2.0 over stdio. The server is started by the serve command:
//
//	codegraph serve
//
// It reads requests from stdin and writes responses to stdout. Logs go to
// stderr so they never corrupt the protocol stream.
//
// # Tool: index_codebase
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {"path": "/path/to/project", "wait": true}
//	}
//
// With wait the response is the final build status. Without it the build
// runs in the background and get_indexing_status reports its progress.
// Starting a build cancels any build still running; the previous graph keeps
// answering queries until the new one is published.
//
// # Tool: find_relevant_files
//
//	Request:
//	{
//	  "name": "find_relevant_files",
//	  "arguments": {"query": "where are sessions persisted", "max_files": 5}
//	}
//
//	Response:
//	{
//	  "query": "where are sessions persisted",
//	  "max_files": 5,
//	  "paths": ["store.py", "app.py"],
//	  "seeds": ["store.py"],
//	  "scores": {"store.py": {"composite": 0.61, ...}},
//	  "files": {"store.py": {"path": "store.py", "methods": [...], ...}}
//	}
//
// The top max_files files by composite score seed the result, which is then
// expanded with their direct neighbours up to twice max_files.
//
// # Error Handling
//
// Errors are returned as MCPError values carrying a JSON-RPC code:
//
//	-32602  Invalid params (missing path, relative path, max_files out of range)
//	-32603  Internal error
//	-32003  Codebase not indexed
//	-32004  Empty query or search term
//	-32005  File not in the graph
//	-32006  Embedding provider failed
//	-32007  Build superseded by a newer one
package mcp
