// Package storage persists the relationship graph to SQLite.
//
// The database is a durable copy of the last completed build: files with
// their summaries and content hashes, extracted methods, resolved
// relationships, and a single indexing status row. Queries never read from
// it; the in-memory graph is authoritative.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage(".codegraph/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// Swap the whole index in one transaction
//	err = db.ReplaceIndex(ctx, files, methods, relationships)
//
//	// Skip unchanged files on the next build
//	changed, err := db.NeedsReindex(ctx, "src/app.py", hash)
//
// # Schema
//
// Migrations are versioned with semver and applied on open. Version 1.0.0
// creates the files, methods, relationships and indexing_status tables;
// 1.1.0 adds file purposes, failure details and the build window.
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler. Build
// with -tags cgo_sqlite to use github.com/mattn/go-sqlite3 instead.
package storage
