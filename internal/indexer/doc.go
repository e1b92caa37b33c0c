// Package indexer builds the codebase relationship graph and serves queries
// against it.
//
// A build walks the tree once, extracts a node per file on a bounded worker
// pool, links the nodes with the resolver and publishes the finished graph
// with an atomic pointer swap. Readers always see one complete graph. Starting
// a build cancels the one in flight; the older build never publishes.
//
// # Basic Usage
//
//	emb, err := embedder.NewLocalProvider(nil)
//	if err != nil {
//	    return err
//	}
//	idx := indexer.New(emb,
//	    indexer.WithLogger(logger),
//	    indexer.WithStore(store),
//	)
//	defer idx.Close()
//
//	status, err := idx.IndexDirectory(ctx, "/path/to/repo")
//
//	result, err := idx.FindRelevantFiles(ctx, "where are users stored?", 5)
//	for _, path := range result.Paths {
//	    fmt.Println(path, result.Scores[path].Composite)
//	}
//
// # Progress
//
// Status returns a snapshot at any time. Subscribe delivers a snapshot after
// every change; a slow subscriber only ever sees the latest one.
//
// # Persistence
//
// When a store is configured, every published graph is written to it after
// the swap. A persistence failure is logged and reported in the status but
// the graph stays active.
package indexer
