// Package ranker answers "which files matter for this question" over a built
// relationship graph.
//
// Every file is scored against the query with cosine similarity on five
// components: the file summary, the best method summary, the best feature,
// the best keyword and the documented purpose. The weighted composite orders
// the files, ties broken by path. The top maxFiles files seed the result and
// their one-hop neighbours (imports, importers, references, referrers) are
// added, capped at twice maxFiles with seeds always kept.
//
//	r := ranker.New(emb, ranker.WithLogger(logger))
//	res, err := r.Rank(ctx, g, "where is the session token refreshed?", 5)
//	if errors.Is(err, types.ErrNotIndexed) {
//	    // build the graph first
//	}
//	for _, p := range res.Paths {
//	    fmt.Println(p, res.Scores[p].Composite)
//	}
//
// Each distinct text is embedded once per call, in batches of EmbedBatchSize.
// Results are cached per graph generation, so a rebuild invalidates them.
package ranker
