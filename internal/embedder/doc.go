// Package embedder turns summaries, features, keywords and queries into
// vectors for relevance ranking.
//
// Three providers implement Embedder: Jina AI and OpenAI over HTTP, and an
// offline LocalProvider that hashes words into buckets. Every provider
// batches requests, serves repeats from an optional LRU Cache keyed by the
// SHA-256 of the text, and returns vectors in input order.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vec, err := emb.Embed(ctx, "Function parse_config\nPurpose: Load settings")
//
// # Batch Processing
//
//	vecs, err := emb.EmbedBatch(ctx, []string{summaryA, summaryB, summaryC})
//	for i, v := range vecs {
//	    // v belongs to the i-th text
//	}
//
// Batches larger than MaxBatchSize are split into several API requests.
//
// # Provider Selection
//
//  1. If CODEGRAPH_EMBEDDING_PROVIDER is set, use that provider
//  2. Else if JINA_API_KEY is set, use Jina AI
//  3. Else if OPENAI_API_KEY is set, use OpenAI
//  4. Else fall back to the local provider (offline mode)
//
// Explicit configuration:
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider:  "openai",
//	    APIKey:    key,
//	    CacheSize: 10000,
//	})
//
// # Error Handling
//
// HTTP providers retry transient failures (network errors, 429 and 5xx) with
// exponential backoff. Anything that still fails is wrapped in
// ErrProviderFailed:
//
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // provider unavailable
//	}
package embedder
