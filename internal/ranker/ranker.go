package ranker

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codegraph-mcp/internal/embedder"
	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

const (
	// DefaultMaxFiles is the seed count used when a caller passes maxFiles <= 0
	DefaultMaxFiles = 5

	// EmbedBatchSize is the number of texts sent in one EmbedBatch call
	EmbedBatchSize = 64

	// DefaultEmbedWorkers bounds concurrent EmbedBatch calls
	DefaultEmbedWorkers = 4

	// DefaultCacheSize is the number of results kept per ranker
	DefaultCacheSize = 256
)

// Option configures a Ranker
type Option func(*Ranker)

// WithLogger sets the logger used for ranking diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCacheSize sets how many results are cached. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(r *Ranker) {
		r.cacheSize = n
	}
}

// WithEmbedWorkers bounds the number of concurrent embedding batches
func WithEmbedWorkers(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}

// Ranker scores every file of a graph against a query and expands the best
// matches along their relationships
type Ranker struct {
	embedder  embedder.Embedder
	logger    *slog.Logger
	workers   int
	cacheSize int

	// Results keyed by graph generation, query and maxFiles
	cache *lru.Cache[[32]byte, *types.RelevanceResult]
}

// New creates a Ranker that embeds through emb
func New(emb embedder.Embedder, opts ...Option) *Ranker {
	r := &Ranker{
		embedder:  emb,
		logger:    slog.New(slog.DiscardHandler),
		workers:   DefaultEmbedWorkers,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cacheSize > 0 {
		cache, err := lru.New[[32]byte, *types.RelevanceResult](r.cacheSize)
		if err != nil {
			panic(fmt.Sprintf("failed to create LRU cache: %v", err))
		}
		r.cache = cache
	}
	return r
}

// scored is a path with its similarity breakdown
type scored struct {
	path  string
	score types.ScoreBreakdown
}

// Rank returns the files of g most relevant to query. The maxFiles best
// scoring files seed the result; their one-hop neighbours are added and the
// whole set is capped at twice maxFiles, seeds always kept.
func (r *Ranker) Rank(ctx context.Context, g *graph.Graph, query string, maxFiles int) (*types.RelevanceResult, error) {
	start := time.Now()

	if r.embedder == nil {
		return nil, errors.New("embedder not initialized")
	}
	if g.Len() == 0 {
		return nil, types.ErrNotIndexed
	}
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuery
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	key := cacheKey(g.Generation, query, maxFiles)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			r.logger.Debug("relevance cache hit", "query", query, "generation", g.Generation)
			return cloneResult(cached), nil
		}
	}

	nodes := g.Nodes()
	vectors, err := r.embedTexts(ctx, collectTexts(query, nodes))
	if err != nil {
		return nil, err
	}

	queryVec := vectors[query]
	ranked := make([]scored, len(nodes))
	for i, n := range nodes {
		ranked[i] = scored{path: n.Path, score: scoreNode(queryVec, n, vectors)}
	}
	sortScored(ranked)

	result := assemble(g, query, maxFiles, ranked)

	if r.cache != nil {
		r.cache.Add(key, cloneResult(result))
	}

	r.logger.Debug("ranked files",
		"query", query,
		"files", len(nodes),
		"texts", len(vectors),
		"returned", len(result.Paths),
		"duration", time.Since(start),
	)
	return result, nil
}

// collectTexts returns every distinct non-empty text that needs a vector,
// query first
func collectTexts(query string, nodes []*graph.Node) []string {
	seen := make(map[string]bool)
	var texts []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		texts = append(texts, s)
	}

	add(query)
	for _, n := range nodes {
		add(n.SummaryText())
		for i := range n.Methods {
			add(n.Methods[i].SummaryText())
		}
		for _, f := range n.Features {
			add(f)
		}
		for _, k := range n.Keywords {
			add(k)
		}
		if documented(n.Purpose) {
			add(n.Purpose)
		}
	}
	return texts
}

func documented(purpose string) bool {
	return purpose != "" && purpose != types.PurposeUndocumented
}

// embedTexts embeds texts in fixed-size batches on a bounded pool. Provider
// failures are returned as ErrEmbeddingProvider and never retried here.
func (r *Ranker) embedTexts(ctx context.Context, texts []string) (map[string][]float32, error) {
	batches := (len(texts) + EmbedBatchSize - 1) / EmbedBatchSize
	results := make([][][]float32, batches)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)

	for b := 0; b < batches; b++ {
		lo := b * EmbedBatchSize
		hi := min(lo+EmbedBatchSize, len(texts))
		eg.Go(func() error {
			vecs, err := r.embedder.EmbedBatch(egCtx, texts[lo:hi])
			if err != nil {
				return err
			}
			if len(vecs) != hi-lo {
				return fmt.Errorf("got %d vectors for %d texts", len(vecs), hi-lo)
			}
			results[b] = vecs
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", types.ErrEmbeddingProvider, r.embedder.Name(), err)
	}

	vectors := make(map[string][]float32, len(texts))
	for b, vecs := range results {
		for i, v := range vecs {
			vectors[texts[b*EmbedBatchSize+i]] = v
		}
	}
	return vectors, nil
}

// scoreNode computes the five components and the composite for one file
func scoreNode(query []float32, n *graph.Node, vectors map[string][]float32) types.ScoreBreakdown {
	var s types.ScoreBreakdown

	s.File = similarity(query, vectors, n.SummaryText())

	summaries := make([]string, len(n.Methods))
	for i := range n.Methods {
		summaries[i] = n.Methods[i].SummaryText()
	}
	s.Method = maxSimilarity(query, vectors, summaries)
	s.Feature = maxSimilarity(query, vectors, n.Features)
	s.Keyword = maxSimilarity(query, vectors, n.Keywords)
	if documented(n.Purpose) {
		s.Purpose = similarity(query, vectors, n.Purpose)
	}

	s.Combine()
	return s
}

func similarity(query []float32, vectors map[string][]float32, text string) float64 {
	if text == "" {
		return 0
	}
	return cosineSimilarity(query, vectors[text])
}

// maxSimilarity is the best similarity among texts, 0 when there are none
func maxSimilarity(query []float32, vectors map[string][]float32, texts []string) float64 {
	best := 0.0
	for i, t := range texts {
		s := similarity(query, vectors, t)
		if i == 0 || s > best {
			best = s
		}
	}
	return best
}

// cosineSimilarity returns 0 for mismatched lengths or zero vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortScored orders by composite descending, then path ascending
func sortScored(s []scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].score.Composite != s[j].score.Composite {
			return s[i].score.Composite > s[j].score.Composite
		}
		return s[i].path < s[j].path
	})
}

// assemble picks seeds, expands them one hop and builds the result
func assemble(g *graph.Graph, query string, maxFiles int, ranked []scored) *types.RelevanceResult {
	seedCount := min(maxFiles, len(ranked))
	selected := make(map[string]bool, 2*maxFiles)
	seeds := make([]string, 0, seedCount)
	for _, s := range ranked[:seedCount] {
		seeds = append(seeds, s.path)
		selected[s.path] = true
	}

	expansion := make(map[string]bool)
	for _, p := range seeds {
		n, _ := g.Node(p)
		for _, nb := range n.Neighbors() {
			if !selected[nb] {
				expansion[nb] = true
			}
		}
	}

	// ranked is already in score order, so walking it keeps the best
	// expansion-only members first
	budget := 2*maxFiles - len(seeds)
	for _, s := range ranked[seedCount:] {
		if budget == 0 {
			break
		}
		if expansion[s.path] {
			selected[s.path] = true
			budget--
		}
	}

	result := &types.RelevanceResult{
		Query:    query,
		MaxFiles: maxFiles,
		Seeds:    seeds,
		Paths:    make([]string, 0, len(selected)),
		Scores:   make(map[string]types.ScoreBreakdown, len(selected)),
		Files:    make(map[string]types.FileView, len(selected)),
	}
	for _, s := range ranked {
		if !selected[s.path] {
			continue
		}
		n, _ := g.Node(s.path)
		result.Paths = append(result.Paths, s.path)
		result.Scores[s.path] = s.score
		result.Files[s.path] = fileView(n)
	}
	return result
}

// fileView copies the parts of a node handed to the answering model
func fileView(n *graph.Node) types.FileView {
	methods := make([]types.MethodView, len(n.Methods))
	for i, m := range n.Methods {
		methods[i] = types.MethodView{
			Name:            m.Name,
			Kind:            m.Kind,
			StartLine:       m.StartLine,
			EndLine:         m.EndLine,
			Summary:         m.Summary,
			DetailedSummary: m.DetailedSummary,
			Docstring:       m.Docstring,
			Body:            m.Body,
		}
	}
	return types.FileView{
		Path:            n.Path,
		Language:        n.Language,
		Content:         n.Content,
		Summary:         n.Summary,
		DetailedSummary: n.DetailedSummary,
		Purpose:         n.Purpose,
		IsEntryPoint:    n.IsEntryPoint,
		IsCoreFile:      n.IsCoreFile,
		Features:        append([]string{}, n.Features...),
		Keywords:        append([]string{}, n.Keywords...),
		Methods:         methods,
		Relationships:   n.Relationships(),
	}
}

func cacheKey(generation, query string, maxFiles int) [32]byte {
	return sha256.Sum256([]byte(generation + "\x00" + query + "\x00" + strconv.Itoa(maxFiles)))
}

// cloneResult deep-copies a result so cached results cannot be modified
// through a returned value
func cloneResult(src *types.RelevanceResult) *types.RelevanceResult {
	dst := &types.RelevanceResult{
		Query:    src.Query,
		MaxFiles: src.MaxFiles,
		Paths:    slices.Clone(src.Paths),
		Seeds:    slices.Clone(src.Seeds),
		Scores:   maps.Clone(src.Scores),
		Files:    make(map[string]types.FileView, len(src.Files)),
	}
	for k, v := range src.Files {
		v.Features = slices.Clone(v.Features)
		v.Keywords = slices.Clone(v.Keywords)
		v.Methods = slices.Clone(v.Methods)
		v.Relationships = types.Relationships{
			Imports:      slices.Clone(v.Relationships.Imports),
			ImportedBy:   slices.Clone(v.Relationships.ImportedBy),
			References:   slices.Clone(v.Relationships.References),
			ReferencedBy: slices.Clone(v.Relationships.ReferencedBy),
		}
		dst.Files[k] = v
	}
	return dst
}
