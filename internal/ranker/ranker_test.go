package ranker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codegraph-mcp/internal/embedder"
	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// vocabEmbedder maps a text to the number of times each vocabulary word
// occurs in it
type vocabEmbedder struct {
	vocab []string
	err   error

	mu      sync.Mutex
	batches [][]string
}

func newVocabEmbedder(words ...string) *vocabEmbedder {
	return &vocabEmbedder{vocab: words}
}

func (v *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := v.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (v *vocabEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	v.mu.Lock()
	v.batches = append(v.batches, append([]string(nil), texts...))
	v.mu.Unlock()

	if v.err != nil {
		return nil, v.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(v.vocab))
		lower := strings.ToLower(text)
		for j, w := range v.vocab {
			vec[j] = float32(strings.Count(lower, w))
		}
		out[i] = vec
	}
	return out, nil
}

func (v *vocabEmbedder) Dimension() int { return len(v.vocab) }
func (v *vocabEmbedder) Name() string   { return "vocab" }
func (v *vocabEmbedder) Close() error   { return nil }

func (v *vocabEmbedder) calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.batches)
}

func addNode(t *testing.T, g *graph.Graph, n *graph.Node) {
	t.Helper()
	if n.Language == "" {
		n.Language = types.LanguagePython
	}
	if n.Purpose == "" {
		n.Purpose = types.PurposeUndocumented
	}
	require.NoError(t, g.AddNode(n))
}

// storeGraph is a small codebase where one file is about the database, one
// serves HTTP and imports it, and two are unrelated
func storeGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("/repo")
	addNode(t, g, &graph.Node{
		Path:     "db/store.py",
		Summary:  "Stores records in a database",
		Purpose:  "Persists rows to the database",
		Keywords: []string{"database", "rows"},
		Features: []string{"save records to database"},
		Methods: []types.Method{
			{Name: "save", Kind: types.MethodFunction, StartLine: 1, EndLine: 3, Summary: "Function save\nPurpose: write to database"},
		},
	})
	addNode(t, g, &graph.Node{Path: "api/server.py", Summary: "http server"})
	addNode(t, g, &graph.Node{Path: "ui/view.py", Summary: "render template"})
	addNode(t, g, &graph.Node{Path: "cfg.py", Summary: "config loader"})
	require.True(t, g.AddEdge("api/server.py", "db/store.py", graph.EdgeImports))
	return g
}

func TestRank_NotIndexed(t *testing.T) {
	r := New(newVocabEmbedder("x"))

	_, err := r.Rank(context.Background(), nil, "anything", 5)
	assert.ErrorIs(t, err, types.ErrNotIndexed)

	_, err = r.Rank(context.Background(), graph.New("/repo"), "anything", 5)
	assert.ErrorIs(t, err, types.ErrNotIndexed)
}

func TestRank_EmptyQuery(t *testing.T) {
	r := New(newVocabEmbedder("x"))
	_, err := r.Rank(context.Background(), storeGraph(t), "   ", 5)
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestRank_SeedsAndExpansion(t *testing.T) {
	emb := newVocabEmbedder("database", "http", "render", "config")
	r := New(emb)

	res, err := r.Rank(context.Background(), storeGraph(t), "database", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"db/store.py"}, res.Seeds)
	assert.Equal(t, []string{"db/store.py", "api/server.py"}, res.Paths)

	s := res.Scores["db/store.py"]
	assert.InDelta(t, 1.0, s.File, 1e-9)
	assert.InDelta(t, 1.0, s.Method, 1e-9)
	assert.InDelta(t, 1.0, s.Feature, 1e-9)
	assert.InDelta(t, 1.0, s.Keyword, 1e-9, "best keyword wins")
	assert.InDelta(t, 1.0, s.Purpose, 1e-9)
	assert.InDelta(t, 1.0, s.Composite, 1e-9)

	assert.Equal(t, 0.0, res.Scores["api/server.py"].Composite)

	view := res.Files["db/store.py"]
	assert.Equal(t, "db/store.py", view.Path)
	assert.Equal(t, []string{"api/server.py"}, view.Relationships.ImportedBy)
	require.Len(t, view.Methods, 1)
	assert.Equal(t, "save", view.Methods[0].Name)
	assert.Equal(t, []string{"db/store.py"}, res.Files["api/server.py"].Relationships.Imports)
}

func TestRank_UndocumentedPurposeScoresZero(t *testing.T) {
	emb := newVocabEmbedder("http")
	r := New(emb)

	res, err := r.Rank(context.Background(), storeGraph(t), "http", 5)
	require.NoError(t, err)

	s := res.Scores["api/server.py"]
	assert.InDelta(t, 1.0, s.File, 1e-9)
	assert.Equal(t, 0.0, s.Purpose)
	assert.Equal(t, 0.0, s.Method, "no methods")
	assert.InDelta(t, types.WeightFile, s.Composite, 1e-9)

	for _, batch := range emb.batches {
		assert.NotContains(t, batch, types.PurposeUndocumented)
	}
}

func TestRank_CompositeWeights(t *testing.T) {
	assert.InDelta(t, 1.0,
		types.WeightFile+types.WeightMethod+types.WeightFeature+types.WeightKeyword+types.WeightPurpose, 1e-12)

	s := types.ScoreBreakdown{File: 1, Method: 0.5, Feature: 0.25, Keyword: 1, Purpose: 0}
	assert.InDelta(t, 0.30+0.10+0.05+0.15, s.Combine(), 1e-12)
}

func TestRank_TieBreakByPath(t *testing.T) {
	g := graph.New("/repo")
	for _, p := range []string{"src/f.ts", "src/b.ts", "src/d.ts", "src/a.ts", "src/e.ts", "src/c.ts", "src/g.ts"} {
		addNode(t, g, &graph.Node{Path: p, Summary: "same text"})
	}

	r := New(newVocabEmbedder("same"), WithCacheSize(0))
	first, err := r.Rank(context.Background(), g, "same", 0)
	require.NoError(t, err)
	second, err := r.Rank(context.Background(), g, "same", 0)
	require.NoError(t, err)

	want := []string{"src/a.ts", "src/b.ts", "src/c.ts", "src/d.ts", "src/e.ts"}
	assert.Equal(t, want, first.Seeds)
	assert.Equal(t, want, first.Paths, "no edges, nothing to expand")
	assert.Equal(t, DefaultMaxFiles, first.MaxFiles)
	assert.Equal(t, first.Paths, second.Paths)
}

func TestRank_ExpansionCapped(t *testing.T) {
	g := graph.New("/repo")
	addNode(t, g, &graph.Node{Path: "hub.ts", Summary: "database hub"})
	for i := 1; i <= 12; i++ {
		p := fmt.Sprintf("leaf%02d.ts", i)
		addNode(t, g, &graph.Node{Path: p, Summary: "leaf"})
		require.True(t, g.AddEdge(p, "hub.ts", graph.EdgeImports))
	}

	r := New(newVocabEmbedder("database"))
	res, err := r.Rank(context.Background(), g, "database", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"hub.ts"}, res.Seeds)
	assert.Equal(t, []string{"hub.ts", "leaf01.ts"}, res.Paths)
	assert.Len(t, res.Scores, 2)
	assert.Len(t, res.Files, 2)
}

func TestRank_AtMostTwiceMaxFiles(t *testing.T) {
	g := graph.New("/repo")
	for i := 0; i < 20; i++ {
		addNode(t, g, &graph.Node{Path: fmt.Sprintf("m%02d.py", i), Summary: fmt.Sprintf("module %d", i)})
	}
	for i := 0; i < 19; i++ {
		require.True(t, g.AddEdge(fmt.Sprintf("m%02d.py", i), fmt.Sprintf("m%02d.py", i+1), graph.EdgeImports))
		require.True(t, g.AddEdge(fmt.Sprintf("m%02d.py", i+1), fmt.Sprintf("m%02d.py", i), graph.EdgeReferences))
	}

	r := New(newVocabEmbedder("module"))
	res, err := r.Rank(context.Background(), g, "module", 5)
	require.NoError(t, err)

	assert.Len(t, res.Seeds, 5)
	assert.LessOrEqual(t, len(res.Paths), 10)
	for _, seed := range res.Seeds {
		assert.Contains(t, res.Paths, seed)
	}
}

func TestRank_ProviderErrorNotRetried(t *testing.T) {
	emb := newVocabEmbedder("x")
	emb.err = errors.New("quota exceeded")
	r := New(emb)

	res, err := r.Rank(context.Background(), storeGraph(t), "database", 5)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrEmbeddingProvider)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, emb.calls())
}

func TestRank_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	local, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = New(local).Rank(ctx, storeGraph(t), "database", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrEmbeddingProvider)
}

func TestRank_TextsEmbeddedOnceInBatches(t *testing.T) {
	g := graph.New("/repo")
	for i := 0; i < 10; i++ {
		keywords := make([]string, 0, 20)
		for k := 0; k < 20; k++ {
			// Keywords repeat across files
			keywords = append(keywords, fmt.Sprintf("kw%03d", i*10+k))
		}
		addNode(t, g, &graph.Node{
			Path:     fmt.Sprintf("f%02d.go", i),
			Summary:  "shared summary",
			Keywords: keywords,
		})
	}

	emb := newVocabEmbedder("kw")
	r := New(emb, WithEmbedWorkers(2))
	_, err := r.Rank(context.Background(), g, "find kw", 3)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, batch := range emb.batches {
		assert.LessOrEqual(t, len(batch), EmbedBatchSize)
		for _, text := range batch {
			seen[text]++
		}
	}
	for text, n := range seen {
		assert.Equal(t, 1, n, "text %q embedded %d times", text, n)
	}
	// query + shared summary + 110 distinct keywords
	assert.Len(t, seen, 112)
	assert.Greater(t, emb.calls(), 1)
}

func TestRank_Cache(t *testing.T) {
	emb := newVocabEmbedder("database")
	r := New(emb)
	g := storeGraph(t)

	first, err := r.Rank(context.Background(), g, "database", 2)
	require.NoError(t, err)
	calls := emb.calls()

	first.Paths[0] = "mutated"

	second, err := r.Rank(context.Background(), g, "database", 2)
	require.NoError(t, err)
	assert.Equal(t, calls, emb.calls(), "served from cache")
	assert.Equal(t, "db/store.py", second.Paths[0])

	// A rebuilt graph has a new generation
	_, err = r.Rank(context.Background(), storeGraph(t), "database", 2)
	require.NoError(t, err)
	assert.Greater(t, emb.calls(), calls)
}

func TestRank_CachedFileViewsAreCopies(t *testing.T) {
	r := New(newVocabEmbedder("database"))
	g := storeGraph(t)

	first, err := r.Rank(context.Background(), g, "database", 2)
	require.NoError(t, err)
	view := first.Files["db/store.py"]
	require.NotEmpty(t, view.Keywords)
	require.NotEmpty(t, view.Features)
	require.NotEmpty(t, view.Methods)
	require.NotEmpty(t, view.Relationships.ImportedBy)

	view.Keywords[0] = "mutated"
	view.Features[0] = "mutated"
	view.Methods[0].Name = "mutated"
	view.Relationships.ImportedBy[0] = "mutated"

	second, err := r.Rank(context.Background(), g, "database", 2)
	require.NoError(t, err)
	again := second.Files["db/store.py"]
	assert.Equal(t, "database", again.Keywords[0])
	assert.Equal(t, "save records to database", again.Features[0])
	assert.Equal(t, "save", again.Methods[0].Name)
	assert.Equal(t, []string{"api/server.py"}, again.Relationships.ImportedBy)
}

func TestRank_LocalProvider(t *testing.T) {
	local, err := embedder.NewLocalProvider(embedder.NewCache(100))
	require.NoError(t, err)

	res, err := New(local).Rank(context.Background(), storeGraph(t), "where are records saved to the database", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"db/store.py"}, res.Seeds)
	assert.Contains(t, res.Paths, "api/server.py")
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
