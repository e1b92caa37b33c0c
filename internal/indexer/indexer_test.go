package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codegraph-mcp/internal/embedder"
	"github.com/dshills/codegraph-mcp/internal/extractor"
	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/internal/storage"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// setupTestStorage creates an in-memory SQLite database for testing
func setupTestStorage(t testing.TB) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "Failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// createTestFile creates a file under dir, making parent directories
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

func newTestIndexer(t testing.TB, opts ...Option) *Indexer {
	t.Helper()

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	idx := New(emb, append([]Option{WithWorkers(4)}, opts...)...)
	t.Cleanup(idx.Close)
	return idx
}

var scriptFiles = map[string]string{
	"src/app.ts":   "import { save } from './store'\n\nexport function main() {\n  save()\n}\n",
	"src/store.ts": "/** Persists user records */\nexport function save() {\n  return true\n}\n",
	"README.md":    "# Demo\n",
}

func TestNew(t *testing.T) {
	idx := newTestIndexer(t)

	assert.NotNil(t, idx.extractor)
	assert.NotNil(t, idx.resolver)
	assert.NotNil(t, idx.ranker)
	assert.Equal(t, 4, idx.workers)
	assert.Equal(t, DefaultMaxFileSize, idx.maxFileSize)
	assert.Nil(t, idx.Graph())
}

func TestBuildGraph(t *testing.T) {
	idx := newTestIndexer(t)

	status, err := idx.BuildGraph(context.Background(), scriptFiles)
	require.NoError(t, err)

	assert.Equal(t, 3, status.TotalFiles)
	assert.Equal(t, 3, status.ProcessedFiles)
	assert.Zero(t, status.FailedFiles)
	assert.True(t, status.IsComplete)
	assert.False(t, status.IsLoading)
	assert.Equal(t, 2, status.Languages[types.LanguageTypeScript])
	assert.Equal(t, 1, status.Languages[types.LanguageMarkdown])
	assert.InDelta(t, 100.0, status.SuccessRate(), 0.001)

	g := idx.Graph()
	require.NotNil(t, g)
	assert.Equal(t, status.Generation, g.Generation)
	assert.Equal(t, []string{"README.md", "src/app.ts", "src/store.ts"}, g.Paths())
	assert.True(t, g.HasEdge("src/app.ts", "src/store.ts", graph.EdgeImports))

	rel, err := idx.GetRelatedFiles("./src/store.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.ts"}, rel.ImportedBy)
}

func TestBuildGraph_BinaryContentFails(t *testing.T) {
	idx := newTestIndexer(t)

	files := map[string]string{
		"ok.py":   "def run():\n    pass\n",
		"blob.py": "abc\x00def",
	}
	status, err := idx.BuildGraph(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 2, status.TotalFiles)
	assert.Equal(t, 1, status.ProcessedFiles)
	assert.Equal(t, 1, status.FailedFiles)
	require.Len(t, status.FailedDetails, 1)
	assert.Equal(t, "blob.py", status.FailedDetails[0].Path)
	assert.Equal(t, []string{"ok.py"}, idx.Graph().Paths())
}

func TestBuildGraph_Idempotent(t *testing.T) {
	idx := newTestIndexer(t)
	ctx := context.Background()

	first, err := idx.BuildGraph(ctx, scriptFiles)
	require.NoError(t, err)
	g1 := idx.Graph()

	second, err := idx.BuildGraph(ctx, scriptFiles)
	require.NoError(t, err)
	g2 := idx.Graph()

	assert.NotEqual(t, first.Generation, second.Generation)
	assert.Equal(t, g1.Paths(), g2.Paths())
	assert.Equal(t, g1.Edges(), g2.Edges())

	n, ok := g2.Node("src/store.ts")
	require.True(t, ok)
	assert.Equal(t, []string{"src/app.ts"}, n.ImportedBy, "reverse edges are not duplicated")
}

func TestBuildGraph_DuplicatePaths(t *testing.T) {
	files := map[string]string{
		"src/a.ts":   "export const version = 1\n",
		"./src/a.ts": "export const version = 2\n",
		"src/b.ts":   "import { version } from './a'\n",
	}

	for i := 0; i < 10; i++ {
		idx := newTestIndexer(t)
		status, err := idx.BuildGraph(context.Background(), files)
		require.NoError(t, err)

		assert.Equal(t, 3, status.TotalFiles)
		assert.Equal(t, 2, status.ProcessedFiles)
		assert.Equal(t, 1, status.FailedFiles)
		require.Len(t, status.FailedDetails, 1)
		assert.Equal(t, "src/a.ts", status.FailedDetails[0].Path)
		assert.Contains(t, status.FailedDetails[0].Error, "duplicate path")

		n, ok := idx.Graph().Node("src/a.ts")
		require.True(t, ok)
		assert.Equal(t, files["./src/a.ts"], n.Content, "the first key in sorted order wins")
		assert.True(t, idx.Graph().HasEdge("src/b.ts", "src/a.ts", graph.EdgeImports))
	}
}

type panickingExtractor struct {
	inner extractor.Extractor
	path  string
}

func (p *panickingExtractor) Extract(path, content string, lang types.Language) extractor.Features {
	if path == p.path {
		panic("index out of range")
	}
	return p.inner.Extract(path, content, lang)
}

func TestBuildGraph_ExtractorPanic(t *testing.T) {
	idx := newTestIndexer(t, WithExtractor(&panickingExtractor{
		inner: extractor.NewPatternExtractor(),
		path:  "src/store.ts",
	}))

	status, err := idx.BuildGraph(context.Background(), scriptFiles)
	require.NoError(t, err)

	assert.Equal(t, 3, status.TotalFiles)
	assert.Equal(t, 2, status.ProcessedFiles)
	assert.Equal(t, 1, status.FailedFiles)
	require.Len(t, status.FailedDetails, 1)
	assert.Equal(t, "src/store.ts", status.FailedDetails[0].Path)
	assert.Contains(t, status.FailedDetails[0].Error, "feature extraction failed")
	assert.Contains(t, status.FailedDetails[0].Error, "index out of range")
	assert.Equal(t, []string{"README.md", "src/app.ts"}, idx.Graph().Paths())
}

func TestFindRelevantFiles_DuringRebuilds(t *testing.T) {
	idx := newTestIndexer(t)
	ctx := context.Background()

	_, err := idx.BuildGraph(ctx, scriptFiles)
	require.NoError(t, err)

	withExtra := make(map[string]string, len(scriptFiles)+1)
	for k, v := range scriptFiles {
		withExtra[k] = v
	}
	withExtra["src/extra.ts"] = "import { save } from './store'\n/** Reports stored records */\nexport function report() {}\n"

	known := map[string]bool{}
	for k := range withExtra {
		known[k] = true
	}

	const maxFiles = 1
	done := make(chan struct{})
	errs := make(chan error, 4)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				result, err := idx.FindRelevantFiles(ctx, "where are user records persisted", maxFiles)
				if err != nil {
					errs <- err
					return
				}
				if len(result.Paths) == 0 || len(result.Paths) > 2*maxFiles {
					errs <- fmt.Errorf("unexpected result size %d", len(result.Paths))
					return
				}
				for _, p := range result.Paths {
					if !known[p] {
						errs <- fmt.Errorf("unknown path %q", p)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		files := scriptFiles
		if i%2 == 1 {
			files = withExtra
		}
		_, err := idx.BuildGraph(ctx, files)
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestQueriesBeforeBuild(t *testing.T) {
	idx := newTestIndexer(t)

	_, err := idx.FindRelevantFiles(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, types.ErrNotIndexed)

	_, err = idx.GetRelatedFiles("a.py")
	assert.ErrorIs(t, err, types.ErrNotIndexed)

	_, err = idx.Overview()
	assert.ErrorIs(t, err, types.ErrNotIndexed)

	_, err = idx.Search("x")
	assert.ErrorIs(t, err, types.ErrNotIndexed)

	_, err = idx.FileTree()
	assert.ErrorIs(t, err, types.ErrNotIndexed)
}

func TestQueries(t *testing.T) {
	idx := newTestIndexer(t)
	ctx := context.Background()

	_, err := idx.BuildGraph(ctx, scriptFiles)
	require.NoError(t, err)

	result, err := idx.FindRelevantFiles(ctx, "where are user records persisted", 1)
	require.NoError(t, err)
	require.NotEmpty(t, result.Paths)
	assert.LessOrEqual(t, len(result.Paths), 2)

	_, err = idx.GetRelatedFiles("missing.ts")
	assert.ErrorIs(t, err, types.ErrFileNotFound)

	ov, err := idx.Overview()
	require.NoError(t, err)
	assert.Equal(t, 3, ov.TotalFiles)

	matches, err := idx.Search("SAVE")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "src/app.ts", matches[0].Path)

	_, err = idx.Search("  ")
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	tree, err := idx.FileTree()
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "src", tree.Children[0].Name)
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "app/main.py", "from app.db import DatabaseManager\n\nif __name__ == \"__main__\":\n    DatabaseManager().connect()\n")
	createTestFile(t, dir, "app/db.py", "class DatabaseManager:\n    def connect(self):\n        pass\n")
	createTestFile(t, dir, "app/__init__.py", "")
	createTestFile(t, dir, "node_modules/lib/index.js", "module.exports = {}\n")
	createTestFile(t, dir, "out/generated.py", "x = 1\n")
	createTestFile(t, dir, "logo.png", "not really a png")
	createTestFile(t, dir, "big.py", strings.Repeat("# padding\n", 300))
	createTestFile(t, dir, ".gitignore", "out/\n")

	idx := newTestIndexer(t, WithMaxFileSize(1024))

	status, err := idx.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, status.Root)
	assert.Equal(t, 2, status.SkippedFiles, "binary extension and oversized file")
	assert.Zero(t, status.FailedFiles)

	g := idx.Graph()
	assert.Equal(t, []string{".gitignore", "app/__init__.py", "app/db.py", "app/main.py"}, g.Paths())
	assert.Equal(t, abs, g.Root)

	entry, ok := g.Node("app/main.py")
	require.True(t, ok)
	assert.True(t, entry.IsEntryPoint)

	db, ok := g.Node("app/db.py")
	require.True(t, ok)
	assert.True(t, db.IsCoreFile)
	assert.Contains(t, db.ImportedBy, "app/main.py")
}

func TestIndexDirectory_IgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "keep.go", "package main\n")
	createTestFile(t, dir, "gen/skip.go", "package gen\n")
	createTestFile(t, dir, "notes.tmp", "scratch\n")

	idx := newTestIndexer(t, WithIgnorePatterns("gen/", "*.tmp"))

	_, err := idx.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go"}, idx.Graph().Paths())
}

func TestIndexDirectory_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := createTestFile(t, dir, "a.py", "x = 1\n")

	idx := newTestIndexer(t)

	_, err := idx.IndexDirectory(context.Background(), file)
	assert.Error(t, err)

	_, err = idx.IndexDirectory(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
	assert.Nil(t, idx.Graph())
}

func TestPersistence(t *testing.T) {
	store := setupTestStorage(t)
	idx := newTestIndexer(t, WithStore(store))
	ctx := context.Background()

	status, err := idx.BuildGraph(ctx, scriptFiles)
	require.NoError(t, err)
	assert.Empty(t, status.PersistError)
	assert.Equal(t, 3, status.ChangedFiles, "nothing persisted yet")

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "README.md", files[0].Path)

	rels, err := store.ListRelationships(ctx, "src/store.ts")
	require.NoError(t, err)
	assert.Equal(t, []storage.Relationship{{Source: "src/app.ts", Target: "src/store.ts", Kind: "imports"}}, rels)

	methods, err := store.ListMethods(ctx, "src/store.ts")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "save", methods[0].Name)

	saved, err := idx.LoadPersistedStatus(ctx)
	require.NoError(t, err)
	assert.True(t, saved.IsComplete)
	assert.False(t, saved.IsLoading)
	assert.Equal(t, status.Generation, saved.Generation)
	assert.Equal(t, 2, saved.Languages["typescript"])

	// Unchanged content is detected against the persisted hashes
	status, err = idx.BuildGraph(ctx, scriptFiles)
	require.NoError(t, err)
	assert.Zero(t, status.ChangedFiles)
}

// failingStore rejects every write
type failingStore struct {
	storage.Store
	err error
}

func (f *failingStore) ReplaceIndex(context.Context, []storage.File, []storage.Method, []storage.Relationship) error {
	return f.err
}

func (f *failingStore) NeedsReindex(context.Context, string, string) (bool, error) {
	return false, f.err
}

func TestPersistenceFailureKeepsGraph(t *testing.T) {
	idx := newTestIndexer(t, WithStore(&failingStore{err: errors.New("disk full")}))

	status, err := idx.BuildGraph(context.Background(), scriptFiles)
	require.NoError(t, err)
	assert.Contains(t, status.PersistError, "disk full")
	assert.True(t, status.IsComplete)
	require.NotNil(t, idx.Graph())
	assert.Equal(t, 3, idx.Graph().Len())
}

func TestLoadPersistedStatus_NoStore(t *testing.T) {
	idx := newTestIndexer(t)
	_, err := idx.LoadPersistedStatus(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// blockingExtractor parks extraction of one path until released
type blockingExtractor struct {
	inner   extractor.Extractor
	path    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingExtractor) Extract(path, content string, lang types.Language) extractor.Features {
	if path == b.path {
		b.once.Do(func() { close(b.entered) })
		<-b.release
	}
	return b.inner.Extract(path, content, lang)
}

func TestBuildGraph_Superseded(t *testing.T) {
	blocker := &blockingExtractor{
		inner:   extractor.NewPatternExtractor(),
		path:    "slow.py",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	idx := newTestIndexer(t, WithExtractor(blocker))
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := idx.BuildGraph(ctx, map[string]string{"slow.py": "x = 1\n"})
		errCh <- err
	}()

	select {
	case <-blocker.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first build never started extraction")
	}

	status, err := idx.BuildGraph(ctx, map[string]string{"fast.py": "y = 2\n"})
	require.NoError(t, err)
	close(blocker.release)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, types.ErrBuildSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("first build did not return")
	}

	assert.Equal(t, []string{"fast.py"}, idx.Graph().Paths())
	assert.Equal(t, status.Generation, idx.Status().Generation)
	assert.Equal(t, 1, idx.Status().ProcessedFiles)
}

func TestBuildGraph_Cancelled(t *testing.T) {
	idx := newTestIndexer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.BuildGraph(ctx, scriptFiles)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, idx.Graph())

	status := idx.Status()
	assert.False(t, status.IsLoading)
	assert.False(t, status.IsComplete)
	assert.NotEmpty(t, status.Error)
}

func TestSubscribe(t *testing.T) {
	idx := newTestIndexer(t)

	updates, stop := idx.Subscribe()

	initial := <-updates
	assert.False(t, initial.IsComplete)

	_, err := idx.BuildGraph(context.Background(), scriptFiles)
	require.NoError(t, err)

	var last Status
	deadline := time.After(5 * time.Second)
	for !(last.IsComplete && !last.IsLoading) {
		select {
		case last = <-updates:
		case <-deadline:
			t.Fatal("never received the final status")
		}
	}
	assert.Equal(t, 3, last.ProcessedFiles)

	stop()
	_, ok := <-updates
	assert.False(t, ok, "channel closed after stop")
}

func TestSubscribe_AfterClose(t *testing.T) {
	idx := newTestIndexer(t)
	idx.Close()

	updates, stop := idx.Subscribe()
	defer stop()
	_, ok := <-updates
	assert.False(t, ok)
}

// fakeSummarizer describes files by path and fails for one of them
type fakeSummarizer struct {
	failPath string
}

func (f *fakeSummarizer) SummarizeFile(_ context.Context, path string, _ types.Language, _ string) (string, error) {
	if path == f.failPath {
		return "", errors.New("model unavailable")
	}
	return "detailed " + path, nil
}

func (f *fakeSummarizer) SummarizeMethod(_ context.Context, _ string, m types.Method) (string, error) {
	return "detailed " + m.Name, nil
}

func TestSummarizer(t *testing.T) {
	idx := newTestIndexer(t, WithSummarizer(&fakeSummarizer{failPath: "src/app.ts"}))

	status, err := idx.BuildGraph(context.Background(), scriptFiles)
	require.NoError(t, err)
	assert.Zero(t, status.FailedFiles, "summary failures are not fatal")

	store, ok := idx.Graph().Node("src/store.ts")
	require.True(t, ok)
	assert.Equal(t, "detailed src/store.ts", store.DetailedSummary)
	require.Len(t, store.Methods, 1)
	assert.Equal(t, "detailed save", store.Methods[0].DetailedSummary)

	app, ok := idx.Graph().Node("src/app.ts")
	require.True(t, ok)
	assert.Empty(t, app.DetailedSummary)
	assert.NotEmpty(t, app.Summary)
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"./src/a.ts":    "src/a.ts",
		"src//a.ts":     "src/a.ts",
		"src/x/../a.ts": "src/a.ts",
		"a.py":          "a.py",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanPath(in), in)
	}
}
