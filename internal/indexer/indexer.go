package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/codegraph-mcp/internal/embedder"
	"github.com/dshills/codegraph-mcp/internal/extractor"
	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/internal/language"
	"github.com/dshills/codegraph-mcp/internal/ranker"
	"github.com/dshills/codegraph-mcp/internal/resolver"
	"github.com/dshills/codegraph-mcp/internal/storage"
	"github.com/dshills/codegraph-mcp/internal/summarizer"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// DefaultMaxFileSize is the largest file read during a directory walk
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Indexer builds the relationship graph and answers queries against the
// most recently published one
type Indexer struct {
	extractor  extractor.Extractor
	resolver   *resolver.Resolver
	ranker     *ranker.Ranker
	store      storage.Store
	summarizer summarizer.Summarizer
	logger     *slog.Logger

	workers     int
	maxFileSize int64
	ignore      []string
	rankerOpts  []ranker.Option

	active atomic.Pointer[graph.Graph]

	// mu guards everything below
	mu          sync.Mutex
	seq         uint64
	cancel      context.CancelFunc
	status      Status
	subscribers map[int]chan Status
	nextSub     int
	closed      bool
}

// Option configures an Indexer
type Option func(*Indexer)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithWorkers sets the size of the extraction worker pool
func WithWorkers(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// WithMaxFileSize sets the size above which walked files are skipped
func WithMaxFileSize(n int64) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.maxFileSize = n
		}
	}
}

// WithIgnorePatterns adds gitignore-style patterns applied during the walk
func WithIgnorePatterns(patterns ...string) Option {
	return func(idx *Indexer) {
		idx.ignore = append(idx.ignore, patterns...)
	}
}

// WithExtractor replaces the pattern extractor
func WithExtractor(e extractor.Extractor) Option {
	return func(idx *Indexer) {
		if e != nil {
			idx.extractor = e
		}
	}
}

// WithStore persists every published graph to s
func WithStore(s storage.Store) Option {
	return func(idx *Indexer) {
		idx.store = s
	}
}

// WithSummarizer fills detailed summaries during extraction
func WithSummarizer(s summarizer.Summarizer) Option {
	return func(idx *Indexer) {
		idx.summarizer = s
	}
}

// WithRankerOptions passes options through to the relevance ranker
func WithRankerOptions(opts ...ranker.Option) Option {
	return func(idx *Indexer) {
		idx.rankerOpts = append(idx.rankerOpts, opts...)
	}
}

// NullLogger returns a logger that discards everything
func NullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// New creates an indexer ranking with emb
func New(emb embedder.Embedder, opts ...Option) *Indexer {
	idx := &Indexer{
		extractor:   extractor.NewPatternExtractor(),
		logger:      NullLogger(),
		workers:     runtime.NumCPU(),
		maxFileSize: DefaultMaxFileSize,
		subscribers: make(map[int]chan Status),
		status:      Status{Languages: map[types.Language]int{}},
	}
	for _, opt := range opts {
		opt(idx)
	}

	idx.resolver = resolver.New(resolver.WithLogger(idx.logger))
	rankerOpts := append([]ranker.Option{ranker.WithLogger(idx.logger)}, idx.rankerOpts...)
	idx.ranker = ranker.New(emb, rankerOpts...)
	return idx
}

// Close cancels a running build and closes every subscription
func (idx *Indexer) Close() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.cancel != nil {
		idx.cancel()
		idx.cancel = nil
	}
	idx.closed = true
	for id, ch := range idx.subscribers {
		delete(idx.subscribers, id)
		close(ch)
	}
}

// Graph returns the active graph, nil before the first build completes
func (idx *Indexer) Graph() *graph.Graph {
	return idx.active.Load()
}

// build is one run of the pipeline
type build struct {
	ctx  context.Context
	seq  uint64
	root string
}

// begin cancels any running build and resets the status for a new one
func (idx *Indexer) begin(parent context.Context, root string) (*build, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.cancel != nil {
		idx.cancel()
	}
	idx.seq++
	idx.cancel = cancel
	idx.status = Status{
		Root:      root,
		Languages: map[types.Language]int{},
		IsLoading: true,
		StartedAt: time.Now(),
	}
	idx.publishLocked()

	return &build{ctx: ctx, seq: idx.seq, root: root}, cancel
}

// update applies fn to the status if b is still the current build
func (idx *Indexer) update(b *build, fn func(*Status)) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if b.seq != idx.seq {
		return false
	}
	fn(&idx.status)
	idx.publishLocked()
	return true
}

// finish clears the cancel func of b and records a build error
func (idx *Indexer) finish(b *build, err error) {
	idx.update(b, func(s *Status) {
		s.IsLoading = false
		s.FinishedAt = time.Now()
		if err != nil {
			s.Error = err.Error()
		}
		idx.cancel = nil
	})
}

func (idx *Indexer) fail(b *build, path string, err error) {
	idx.logger.Warn("file excluded from graph", "file", path, "error", err)
	idx.update(b, func(s *Status) {
		s.FailedFiles++
		s.FailedDetails = append(s.FailedDetails, FailedFile{Path: path, Error: err.Error()})
	})
}

// BuildGraph replaces the active graph with one built from files, a map of
// repo-relative path to content. A build started while this one runs
// cancels it and this call returns ErrBuildSuperseded.
func (idx *Indexer) BuildGraph(ctx context.Context, files map[string]string) (*Status, error) {
	b, cancel := idx.begin(ctx, "")
	defer cancel()

	raw := make([]string, 0, len(files))
	for p := range files {
		raw = append(raw, p)
	}
	sort.Strings(raw)

	// The first key in sorted order owns a cleaned path
	clean := make(map[string]string, len(files))
	var dups []string
	for _, p := range raw {
		key := cleanPath(p)
		if _, ok := clean[key]; ok {
			dups = append(dups, p)
			continue
		}
		clean[key] = files[p]
	}
	if len(dups) > 0 {
		idx.update(b, func(s *Status) { s.TotalFiles += len(dups) })
		for _, p := range dups {
			idx.fail(b, p, types.NewFileError(p, fmt.Errorf("%w: same file as %s", types.ErrDuplicatePath, cleanPath(p))))
		}
	}
	return idx.run(b, clean)
}

// cleanPath converts p to the repo-relative forward-slash form graph keys use
func cleanPath(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.TrimPrefix(p, "./")
}

// run extracts, resolves, publishes and persists
func (idx *Indexer) run(b *build, files map[string]string) (*Status, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	idx.update(b, func(s *Status) { s.TotalFiles += len(paths) })
	idx.logger.Info("building graph", "root", b.root, "files", len(paths), "workers", idx.workers)
	start := time.Now()

	nodes := make([]*graph.Node, len(paths))
	g, gctx := errgroup.WithContext(b.ctx)
	g.SetLimit(idx.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			node, err := idx.safeExtract(gctx, b, path, files[path])
			if err != nil {
				idx.fail(b, path, err)
				return nil
			}
			nodes[i] = node
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, idx.abort(b, err)
	}
	if err := b.ctx.Err(); err != nil {
		return nil, idx.abort(b, err)
	}

	next := graph.New(b.root)
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := next.AddNode(n); err != nil {
			return nil, idx.abort(b, err)
		}
	}
	stats := idx.resolver.Resolve(next)

	if !idx.publish(b, next) {
		return nil, types.ErrBuildSuperseded
	}

	idx.logger.Info("graph published",
		"generation", next.Generation,
		"files", next.Len(),
		"edges", next.EdgeCount(),
		"imports", stats.Imports,
		"references", stats.References,
		"duration", time.Since(start))

	idx.persist(b, next)
	idx.finish(b, nil)

	status := idx.Status()
	return &status, nil
}

// abort ends b without publishing. A superseded build reports
// ErrBuildSuperseded; anything else is recorded in the status.
func (idx *Indexer) abort(b *build, err error) error {
	idx.mu.Lock()
	superseded := b.seq != idx.seq
	idx.mu.Unlock()

	if superseded {
		idx.logger.Info("build superseded", "root", b.root)
		return types.ErrBuildSuperseded
	}
	idx.finish(b, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("build failed: %w", err)
}

// publish swaps in next if b is still current. Generation check and swap
// happen under the same lock so an older build never overwrites a newer one.
func (idx *Indexer) publish(b *build, next *graph.Graph) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if b.seq != idx.seq {
		return false
	}
	idx.active.Store(next)
	idx.status.Generation = next.Generation
	idx.status.IsComplete = true
	idx.publishLocked()
	return true
}

// safeExtract runs extract and turns a panic into a per-file error
func (idx *Indexer) safeExtract(ctx context.Context, b *build, path, content string) (node *graph.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx.logger.Error("extraction panicked", "file", path, "panic", r, "stack", string(debug.Stack()))
			node = nil
			err = types.NewFileError(path, fmt.Errorf("%w: %v", types.ErrExtractionFailed, r))
		}
	}()
	return idx.extract(ctx, b, path, content)
}

// extract builds the node for one file
func (idx *Indexer) extract(ctx context.Context, b *build, path, content string) (*graph.Node, error) {
	if language.IsBinaryContent([]byte(content)) {
		return nil, types.NewFileError(path, types.ErrBinaryFile)
	}

	lang := language.Detect(path)
	f := idx.extractor.Extract(path, content, lang)
	node := &graph.Node{
		Path:         path,
		Language:     lang,
		Content:      content,
		ContentHash:  graph.HashContent(content),
		Methods:      f.Methods,
		Purpose:      f.Purpose,
		Keywords:     f.Keywords,
		Features:     f.Features,
		IsEntryPoint: f.IsEntryPoint,
		IsCoreFile:   f.IsCoreFile,
		Summary:      f.Summary,
	}
	if !lang.Known() {
		idx.logger.Debug("no extraction rules", "file", path, "error", types.ErrUnsupportedLanguage)
	}

	if idx.summarizer != nil && lang.Known() {
		detail, err := summarizer.Describe(ctx, idx.summarizer, path, lang, content, node.Methods)
		if err != nil {
			idx.logger.Warn("detailed summary failed", "file", path, "error", err)
		}
		node.DetailedSummary = detail
	}

	changed := idx.changed(ctx, path, node.ContentHash)
	idx.update(b, func(s *Status) {
		s.ProcessedFiles++
		s.Languages[lang]++
		if changed {
			s.ChangedFiles++
		}
	})
	return node, nil
}

// changed reports whether the persisted index holds a different version of path
func (idx *Indexer) changed(ctx context.Context, path, hash string) bool {
	if idx.store == nil {
		return false
	}
	changed, err := idx.store.NeedsReindex(ctx, path, hash)
	if err != nil {
		idx.logger.Debug("hash lookup failed", "file", path, "error", err)
		return false
	}
	return changed
}
