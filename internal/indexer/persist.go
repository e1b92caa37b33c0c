package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/internal/storage"
)

// persist hands a published graph to the store. Failures are logged and
// recorded in the status; the graph stays published.
func (idx *Indexer) persist(b *build, g *graph.Graph) {
	if idx.store == nil {
		return
	}

	// A newer build cancels b.ctx and persists its own graph
	ctx := b.ctx
	start := time.Now()

	files, methods, rels := records(g)
	err := idx.store.ReplaceIndex(ctx, files, methods, rels)
	if err == nil {
		status := idx.Status()
		status.IsLoading = false
		status.FinishedAt = time.Now()
		err = idx.store.SaveStatus(ctx, storageStatus(&status))
	}

	if err != nil {
		err = fmt.Errorf("persist graph %s: %w", g.Generation, err)
		idx.logger.Error("failed to persist graph", "generation", g.Generation, "error", err)
		idx.update(b, func(s *Status) { s.PersistError = err.Error() })
		return
	}

	idx.logger.Debug("graph persisted",
		"generation", g.Generation,
		"files", len(files),
		"methods", len(methods),
		"relationships", len(rels),
		"duration", time.Since(start))
}

// records flattens g into storage rows
func records(g *graph.Graph) ([]storage.File, []storage.Method, []storage.Relationship) {
	nodes := g.Nodes()
	files := make([]storage.File, 0, len(nodes))
	var methods []storage.Method

	for _, n := range nodes {
		files = append(files, storage.File{
			Path:            n.Path,
			Language:        n.Language.String(),
			ContentHash:     n.ContentHash,
			Summary:         n.Summary,
			DetailedSummary: n.DetailedSummary,
			Purpose:         n.Purpose,
			IsEntryPoint:    n.IsEntryPoint,
			IsCoreFile:      n.IsCoreFile,
			IndexedAt:       g.BuiltAt,
		})
		for _, m := range n.Methods {
			methods = append(methods, storage.Method{
				FilePath:        n.Path,
				Name:            m.Name,
				Kind:            string(m.Kind),
				StartLine:       m.StartLine,
				EndLine:         m.EndLine,
				Summary:         m.Summary,
				DetailedSummary: m.DetailedSummary,
			})
		}
	}

	edges := g.Edges()
	rels := make([]storage.Relationship, 0, len(edges))
	for _, e := range edges {
		rels = append(rels, storage.Relationship{Source: e.Source, Target: e.Target, Kind: string(e.Kind)})
	}
	return files, methods, rels
}

func storageStatus(s *Status) *storage.IndexStatus {
	languages := make(map[string]int, len(s.Languages))
	for lang, n := range s.Languages {
		languages[lang.String()] = n
	}
	failed := make([]storage.FailedFile, 0, len(s.FailedDetails))
	for _, f := range s.FailedDetails {
		failed = append(failed, storage.FailedFile{Path: f.Path, Error: f.Error})
	}
	return &storage.IndexStatus{
		Root:           s.Root,
		Generation:     s.Generation,
		TotalFiles:     s.TotalFiles,
		ProcessedFiles: s.ProcessedFiles,
		FailedFiles:    s.FailedFiles,
		SuccessRate:    s.SuccessRate(),
		Languages:      languages,
		FailedDetails:  failed,
		IsComplete:     s.IsComplete,
		IsLoading:      s.IsLoading,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
	}
}

// LoadPersistedStatus returns the status saved by the last persisted build
func (idx *Indexer) LoadPersistedStatus(ctx context.Context) (*storage.IndexStatus, error) {
	if idx.store == nil {
		return nil, storage.ErrNotFound
	}
	return idx.store.LoadStatus(ctx)
}
