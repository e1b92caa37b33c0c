package indexer

import (
	"context"
	"strings"

	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// current returns the active graph or ErrNotIndexed
func (idx *Indexer) current() (*graph.Graph, error) {
	g := idx.active.Load()
	if g == nil || g.Len() == 0 {
		return nil, types.ErrNotIndexed
	}
	return g, nil
}

// FindRelevantFiles ranks the active graph against query
func (idx *Indexer) FindRelevantFiles(ctx context.Context, query string, maxFiles int) (*types.RelevanceResult, error) {
	return idx.ranker.Rank(ctx, idx.active.Load(), query, maxFiles)
}

// GetRelatedFiles returns the four relationship lists of path
func (idx *Indexer) GetRelatedFiles(path string) (types.Relationships, error) {
	g, err := idx.current()
	if err != nil {
		return types.Relationships{}, err
	}
	return g.Related(cleanPath(path))
}

// Overview summarizes the active graph
func (idx *Indexer) Overview() (graph.Overview, error) {
	g, err := idx.current()
	if err != nil {
		return graph.Overview{}, err
	}
	return g.Overview(), nil
}

// Search finds case-insensitive occurrences of term in every indexed file
func (idx *Indexer) Search(term string) ([]graph.FileMatches, error) {
	if strings.TrimSpace(term) == "" {
		return nil, types.ErrEmptyQuery
	}
	g, err := idx.current()
	if err != nil {
		return nil, err
	}
	return g.Search(term), nil
}

// FileTree returns the directory tree of indexed paths
func (idx *Indexer) FileTree() (*graph.TreeEntry, error) {
	g, err := idx.current()
	if err != nil {
		return nil, err
	}
	return g.FileTree(), nil
}
