package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/codegraph-mcp/internal/language"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// IndexDirectory walks root once and builds the graph from every readable
// text file. Ignored directories are pruned before descending.
func (idx *Indexer) IndexDirectory(ctx context.Context, root string) (*Status, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	matcher, err := language.NewMatcher(abs, idx.ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore rules: %w", err)
	}

	b, cancel := idx.begin(ctx, abs)
	defer cancel()

	files, err := idx.walk(b, abs, matcher)
	if err != nil {
		return nil, idx.abort(b, err)
	}
	return idx.run(b, files)
}

// walk reads the tree under root. Unreadable files are counted failed;
// binary and oversized files are skipped.
func (idx *Indexer) walk(b *build, root string, matcher *language.Matcher) (map[string]string, error) {
	files := make(map[string]string)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := b.ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			idx.failWalk(b, rel, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel != "." && (language.IsIgnoredDir(d.Name()) || matcher.MatchDir(rel)) {
				idx.logger.Debug("pruned directory", "dir", rel)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || matcher.Match(rel) {
			return nil
		}
		if language.IsBinaryExt(rel) {
			idx.skip(b, rel, types.ErrBinaryFile)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			idx.failWalk(b, rel, err)
			return nil
		}
		if info.Size() > idx.maxFileSize {
			idx.skip(b, rel, types.ErrFileTooLarge)
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			idx.failWalk(b, rel, err)
			return nil
		}
		files[rel] = string(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// failWalk counts a file that could not be read
func (idx *Indexer) failWalk(b *build, rel string, err error) {
	ferr := types.NewFileError(rel, fmt.Errorf("%w: %w", types.ErrFileRead, err))
	idx.update(b, func(s *Status) { s.TotalFiles++ })
	idx.fail(b, rel, ferr)
}

func (idx *Indexer) skip(b *build, rel string, reason error) {
	idx.logger.Debug("skipped file", "file", rel, "reason", reason)
	idx.update(b, func(s *Status) { s.SkippedFiles++ })
}
