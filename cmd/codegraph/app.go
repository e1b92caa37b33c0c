package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/codegraph-mcp/internal/config"
	"github.com/dshills/codegraph-mcp/internal/embedder"
	"github.com/dshills/codegraph-mcp/internal/extractor"
	"github.com/dshills/codegraph-mcp/internal/indexer"
	"github.com/dshills/codegraph-mcp/internal/storage"
	"github.com/dshills/codegraph-mcp/internal/summarizer"
)

// app holds the collaborators shared by every command
type app struct {
	indexer  *indexer.Indexer
	embedder embedder.Embedder
	store    *storage.SQLiteStorage
}

// newApp wires storage, the embedding provider and the optional summarizer
// into an indexer according to cfg
func newApp() (*app, error) {
	emb, err := embedder.New(cfg.EmbedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	a := &app{embedder: emb}
	opts := []indexer.Option{
		indexer.WithLogger(logger),
		indexer.WithWorkers(cfg.Workers),
		indexer.WithMaxFileSize(cfg.MaxFileSize),
		indexer.WithIgnorePatterns(cfg.ExtraIgnore...),
	}
	if cfg.Extractor == config.ExtractorSyntax {
		opts = append(opts, indexer.WithExtractor(extractor.NewSyntaxExtractor()))
	}

	dbPath, err := cfg.ResolvedDBPath()
	if err != nil {
		a.close()
		return nil, err
	}
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := storage.NewSQLiteStorage(dbPath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.store = store
		opts = append(opts, indexer.WithStore(store))
		logger.Debug("persistence enabled", "db", dbPath, "driver", storage.DriverName)
	}

	if cfg.Summary.Enabled() {
		sumOpts := []summarizer.Option{summarizer.WithModel(cfg.Summary.Model)}
		if cfg.Summary.BaseURL != "" {
			sumOpts = append(sumOpts, summarizer.WithBaseURL(cfg.Summary.BaseURL))
		}
		if cfg.Summary.MaxMethods > 0 {
			sumOpts = append(sumOpts, summarizer.WithMaxMethods(cfg.Summary.MaxMethods))
		}
		sum, err := summarizer.NewOpenAI(cfg.Summary.APIKey, sumOpts...)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create summarizer: %w", err)
		}
		opts = append(opts, indexer.WithSummarizer(sum))
	}

	a.indexer = indexer.New(emb, opts...)
	return a, nil
}

// close releases everything newApp opened, in reverse order
func (a *app) close() {
	var errs []error
	if a.indexer != nil {
		a.indexer.Close()
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("failed to release resources", "error", err)
	}
}
