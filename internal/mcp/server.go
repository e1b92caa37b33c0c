package mcp

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/codegraph-mcp/internal/indexer"
	"github.com/dshills/codegraph-mcp/internal/ranker"
)

const (
	// ServerName is the MCP server name
	ServerName = "codegraph-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"

	// MaxFilesLimit caps the max_files argument
	MaxFilesLimit = 50
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	indexer  *indexer.Indexer
	logger   *slog.Logger
	maxFiles int

	// background builds started by index_codebase outlive the request
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultMaxFiles sets max_files when a request omits it
func WithDefaultMaxFiles(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxFiles = n
		}
	}
}

// NewServer creates a new MCP server instance serving idx
func NewServer(idx *indexer.Indexer, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		indexer:  idx,
		logger:   slog.New(slog.DiscardHandler),
		maxFiles: ranker.DefaultMaxFiles,
		bgCtx:    ctx,
		bgCancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithInstructions("Index a source tree with index_codebase, then call find_relevant_files to pick the files that answer a question."),
	)
	s.registerTools()

	return s
}

// Serve runs the MCP protocol on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Close cancels background builds and waits for them to return
func (s *Server) Close() {
	s.bgCancel()
	s.bg.Wait()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(findRelevantFilesTool(), s.handleFindRelevantFiles)
	s.mcp.AddTool(getRelatedFilesTool(), s.handleGetRelatedFiles)
	s.mcp.AddTool(indexingStatusTool(), s.handleIndexingStatus)
	s.mcp.AddTool(codebaseOverviewTool(), s.handleCodebaseOverview)
	s.mcp.AddTool(searchCodebaseTool(), s.handleSearchCodebase)
	s.mcp.AddTool(fileStructureTool(), s.handleFileStructure)
}
