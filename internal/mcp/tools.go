package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed      = -32003 // No graph has been built yet
	ErrorCodeEmptyQuery      = -32004 // Query parameter is empty
	ErrorCodeFileNotFound    = -32005 // Path is not in the graph
	ErrorCodeEmbeddingFailed = -32006 // Embedding provider failed
	ErrorCodeSuperseded      = -32007 // A newer build replaced this one
)

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]any{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]any{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	if getBoolDefault(args, "wait", false) {
		status, err := s.indexer.IndexDirectory(ctx, path)
		if err != nil {
			return nil, toolError("indexing failed", err)
		}
		return mcp.NewToolResultText(formatJSON(status)), nil
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.indexer.IndexDirectory(s.bgCtx, path); err != nil {
			s.logger.Warn("background indexing ended", "path", path, "error", err)
		}
	}()

	response := map[string]any{
		"started": true,
		"path":    path,
		"message": "Indexing started. Use get_indexing_status to follow progress.",
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindRelevantFiles handles the find_relevant_files tool invocation
func (s *Server) handleFindRelevantFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]any{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	maxFiles := getIntDefault(args, "max_files", s.maxFiles)
	if maxFiles < 1 || maxFiles > MaxFilesLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("max_files must be between 1 and %d", MaxFilesLimit), map[string]any{
			"param": "max_files",
			"value": maxFiles,
		})
	}

	result, err := s.indexer.FindRelevantFiles(ctx, query, maxFiles)
	if err != nil {
		return nil, toolError("ranking failed", err)
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetRelatedFiles handles the get_related_files tool invocation
func (s *Server) handleGetRelatedFiles(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]any{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	rel, err := s.indexer.GetRelatedFiles(path)
	if err != nil {
		return nil, toolError("lookup failed", err)
	}
	response := map[string]any{
		"path":          path,
		"relationships": rel,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexingStatus handles the get_indexing_status tool invocation. Before
// any build in this process it falls back to the last persisted status.
func (s *Server) handleIndexingStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.indexer.Status()
	if status.StartedAt.IsZero() {
		if saved, err := s.indexer.LoadPersistedStatus(ctx); err == nil {
			response := map[string]any{
				"indexed":   false,
				"persisted": saved,
				"message":   "No graph in memory. Use index_codebase to build one.",
			}
			return mcp.NewToolResultText(formatJSON(response)), nil
		}
		response := map[string]any{
			"indexed": false,
			"message": "Codebase not indexed. Use index_codebase to build the graph.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]any{
		"indexed":      s.indexer.Graph() != nil,
		"status":       status,
		"success_rate": fmt.Sprintf("%.1f", status.SuccessRate()),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCodebaseOverview handles the get_codebase_overview tool invocation
func (s *Server) handleCodebaseOverview(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ov, err := s.indexer.Overview()
	if err != nil {
		return nil, toolError("overview failed", err)
	}
	return mcp.NewToolResultText(formatJSON(ov)), nil
}

// handleSearchCodebase handles the search_codebase tool invocation
func (s *Server) handleSearchCodebase(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	term, ok := args["term"].(string)
	if !ok || strings.TrimSpace(term) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "term parameter is required and cannot be empty", map[string]any{
			"param":  "term",
			"reason": "missing or empty",
		})
	}

	matches, err := s.indexer.Search(term)
	if err != nil {
		return nil, toolError("search failed", err)
	}
	response := map[string]any{
		"term":    term,
		"files":   len(matches),
		"results": matches,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFileStructure handles the get_file_structure tool invocation
func (s *Server) handleFileStructure(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := s.indexer.FileTree()
	if err != nil {
		return nil, toolError("file structure failed", err)
	}
	return mcp.NewToolResultText(formatJSON(tree)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data any) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    any
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// toolError maps domain errors onto MCP error codes
func toolError(message string, err error) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrNotIndexed):
		code = ErrorCodeNotIndexed
		message = "codebase not indexed; call index_codebase first"
	case errors.Is(err, types.ErrEmptyQuery):
		code = ErrorCodeEmptyQuery
	case errors.Is(err, types.ErrFileNotFound):
		code = ErrorCodeFileNotFound
	case errors.Is(err, types.ErrEmbeddingProvider):
		code = ErrorCodeEmbeddingFailed
	case errors.Is(err, types.ErrBuildSuperseded):
		code = ErrorCodeSuperseded
	}
	return newMCPError(code, message, map[string]any{
		"error": err.Error(),
	})
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a value as indented JSON
func formatJSON(data any) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]any, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]any, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
