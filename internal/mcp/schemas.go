package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names
const (
	ToolIndexCodebase     = "index_codebase"
	ToolFindRelevantFiles = "find_relevant_files"
	ToolGetRelatedFiles   = "get_related_files"
	ToolIndexingStatus    = "get_indexing_status"
	ToolCodebaseOverview  = "get_codebase_overview"
	ToolSearchCodebase    = "search_codebase"
	ToolFileStructure     = "get_file_structure"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolIndexCodebase,
		Description: "Build the relationship graph of a source tree. Replaces any previous index; a running build is cancelled.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to the root of the source tree",
				},
				"wait": map[string]any{
					"type":        "boolean",
					"description": "If true, return after the build finishes; otherwise build in the background and poll get_indexing_status",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// findRelevantFilesTool returns the tool definition for find_relevant_files
func findRelevantFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolFindRelevantFiles,
		Description: "Rank indexed files against a natural-language question and expand the best matches with their direct imports, importers and references",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural-language question about the codebase",
				},
				"max_files": map[string]any{
					"type":        "integer",
					"description": "Number of top-ranked seed files; the expanded result holds at most twice this many",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getRelatedFilesTool returns the tool definition for get_related_files
func getRelatedFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetRelatedFiles,
		Description: "List the files a given file imports, is imported by, references and is referenced by",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Repository-relative path of an indexed file",
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexingStatusTool returns the tool definition for get_indexing_status
func indexingStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolIndexingStatus,
		Description: "Report progress of the current or last build",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}

// codebaseOverviewTool returns the tool definition for get_codebase_overview
func codebaseOverviewTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolCodebaseOverview,
		Description: "Summarize the indexed codebase: languages, entry points, core files and purpose",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}

// searchCodebaseTool returns the tool definition for search_codebase
func searchCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolSearchCodebase,
		Description: "Case-insensitive text search over indexed files with surrounding lines of context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"term": map[string]any{
					"type":        "string",
					"description": "Text to search for",
				},
			},
			Required: []string{"term"},
		},
	}
}

// fileStructureTool returns the tool definition for get_file_structure
func fileStructureTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolFileStructure,
		Description: "Directory tree of the indexed files",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}
