package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func analyzeRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_repository",
		Description: "Analyze every source file under the repository root: extract features, score textual bias, augment with semantic descriptors, and store representations and relationships",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func processFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "process_file",
		Description: "Run the full analysis pipeline for one source file and store the result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to process, absolute or relative to the repository root",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

func queryCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_code",
		Description: "Retrieve code files for a natural-language query, ranked by bias-adjusted combined relevance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language or keyword query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

func queryCodeWithContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_code_with_context",
		Description: "Like query_code, but each result carries related components from the relationship graph, a context summary, and a dependency chain",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language or keyword query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

func updateFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_file",
		Description: "Apply one reported file change: reprocess on created/modified, remove the stored representation on deleted",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the changed file, absolute or relative to the repository root",
				},
				"change_type": map[string]interface{}{
					"type":        "string",
					"description": "What happened to the file",
					"enum":        []string{"created", "modified", "deleted"},
				},
			},
			Required: []string{"file_path", "change_type"},
		},
	}
}

func updateFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_files",
		Description: "Apply a batch of reported file changes; results preserve the input order and one failure never aborts the batch",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"changes": map[string]interface{}{
					"type":        "array",
					"description": "List of file changes to apply in order",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"file_path": map[string]interface{}{
								"type": "string",
							},
							"change_type": map[string]interface{}{
								"type": "string",
								"enum": []string{"created", "modified", "deleted"},
							},
						},
						"required": []string{"file_path", "change_type"},
					},
				},
			},
			Required: []string{"changes"},
		},
	}
}

func relatedComponentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_related_components",
		Description: "List graph neighbors of a file with relevance scores, bounded by depth and optional relationship-type and score filters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to start from",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum traversal depth (default 3)",
					"default":     3,
					"minimum":     1,
					"maximum":     10,
				},
				"relationship_types": map[string]interface{}{
					"type":        "array",
					"description": "Restrict traversal to these relationship types",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"imports", "exports", "calls", "extends", "implements", "mixin", "uses", "depends_on"},
					},
				},
				"min_relevance": map[string]interface{}{
					"type":        "number",
					"description": "Minimum relevance score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"file_path"},
		},
	}
}

func relationshipGraphTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_relationship_graph",
		Description: "Return the traversed subgraph (nodes, edges, traversal statistics) rooted at a file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to start from",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum traversal depth (default 3)",
					"default":     3,
					"minimum":     1,
					"maximum":     10,
				},
				"relationship_types": map[string]interface{}{
					"type":        "array",
					"description": "Restrict traversal to these relationship types",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"imports", "exports", "calls", "extends", "implements", "mixin", "uses", "depends_on"},
					},
				},
			},
			Required: []string{"file_path"},
		},
	}
}

func biasAnalysisTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_bias_analysis",
		Description: "Report bias scores and textual-dependence indicators, for one file or for every analyzed file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Optional path to scope the report to one file",
				},
			},
		},
	}
}

func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report system state: stored representation and relationship counts, oracle provider, and last analysis time",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
