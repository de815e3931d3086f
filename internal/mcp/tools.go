package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/internal/pipeline"
	"github.com/mdevan/debias-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32001 // Query parameter is empty
	ErrorCodePathRejected  = -32002 // Path outside the repository root
)

// handleAnalyzeRepository handles the analyze_repository tool invocation
func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.AnalyzeRepository(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"files_processed":    stats.FilesProcessed,
		"files_skipped":      stats.FilesSkipped,
		"files_failed":       stats.FilesFailed,
		"total_files":        stats.TotalFiles,
		"bias_detected":      stats.BiasDetected,
		"average_bias_score": stats.AverageBiasScore,
		"duration_ms":        stats.ProcessingTime.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleProcessFile handles the process_file tool invocation
func (s *Server) handleProcessFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, ok := args["file_path"].(string)
	if !ok || path == "" {
		return nil, missingParam("file_path")
	}

	rep, err := s.engine.ProcessFile(ctx, path)
	if err != nil {
		return nil, engineError(err, "processing failed")
	}

	response := map[string]interface{}{
		"file_path":      rep.FilePath,
		"bias_score":     rep.BiasScore,
		"complexity":     rep.Structural.Complexity,
		"function_count": rep.Structural.FunctionCount,
		"class_count":    rep.Structural.ClassCount,
		"relationships":  rep.Relationships.Count(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleQueryCode handles the query_code tool invocation
func (s *Server) handleQueryCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, limit, err := queryParams(request)
	if err != nil {
		return nil, err
	}

	results, qerr := s.engine.QueryCode(ctx, query, limit)
	if qerr != nil {
		return nil, newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
			"error": qerr.Error(),
		})
	}

	formatted := make([]map[string]interface{}, len(results))
	for i, r := range results {
		formatted[i] = formatResult(&r)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"results": formatted,
	})), nil
}

// handleQueryCodeWithContext handles the query_code_with_context tool invocation
func (s *Server) handleQueryCodeWithContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, limit, err := queryParams(request)
	if err != nil {
		return nil, err
	}

	results, qerr := s.engine.QueryCodeWithContext(ctx, query, limit)
	if qerr != nil {
		return nil, newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
			"error": qerr.Error(),
		})
	}

	formatted := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entry := formatResult(&r.RetrievalResult)
		entry["context_summary"] = r.ContextSummary
		entry["dependency_chain"] = r.DependencyChain

		related := make([]map[string]interface{}, len(r.RelatedComponents))
		for j, c := range r.RelatedComponents {
			related[j] = map[string]interface{}{
				"file_path":         c.FilePath,
				"component_name":    c.ComponentName,
				"component_type":    c.ComponentType,
				"relationship_type": string(c.RelationshipType),
				"relevance_score":   c.RelevanceScore,
				"distance":          c.Distance,
			}
		}
		entry["related_components"] = related
		formatted[i] = entry
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"results": formatted,
	})), nil
}

// handleUpdateFile handles the update_file tool invocation
func (s *Server) handleUpdateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, ok := args["file_path"].(string)
	if !ok || path == "" {
		return nil, missingParam("file_path")
	}
	change, ok := args["change_type"].(string)
	if !ok || change == "" {
		return nil, missingParam("change_type")
	}

	result := s.engine.UpdateFile(ctx, path, types.ChangeType(change))
	return mcp.NewToolResultText(formatJSON(formatUpdateResult(result))), nil
}

// handleUpdateFiles handles the update_files tool invocation
func (s *Server) handleUpdateFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	rawChanges, ok := args["changes"].([]interface{})
	if !ok || len(rawChanges) == 0 {
		return nil, missingParam("changes")
	}

	changes := make([]pipeline.FileChange, 0, len(rawChanges))
	for i, raw := range rawChanges {
		item, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("changes[%d] must be an object", i), nil)
		}
		path, _ := item["file_path"].(string)
		change, _ := item["change_type"].(string)
		if path == "" || change == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("changes[%d] requires file_path and change_type", i), nil)
		}
		changes = append(changes, pipeline.FileChange{
			FilePath: path,
			Change:   types.ChangeType(change),
		})
	}

	batch := s.engine.UpdateFiles(ctx, changes)
	results := make([]map[string]interface{}, len(batch.Results))
	for i, r := range batch.Results {
		results[i] = formatUpdateResult(r)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
		"results":   results,
	})), nil
}

// handleRelatedComponents handles the get_related_components tool invocation
func (s *Server) handleRelatedComponents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, ok := args["file_path"].(string)
	if !ok || path == "" {
		return nil, missingParam("file_path")
	}

	opts := graphstore.TraversalOptions{
		MaxDepth: getIntDefault(args, "max_depth", graphstore.DefaultMaxDepth),
		Types:    relationTypes(args),
	}
	if min, ok := args["min_relevance"].(float64); ok {
		opts.MinRelevanceScore = min
	}

	components, err := s.engine.RelatedComponents(ctx, path, opts)
	if err != nil {
		return nil, engineError(err, "traversal failed")
	}

	formatted := make([]map[string]interface{}, len(components))
	for i, c := range components {
		formatted[i] = map[string]interface{}{
			"file_path":         c.FilePath,
			"component_name":    c.ComponentName,
			"component_type":    c.ComponentType,
			"relationship_type": string(c.RelationshipType),
			"relevance_score":   c.RelevanceScore,
			"distance":          c.Distance,
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_path":  path,
		"components": formatted,
	})), nil
}

// handleRelationshipGraph handles the get_relationship_graph tool invocation
func (s *Server) handleRelationshipGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path, ok := args["file_path"].(string)
	if !ok || path == "" {
		return nil, missingParam("file_path")
	}
	maxDepth := getIntDefault(args, "max_depth", graphstore.DefaultMaxDepth)

	result, err := s.engine.RelationshipGraph(ctx, path, relationTypes(args), maxDepth)
	if err != nil {
		return nil, engineError(err, "traversal failed")
	}

	nodes := make([]map[string]interface{}, len(result.Graph.Nodes))
	for i, n := range result.Graph.Nodes {
		nodes[i] = map[string]interface{}{
			"file_path": n.FilePath,
			"label":     n.Label,
		}
	}
	edges := make([]map[string]interface{}, len(result.Graph.Edges))
	for i, e := range result.Graph.Edges {
		edges[i] = map[string]interface{}{
			"from":   e.From,
			"to":     e.To,
			"type":   string(e.Type),
			"weight": e.Weight,
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_path": path,
		"nodes":     nodes,
		"edges":     edges,
		"stats": map[string]interface{}{
			"nodes_visited":   result.Stats.NodesVisited,
			"edges_traversed": result.Stats.EdgesTraversed,
			"max_depth":       result.Stats.MaxDepthReached,
			"elapsed_ms":      result.Stats.ElapsedMS,
		},
	})), nil
}

// handleBiasAnalysis handles the get_bias_analysis tool invocation
func (s *Server) handleBiasAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := ""
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		path, _ = args["file_path"].(string)
	}

	report, err := s.engine.BiasAnalysis(ctx, path)
	if err != nil {
		return nil, engineError(err, "bias analysis failed")
	}

	files := make([]map[string]interface{}, len(report.Files))
	for i, f := range report.Files {
		indicators := make([]map[string]interface{}, len(f.Indicators))
		for j, ind := range f.Indicators {
			indicators[j] = map[string]interface{}{
				"type":        ind.Type,
				"severity":    ind.Severity,
				"description": ind.Description,
			}
		}
		files[i] = map[string]interface{}{
			"file_path":  f.FilePath,
			"bias_score": f.BiasScore,
			"indicators": indicators,
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"files":              files,
		"average_bias_score": report.AverageBiasScore,
		"high_bias_count":    report.HighBiasCount,
		"threshold":          report.Threshold,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"repository_root": stats.RepositoryRoot,
		"namespace":       stats.Namespace,
		"representations": stats.Representations,
		"relationships":   stats.Relationships,
		"cached_files":    stats.CachedFiles,
		"oracle_provider": stats.OracleProvider,
	}
	if !stats.LastAnalyzedAt.IsZero() {
		response["last_analyzed_at"] = stats.LastAnalyzedAt.Format(time.RFC3339)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// queryParams extracts the shared query/limit parameters of the query tools.
func queryParams(request mcp.CallToolRequest) (string, int, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", 0, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", 0, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return "", 0, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	return query, limit, nil
}

// relationTypes parses the optional relationship_types array parameter.
func relationTypes(args map[string]interface{}) []types.RelationType {
	raw, ok := args["relationship_types"].([]interface{})
	if !ok {
		return nil
	}
	var out []types.RelationType
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, types.RelationType(s))
		}
	}
	return out
}

func formatResult(r *types.RetrievalResult) map[string]interface{} {
	regions := make([]map[string]interface{}, len(r.Regions))
	for i, reg := range r.Regions {
		regions[i] = map[string]interface{}{
			"name":       reg.Name,
			"start_line": reg.StartLine,
			"end_line":   reg.EndLine,
			"score":      reg.Score,
		}
	}
	return map[string]interface{}{
		"file_path": r.FilePath,
		"rank":      r.Rank,
		"scores": map[string]interface{}{
			"textual":    r.Scores.Textual,
			"semantic":   r.Scores.Semantic,
			"functional": r.Scores.Functional,
			"bias":       r.Scores.Bias,
			"combined":   r.Scores.Combined,
		},
		"regions": regions,
	}
}

func formatUpdateResult(r types.UpdateResult) map[string]interface{} {
	out := map[string]interface{}{
		"file_path":   r.FilePath,
		"change_type": string(r.Change),
		"success":     r.Success,
		"message":     r.Message,
	}
	if r.BiasScore != nil {
		out["bias_score"] = *r.BiasScore
	}
	return out
}

func missingParam(name string) error {
	return newMCPError(ErrorCodeInvalidParams, name+" parameter is required", map[string]interface{}{
		"param":  name,
		"reason": "missing or empty",
	})
}

// engineError maps an engine failure to the right MCP code: path
// rejections get ErrorCodePathRejected, everything else is internal.
func engineError(err error, message string) error {
	code := ErrorCodeInternalError
	if errors.Is(err, pipeline.ErrPathOutsideRoot) {
		code = ErrorCodePathRejected
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
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
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
