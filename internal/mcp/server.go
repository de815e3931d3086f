package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/internal/oracle"
	"github.com/mdevan/debias-mcp/internal/pipeline"
)

const (
	// ServerName is the MCP server name
	ServerName = "debias-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.debias/indices"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	store  graphstore.Store
	engine *pipeline.Engine
}

// NewServer creates a new MCP server instance rooted at repoRoot.
func NewServer(repoRoot, dbPath string) (*Server, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".debias", "indices")
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbFile := filepath.Join(dbPath, "debias.db")

	orc, err := oracle.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}

	store, err := graphstore.NewSQLiteStore(dbFile, namespaceFor(absRoot), orc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	engine, err := pipeline.New(absRoot, store, orc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		store:  store,
		engine: engine,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(analyzeRepositoryTool(), s.handleAnalyzeRepository)
	s.mcp.AddTool(processFileTool(), s.handleProcessFile)
	s.mcp.AddTool(queryCodeTool(), s.handleQueryCode)
	s.mcp.AddTool(queryCodeWithContextTool(), s.handleQueryCodeWithContext)
	s.mcp.AddTool(updateFileTool(), s.handleUpdateFile)
	s.mcp.AddTool(updateFilesTool(), s.handleUpdateFiles)
	s.mcp.AddTool(relatedComponentsTool(), s.handleRelatedComponents)
	s.mcp.AddTool(relationshipGraphTool(), s.handleRelationshipGraph)
	s.mcp.AddTool(biasAnalysisTool(), s.handleBiasAnalysis)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// namespaceFor derives a stable store namespace from the repository root.
func namespaceFor(root string) string {
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:8])
}
