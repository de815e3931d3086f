package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/internal/mcp"
	"github.com/mdevan/debias-mcp/internal/oracle"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	root := flag.String("root", "", "repository root to analyze (default: current directory)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Debias MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", graphstore.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", graphstore.DriverName)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("Debias MCP Server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s, Oracle: %s",
		graphstore.BuildMode, graphstore.DriverName, oracle.DetectProvider())

	repoRoot := *root
	if repoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Failed to determine working directory: %v", err)
		}
		repoRoot = wd
	}

	dbPath := os.Getenv("DEBIAS_DB_PATH")
	if dbPath == "" {
		dbPath = mcp.DefaultDBPath
	}

	server, err := mcp.NewServer(repoRoot, dbPath)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}
