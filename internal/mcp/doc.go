// Package mcp implements the Model Context Protocol (MCP) server for the
// bias-corrected code retrieval system.
//
// The server exposes ten tools to AI coding assistants:
//   - analyze_repository: Analyze every source file under the repository root
//   - process_file: Analyze a single file
//   - query_code: Retrieve files ranked by bias-adjusted relevance
//   - query_code_with_context: query_code plus relationship-graph context
//   - update_file: Apply one reported file change
//   - update_files: Apply a batch of file changes in order
//   - get_related_components: Traverse the relationship graph from a file
//   - get_relationship_graph: Snapshot the traversed subgraph
//   - get_bias_analysis: Bias scores and indicators per file
//   - get_status: Store counts, oracle provider, last analysis time
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Basic Usage
//
// The server is started with the repository root to serve:
//
//	debias -root /path/to/project
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Tool: query_code
//
//	Request:
//	{
//	  "name": "query_code",
//	  "arguments": {
//	    "query": "user authentication logic",
//	    "limit": 10
//	  }
//	}
//
//	Response:
//	{
//	  "query": "user authentication logic",
//	  "results": [
//	    {
//	      "rank": 1,
//	      "file_path": "/path/to/project/internal/auth/service.js",
//	      "scores": {
//	        "textual": 0.71,
//	        "semantic": 0.84,
//	        "functional": 0.62,
//	        "bias": 0.31,
//	        "combined": 0.74
//	      },
//	      "regions": [
//	        {"name": "authenticateUser", "start_line": 45, "end_line": 72, "score": 0.8}
//	      ]
//	    }
//	  ]
//	}
//
// # Tool: update_file
//
//	Request:
//	{
//	  "name": "update_file",
//	  "arguments": {
//	    "file_path": "src/auth.js",
//	    "change_type": "modified"
//	  }
//	}
//
//	Response:
//	{
//	  "file_path": "/path/to/project/src/auth.js",
//	  "change_type": "modified",
//	  "success": true,
//	  "message": "representation updated",
//	  "bias_score": 0.31
//	}
//
// # MCP Client Configuration
//
// Configure in the client's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "debias": {
//	      "command": "/usr/local/bin/debias",
//	      "args": ["-root", "/path/to/project"],
//	      "env": {
//	        "DEBIAS_ORACLE_PROVIDER": "local"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "file_path",
//	      "reason": "missing or empty"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, oracle)
//   - -32001: Query parameter is empty
//   - -32002: Path outside the repository root
//
// # Logging
//
// The server logs to stderr (stdout is reserved for MCP protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("MCP server started")
package mcp
