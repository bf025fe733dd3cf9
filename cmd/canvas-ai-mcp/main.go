// canvas-ai-mcp is the MCP stdio server for the canvas-ai CLI.
//
// It exposes one MCP tool per CLI command plus read-only resources over the
// run history. Each tool call spawns `canvas-ai --json ...` and relays the
// envelope, so the CLI stays the single enforcement point for confirmation,
// policy, and idempotency. Set CANVAS_AI_BIN to point at a specific build.
//
// Usage:
//
//	canvas-ai-mcp
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/canvasai/canvas-ai/internal/mcpserver"
)

func main() {
	srv := mcpserver.New(mcpserver.NewRunner())
	if err := server.ServeStdio(srv); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "canvas-ai-mcp: %v\n", err)
		os.Exit(1)
	}
}
