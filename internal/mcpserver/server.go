package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "hymnsearch"
	serverVersion = "0.1.0"
)

// NewServer registers the hymn tools on a fresh MCP server.
func NewServer(h *Handlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		Instructions: "Use search_hymns to retrieve Rigveda passages and a summary grounded only in them. Use refine_query to see which corpus terms a question maps to.",
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_hymns",
		Description: "Rank hymn passages for a question and optionally summarize them without outside knowledge.",
	}, h.SearchHymns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refine_query",
		Description: "Show the corpus-weighted terms a raw query is rewritten to before embedding.",
	}, h.RefineQuery)

	return server
}

// ServeStdio runs the server on stdin/stdout until ctx is done.
func ServeStdio(ctx context.Context, h *Handlers) error {
	return NewServer(h).Run(ctx, &mcp.StdioTransport{})
}
