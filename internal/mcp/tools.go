package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes the admin API as MCP tools
type Server struct {
	server *mcp.Server
}

// NewServer creates the MCP server and registers all tools
func NewServer(client *Client, version string) *Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "robotzoo-tools",
		Version: version,
	}, nil)

	registerTools(server, NewHandler(client))
	return &Server{server: server}
}

func registerTools(server *mcp.Server, h *Handler) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "robotzoo_list_terms",
		Description: "List the terms the keyword watcher reposts on, in order, with the compiled pattern.",
	}, h.ListTerms)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "robotzoo_add_term",
		Description: "Add a term to watch for. Posts containing it may be reposted and their authors followed.",
	}, h.AddTerm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "robotzoo_remove_term",
		Description: "Stop watching a term.",
	}, h.RemoveTerm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "robotzoo_get_chance",
		Description: "Get the chance, in percent, that a matching post is reposted and its author followed.",
	}, h.GetChance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "robotzoo_set_chance",
		Description: "Set the chance, in percent, that a matching post is reposted and its author followed.",
	}, h.SetChance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "robotzoo_list_alarms",
		Description: "List pending alarm clock requests by HH:MM, with the requesting message and user.",
	}, h.ListAlarms)
}

// Run serves MCP over stdio until the client disconnects or ctx ends
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
