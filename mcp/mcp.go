// Package mcp exposes the bot over the Model Context Protocol so MCP
// clients can send messages and inspect the connection.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

type MCPServer struct {
	name   string
	Server *server.MCPServer
}

// NewMCPServer advertises the bot's own identity to MCP clients so a
// session with several bots stays tellable apart.
func NewMCPServer(name, version string) *MCPServer {
	return &MCPServer{name: name, Server: server.NewMCPServer(name, version)}
}

func (s *MCPServer) Run() error {
	slog.Info("Started stdio MCP server", "name", s.name)
	defer func() {
		slog.Info("Shut down stdio MCP server", "name", s.name)
	}()
	return server.ServeStdio(s.Server)
}
