// Package mcp exposes the estimators and glucose log as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vladimiradmaev/diabetes-tracker/internal/interfaces"
)

// Dependencies are the services the tools call
type Dependencies struct {
	EstimatorSvc interfaces.EstimatorServiceInterface
	GlucoseSvc   interfaces.GlucoseServiceInterface
}

// Server wraps the MCP server with service access
type Server struct {
	mcpServer *mcp.Server
	deps      Dependencies
}

// NewServer creates a new MCP server over deps
func NewServer(deps Dependencies, version string) *Server {
	if version == "" {
		version = "dev"
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "diabetes-tracker",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		deps:      deps,
	}
	s.registerTools()
	return s
}

// Serve runs the server on the stdio transport until ctx is cancelled or
// the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
