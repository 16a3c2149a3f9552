// Package mcp exposes the fleet analytics as Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"rpa-insights/internal/config"
	"rpa-insights/internal/service"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName identifies the server to MCP clients.
const ServerName = "rpa-insights"

// Server holds the state for the MCP server.
type Server struct {
	svc                 *service.Service
	enableMermaidCharts bool
	targetUtilization   float64

	server *sdk.Server
}

// NewServer creates a new MCP server and registers its tools.
func NewServer(cfg *config.AppConfig, svc *service.Service, version string) *Server {
	s := &Server{
		svc:                 svc,
		enableMermaidCharts: cfg.EnableMermaidCharts,
		targetUtilization:   cfg.Analytics.WindowTargetUtilization * 100,
	}
	s.server = sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: version}, nil)
	s.registerTools()
	return s
}

// Start runs the stdio loop until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP server listening on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}
