package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/flows"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes every flow as a tool.
type Server struct {
	flows  *flows.Service
	logger *zap.Logger
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server for the given flow service.
func NewServer(svc *flows.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{flows: svc, logger: logger}

	s.mcp = server.NewMCPServer(
		"krishi-mitra",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds one tool per flow.
func (s *Server) registerTools() {
	for _, info := range s.flows.List() {
		s.mcp.AddTool(flowTool(info), s.flowHandler(info.Name))
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
