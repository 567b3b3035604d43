package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

// flowHandler runs the named flow with the tool arguments as input and
// returns the flow output as JSON text. Flow failures become tool errors.
func (s *Server) flowHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		res, err := s.flows.Invoke(ctx, name, args)
		if err != nil {
			kind := pipeline.KindOf(err)
			s.logger.Warn("mcp tool failed", zap.String("flow", name), zap.String("kind", string(kind)), zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("%s error: %v", kind, err)), nil
		}

		out, err := json.MarshalIndent(res.Output, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding output: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
