package toolserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/pkg/log"
)

// NewServer builds the MCP server exposing the weather tool.
func NewServer(weather *WeatherClient) *server.MCPServer {
	s := server.NewMCPServer(
		core.AppName+"-tools",
		core.AppVersion,
		server.WithToolCapabilities(false),
	)

	tool := mcp.NewTool("weather",
		mcp.WithDescription("Get the current weather for a location."),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description(`Location as "City, CC" where CC is a two-letter ISO-3166 country code or US state code, e.g. "San Juan, PR".`),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		location, err := request.RequireString("location")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := weather.Current(ctx, location)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("location", location).Msg("weather lookup failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(report.Format()), nil
	})

	return s
}

// Serve runs the server over stdio until the parent closes the pipe.
func Serve(weather *WeatherClient) error {
	return server.ServeStdio(NewServer(weather))
}
