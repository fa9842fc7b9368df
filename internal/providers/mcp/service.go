// Package mcp connects to the external tool server over the Model Context
// Protocol and exposes it as the caller the tool invoker delegates to.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/breezebot/breezebot/internal/tools"
	"github.com/breezebot/breezebot/pkg/log"
)

// Service wraps one tool server connection. It holds no per-session state, so
// concurrent sessions may call tools through it without coordination.
type Service struct {
	mu     sync.Mutex
	cli    *client.Client
	closed bool
}

// Connect spawns or dials the tool server and completes the MCP handshake.
func Connect(ctx context.Context, cfg ServerConfig) (*Service, error) {
	tType, err := cfg.GetTransport()
	if err != nil {
		return nil, err
	}

	transport, err := NewTransport(tType)
	if err != nil {
		return nil, err
	}

	cli, err := transport(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tool server connection failed: %w", err)
	}

	log.FromCtx(ctx).Info().Str("transport", string(tType)).Msg("connected to tool server")
	return &Service{cli: cli}, nil
}

// ListTools fetches the server's tool catalog as registry descriptors.
func (s *Service) ListTools(ctx context.Context) ([]tools.Descriptor, error) {
	resp, err := s.cli.ListTools(ctx, mcpproto.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	descriptors := make([]tools.Descriptor, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", t.Name, err)
		}
		descriptors = append(descriptors, tools.Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Schema:      schema,
		})
	}
	return descriptors, nil
}

// CallTool executes a named tool and flattens its text content into one
// payload string. A tool-level error comes back as a Go error for the invoker
// to normalize.
func (s *Service) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcpproto.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.cli.CallTool(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, content := range res.Content {
		switch text := content.(type) {
		case mcpproto.TextContent:
			sb.WriteString(text.Text)
		case *mcpproto.TextContent:
			sb.WriteString(text.Text)
		}
	}

	if res.IsError {
		msg := strings.TrimSpace(sb.String())
		if msg == "" {
			msg = "tool execution failed"
		}
		return "", fmt.Errorf("%s", msg)
	}
	return sb.String(), nil
}

// Ping reports whether the tool server still answers the protocol.
func (s *Service) Ping(ctx context.Context) error {
	return s.cli.Ping(ctx)
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cli.Close()
}
