package mcp

import "fmt"

type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportHTTP  TransportType = "http"
	TransportSSE   TransportType = "sse"
)

// ServerConfig describes how to reach the tool server: a command to spawn
// over stdio, or a URL for HTTP/SSE transports.
type ServerConfig struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	Transport TransportType `json:"transport,omitempty"`
}

// GetTransport resolves the transport, inferring it from the populated
// fields when not set explicitly.
func (c ServerConfig) GetTransport() (TransportType, error) {
	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
		return c.Transport, nil
	case "":
	default:
		return "", fmt.Errorf("unknown transport: %s", c.Transport)
	}

	if c.Command != "" {
		return TransportStdio, nil
	}
	if c.URL != "" {
		return TransportHTTP, nil
	}
	return "", fmt.Errorf("server config needs a command or a url")
}
