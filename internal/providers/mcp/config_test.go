package mcp

import "testing"

func TestServerConfig_GetTransport(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		want    TransportType
		wantErr bool
	}{
		{
			name: "explicit_stdio",
			cfg:  ServerConfig{Transport: TransportStdio, Command: "breeze"},
			want: TransportStdio,
		},
		{
			name: "explicit_sse",
			cfg:  ServerConfig{Transport: TransportSSE, URL: "http://localhost:9000"},
			want: TransportSSE,
		},
		{
			name: "inferred_stdio_from_command",
			cfg:  ServerConfig{Command: "breeze", Args: []string{"toolserver"}},
			want: TransportStdio,
		},
		{
			name: "inferred_http_from_url",
			cfg:  ServerConfig{URL: "http://localhost:9000/mcp"},
			want: TransportHTTP,
		},
		{
			name:    "unknown_transport",
			cfg:     ServerConfig{Transport: "carrier-pigeon"},
			wantErr: true,
		},
		{
			name:    "empty_config",
			cfg:     ServerConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.GetTransport()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("transport = %s, want %s", got, tt.want)
			}
		})
	}
}
