package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/breezebot/breezebot/internal/config"
	"github.com/breezebot/breezebot/pkg/log"
)

// Server is the HTTP gateway, run as a managed service.
type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, handler *Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", handler.Chat)
	mux.HandleFunc("DELETE /v1/sessions/{id}", handler.DeleteSession)
	mux.HandleFunc("GET /healthz", handler.Health)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.httpServer.Addr).Msg("http gateway listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
