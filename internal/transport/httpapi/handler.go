// Package httpapi is the protocol boundary: it frames orchestrator events as
// NDJSON over HTTP, enforces one in-flight generation per session, and exposes
// the readiness probe.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/internal/orchestrator"
	"github.com/breezebot/breezebot/pkg/log"
)

// Prober checks one upstream dependency for the readiness endpoint.
type Prober interface {
	Health(ctx context.Context) error
}

// Pinger checks the tool server connection. A nil Pinger means tools were
// not configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	sessions  *orchestrator.Sessions
	generator Prober
	tools     Pinger
}

func NewHandler(sessions *orchestrator.Sessions, generator Prober, tools Pinger) *Handler {
	return &Handler{
		sessions:  sessions,
		generator: generator,
		tools:     tools,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	SessionID string        `json:"session_id"`
	RequestID string        `json:"request_id,omitempty"`
	Messages  []chatMessage `json:"messages"`

	// Pointers distinguish an absent field from an explicit false.
	ToolsEnabled *bool `json:"tools_enabled"`
	Stream       *bool `json:"stream"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	logger := log.FromCtx(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != string(core.RoleUser) {
		writeError(w, http.StatusBadRequest, "last message must have role user")
		return
	}

	toolsEnabled := h.tools != nil
	if req.ToolsEnabled != nil {
		toolsEnabled = *req.ToolsEnabled && h.tools != nil
	}
	stream := true
	if req.Stream != nil {
		stream = *req.Stream
	}

	sess, _ := h.sessions.GetOrCreate(req.SessionID)
	if !sess.TryAcquire() {
		writeError(w, http.StatusConflict, "busy")
		return
	}
	defer sess.Release()

	// A session with no transcript yet is seeded from the supplied history;
	// otherwise the server transcript is authoritative and only the trailing
	// user message counts. Checked under the claim: whoever wins the claim
	// on a fresh session seeds it, regardless of who created the table entry.
	if len(req.Messages) > 1 && sess.Conversation().Len() == 0 {
		sess.Conversation().Seed(seedTurns(req.Messages[:len(req.Messages)-1]))
	}

	logger.Info().
		Str("session_id", req.SessionID).
		Str("request_id", req.RequestID).
		Bool("tools_enabled", toolsEnabled).
		Bool("stream", stream).
		Msg("chat turn accepted")

	if stream {
		h.streamTurn(w, r, sess, last.Content, toolsEnabled)
		return
	}
	h.collectTurn(w, r, sess, last.Content, toolsEnabled)
}

func (h *Handler) streamTurn(w http.ResponseWriter, r *http.Request, sess *orchestrator.Session, input string, toolsEnabled bool) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	emit := func(ev core.StreamEvent) error {
		if err := r.Context().Err(); err != nil {
			return err
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if err := sess.Orchestrator().Run(r.Context(), input, toolsEnabled, emit); err != nil {
		// The terminal event is already on the wire; nothing more to send.
		log.FromCtx(r.Context()).Warn().Err(err).Str("session_id", sess.ID).Msg("turn ended with error")
	}
}

func (h *Handler) collectTurn(w http.ResponseWriter, r *http.Request, sess *orchestrator.Session, input string, toolsEnabled bool) {
	var events []core.StreamEvent
	emit := func(ev core.StreamEvent) error {
		events = append(events, ev)
		return nil
	}

	if err := sess.Orchestrator().Run(r.Context(), input, toolsEnabled, emit); err != nil {
		log.FromCtx(r.Context()).Warn().Err(err).Str("session_id", sess.ID).Msg("turn ended with error")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"events":     events,
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sess, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if !sess.TryAcquire() {
		writeError(w, http.StatusConflict, "busy")
		return
	}
	// Drop the table entry while holding the claim so no new turn can slip in.
	h.sessions.Delete(id)
	sess.Release()

	log.FromCtx(r.Context()).Info().Str("session_id", id).Msg("session reset")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	generatorStatus := "ok"
	toolStatus := "ok"

	var g errgroup.Group
	g.Go(func() error {
		if err := h.generator.Health(ctx); err != nil {
			generatorStatus = "unreachable"
			return err
		}
		return nil
	})
	g.Go(func() error {
		if h.tools == nil {
			toolStatus = "disabled"
			return nil
		}
		if err := h.tools.Ping(ctx); err != nil {
			toolStatus = "unreachable"
			return err
		}
		return nil
	})

	status := "ok"
	code := http.StatusOK
	if err := g.Wait(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"details": map[string]string{
			"generator":   generatorStatus,
			"tool_server": toolStatus,
		},
	})
}

func seedTurns(messages []chatMessage) []core.Turn {
	turns := make([]core.Turn, 0, len(messages))
	for _, m := range messages {
		role := core.Role(m.Role)
		switch role {
		case core.RoleUser, core.RoleAssistant, core.RoleSystem, core.RoleTool:
		default:
			continue
		}
		turns = append(turns, core.Turn{Role: role, Content: m.Content})
	}
	return turns
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
