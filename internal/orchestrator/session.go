package orchestrator

import (
	"sync"

	"github.com/breezebot/breezebot/internal/chat"
)

// Session binds a conversation to its orchestrator and carries the busy
// flag. At most one turn runs per session; concurrent requests must fail
// fast instead of queueing.
type Session struct {
	ID string

	mu   sync.Mutex
	busy bool

	conv *chat.Conversation
	orch *Orchestrator
}

// TryAcquire claims the session for one turn. It never blocks.
func (s *Session) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) Release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) Orchestrator() *Orchestrator {
	return s.orch
}

func (s *Session) Conversation() *chat.Conversation {
	return s.conv
}

// Factory builds the orchestrator for a newly created session.
type Factory func(sessionID string, conv *chat.Conversation) *Orchestrator

// Sessions is the live session table. Sessions are created on first use and
// live until explicitly deleted.
type Sessions struct {
	mu      sync.RWMutex
	table   map[string]*Session
	factory Factory
}

func NewSessions(factory Factory) *Sessions {
	return &Sessions{
		table:   make(map[string]*Session),
		factory: factory,
	}
}

// GetOrCreate returns the session for id, creating it if unknown. The second
// result reports whether the session was just created.
func (s *Sessions) GetOrCreate(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.table[id]
	s.mu.RUnlock()
	if ok {
		return sess, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.table[id]; ok {
		return sess, false
	}
	conv := chat.NewConversation()
	sess = &Session{
		ID:   id,
		conv: conv,
		orch: s.factory(id, conv),
	}
	s.table[id] = sess
	return sess, true
}

func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.table[id]
	return sess, ok
}

// Delete removes the session. It reports false when the id is unknown.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.table[id]; !ok {
		return false
	}
	delete(s.table, id)
	return true
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}
