package organizer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

// Session owns the organizer state of one upload/edit session and applies
// actions in the order they are dispatched
type Session struct {
	mu     sync.Mutex
	state  State
	count  int
	logger *zap.Logger
}

// NewSession starts a session over the visible input placeholders
func NewSession(visible []placeholder.Placeholder, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		state:  NewState(visible),
		logger: logger,
	}
}

// Dispatch applies a and returns a copy of the resulting state
func (s *Session) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	s.count++
	if a != nil {
		s.logger.Debug("applied organizer action",
			zap.String("action", a.Type()),
			zap.Int("seq", s.count),
			zap.Int("pool", len(s.state.Pool)),
			zap.Int("steps", len(s.state.Steps)))
	}
	return s.state.Clone()
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Actions returns how many actions have been dispatched
func (s *Session) Actions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
