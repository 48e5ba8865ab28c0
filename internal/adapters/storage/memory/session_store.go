package memory

import (
	"sync"

	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// SessionRegistry holds live sessions in process memory. Sessions are never
// written anywhere else and are lost on restart.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*session.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[domain.SessionID]*session.Session),
	}
}

func (r *SessionRegistry) Add(s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID()]; exists {
		return domain.ErrSessionExists
	}

	r.sessions[s.ID()] = s
	return nil
}

func (r *SessionRegistry) Get(id domain.SessionID) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	return s, nil
}

// Remove drops a session and returns it so the caller can close it.
func (r *SessionRegistry) Remove(id domain.SessionID) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	delete(r.sessions, id)
	return s, nil
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
