package assessment

import (
	"sync"
	"time"
)

// Registry keeps the sessions of the current process. Sessions are never
// persisted; a restart discards them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session only if it belongs to userID.
func (r *Registry) Get(id string, userID uint) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, false
	}
	return s, true
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions with no activity since now-maxAge and returns how
// many were removed. Sessions with tracker calls in flight are kept.
func (r *Registry) Prune(now time.Time, maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastActive()) > maxAge && !s.Busy() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
