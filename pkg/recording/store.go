package recording

import "sync"

// Session is the local record of a room's recording. It is advisory only:
// the LiveKit egress listing is the authoritative state, and every operation
// reconciles against it before trusting a Session.
type Session struct {
	EgressID      string
	StartedAt     int64 // epoch ms; file-confirmed when available, provisional otherwise
	StartedBy     string
	NotBeforeStop int64 // epoch ms; StartedAt + the configured minimum active duration
}

// Store maps room name to its single active Session. It is shared by request
// handlers and the cleanup sweeper, so all access goes through one RWMutex.
// The store is deliberately process-local and ephemeral; a restart loses it
// and reconciliation rebuilds it from the egress listing.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// Get returns the session for a room, if any.
func (s *Store) Get(room string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[room]
	return sess, ok
}

// Put creates or replaces the session for a room.
func (s *Store) Put(room string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[room] = sess
}

// Delete removes the session for a room. Deleting an absent room is a no-op.
func (s *Store) Delete(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, room)
}

// Len reports how many rooms currently have a cached session.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
