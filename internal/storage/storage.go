package storage

import (
	"sync"

	"github.com/meridian-gallery/curator/internal/gallery"
)

// SessionStore holds every live gallery session in memory. Sessions carry
// file-backed state (uploads, previews), so the store tells its OnEvict hook
// whenever a session leaves the map.
type SessionStore struct {
	sessions map[string]*gallery.GallerySession
	mu       sync.RWMutex
	onEvict  func(*gallery.GallerySession)
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*gallery.GallerySession),
	}
}

// OnEvict registers fn to run for every session removed from the store,
// whether deleted or replaced. Must be called before the store is shared.
func (s *SessionStore) OnEvict(fn func(*gallery.GallerySession)) {
	s.onEvict = fn
}

func (s *SessionStore) Get(sessionID string) (*gallery.GallerySession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *gallery.GallerySession) {
	s.mu.Lock()
	old, replaced := s.sessions[sessionID]
	s.sessions[sessionID] = session
	s.mu.Unlock()

	// In-place updates store the same pointer back; only a genuine
	// replacement evicts the old session's files.
	if replaced && old != session && s.onEvict != nil {
		s.onEvict(old)
	}
}

func (s *SessionStore) GetAll() map[string]*gallery.GallerySession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*gallery.GallerySession, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists && s.onEvict != nil {
		s.onEvict(session)
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
