package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tablero/internal/pipeline"
)

const (
	defaultSessionTTL = 2 * time.Hour
	defaultSessionMax = 50
)

// session is one loaded workbook. Sessions live in memory only.
type session struct {
	ID       string
	Dataset  pipeline.Dataset
	LoadedAt time.Time
}

// sessionStore drops sessions older than ttl and keeps at most max of them,
// evicting the oldest first.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

func newSessionStore(ttl time.Duration, max int) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if max <= 0 {
		max = defaultSessionMax
	}
	return &sessionStore{sessions: map[string]*session{}, ttl: ttl, max: max, now: time.Now}
}

func (s *sessionStore) put(ds pipeline.Dataset) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)
	for len(s.sessions) >= s.max {
		s.dropOldestLocked()
	}
	sess := &session{ID: uuid.NewString(), Dataset: ds, LoadedAt: now}
	s.sessions[sess.ID] = sess
	return sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.LoadedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, false
	}
	return sess, true
}

func (s *sessionStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *sessionStore) expireLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.LoadedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *sessionStore) dropOldestLocked() {
	var oldest *session
	for _, sess := range s.sessions {
		if oldest == nil || sess.LoadedAt.Before(oldest.LoadedAt) {
			oldest = sess
		}
	}
	if oldest != nil {
		delete(s.sessions, oldest.ID)
	}
}
