package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/blogfeed/pkg/feed"
)

// pageSession keeps the feed of a single page load between load more requests.
// mu serializes reveals, the controller and its recorder are not thread-safe.
type pageSession struct {
	mu       sync.Mutex
	ctrl     *feed.Controller
	rec      *feed.Recorder
	lastSeen time.Time
}

// sessionStore is an in-memory set of page sessions expiring after ttl of inactivity
type sessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*pageSession
	now   func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &sessionStore{ttl: ttl, items: map[string]*pageSession{}, now: time.Now}
}

// add stores a session and returns its id
func (s *sessionStore) add(ctrl *feed.Controller, rec *feed.Recorder) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	id := uuid.NewString()
	s.items[id] = &pageSession{ctrl: ctrl, rec: rec, lastSeen: s.now()}
	return id
}

// get returns a live session and extends its lifetime
func (s *sessionStore) get(id string) (*pageSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// sweep drops expired sessions, must be called with mu held
func (s *sessionStore) sweep() {
	now := s.now()
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.items, id)
		}
	}
}
