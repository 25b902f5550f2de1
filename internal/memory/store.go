// File path: internal/memory/store.go
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/harborcover/commsight/internal/common"
)

const DefaultWindow = 3

// Turn is one question/answer exchange inside a session window.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at"`
}

// Store keeps a bounded FIFO window of turns per session. Sessions are fully
// independent: each holds its own lock, so appends for one session serialize
// while other sessions proceed untouched. State lives for the process
// lifetime or until explicitly cleared.
type Store struct {
	window   int
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu    sync.Mutex
	turns []Turn
}

func NewStore(window int) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Store{window: window, sessions: make(map[string]*session)}
}

// Window reports the configured per-session capacity.
func (s *Store) Window() int {
	if s == nil {
		return 0
	}
	return s.window
}

// AddExchange appends one turn to the session window, evicting the oldest
// turn once the window is full. Blank session ids are ignored.
func (s *Store) AddExchange(sessionID, question, answer string) {
	if s == nil || strings.TrimSpace(sessionID) == "" {
		return
	}
	sess := s.ensureSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = append(sess.turns, Turn{Question: question, Answer: answer, At: time.Now().UTC()})
	if len(sess.turns) > s.window {
		sess.turns = sess.turns[len(sess.turns)-s.window:]
	}
	common.Logger().Debug("memory: exchange recorded", "session", sessionID, "turns", len(sess.turns), "window", s.window)
}

// History returns a copy of the session window, oldest turn first. Unknown
// sessions yield nil.
func (s *Store) History(sessionID string) []Turn {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if len(sess.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// ClearSession drops one session's window.
func (s *Store) ClearSession(sessionID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// ClearAll drops every session window.
func (s *Store) ClearAll() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*session)
}

// SessionCount reports how many sessions currently hold memory.
func (s *Store) SessionCount() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionExists reports whether the session currently holds memory.
func (s *Store) SessionExists(sessionID string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok
}

func (s *Store) ensureSession(sessionID string) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess = s.sessions[sessionID]; sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}
