package conversation

import (
	"strings"
	"sync"
	"time"
)

// Store is an in-process, append-only log of turns per session, bounded to
// the most recent maxTurns entries. It does not check role alternation;
// callers that record strictly user-then-assistant keep histories
// alternating.
type Store struct {
	mu       sync.RWMutex
	maxTurns int
	sessions map[string][]Turn
}

func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		maxTurns: maxTurns,
		sessions: make(map[string][]Turn),
	}
}

func (s *Store) MaxTurns() int { return s.maxTurns }

// Append adds a turn to the tail of the session history, trimming from the
// head once the cap is exceeded.
func (s *Store) Append(sessionID string, turn Turn) {
	s.Record(sessionID, turn, 0)
}

// Record appends turn and returns up to window turns that preceded it, both
// under one lock so concurrent callers observe a single consistent order.
func (s *Store) Record(sessionID string, turn Turn, window int) []Turn {
	sessionID = sessionKey(sessionID)
	if turn.At.IsZero() {
		turn.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	arr := s.sessions[sessionID]
	prior := tail(arr, window)

	arr = append(arr, turn)
	if over := len(arr) - s.maxTurns; over > 0 {
		trimmed := make([]Turn, s.maxTurns)
		copy(trimmed, arr[over:])
		arr = trimmed
	}
	s.sessions[sessionID] = arr
	return prior
}

// RecentWindow returns the last maxTurns entries, oldest first.
func (s *Store) RecentWindow(sessionID string, maxTurns int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.sessions[sessionKey(sessionID)], maxTurns)
}

func (s *Store) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionKey(sessionID)])
}

// Clear empties the history of one session.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionKey(sessionID)]; ok {
		s.sessions[sessionKey(sessionID)] = nil
	}
}

// Drop forgets a session entirely.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(sessionID))
}

func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func tail(arr []Turn, limit int) []Turn {
	if len(arr) == 0 || limit <= 0 {
		return nil
	}
	if limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Turn, limit)
	copy(out, arr[len(arr)-limit:])
	return out
}

func sessionKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSession
	}
	return id
}
