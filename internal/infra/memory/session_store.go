package memory

import (
	"context"
	"encoding/json"
	"sync"

	"outcome-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Snapshots are kept encoded so a stored handle never aliases the caller's maps,
// and keyed by quiz so one session id cannot clobber another quiz's progress.
type SessionStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		snapshots: make(map[string][]byte),
	}
}

func (s *SessionStore) Save(_ context.Context, handle domain.SessionHandle) error {
	raw, err := json.Marshal(handle)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshotKey(handle.QuizID, handle.SessionID)] = raw
	return nil
}

func (s *SessionStore) Load(_ context.Context, quizID, sessionID string) (domain.SessionHandle, error) {
	s.mu.RLock()
	raw, ok := s.snapshots[snapshotKey(quizID, sessionID)]
	s.mu.RUnlock()
	if !ok {
		return domain.SessionHandle{}, domain.ErrSessionNotFound
	}
	var handle domain.SessionHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		return domain.SessionHandle{}, err
	}
	return handle, nil
}

func (s *SessionStore) Delete(_ context.Context, quizID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, snapshotKey(quizID, sessionID))
	return nil
}

func snapshotKey(quizID, sessionID string) string {
	return quizID + "/" + sessionID
}

// PlayCounter keeps completed play counts in memory.
type PlayCounter struct {
	mu    sync.Mutex
	plays map[string]int64
}

func NewPlayCounter() *PlayCounter {
	return &PlayCounter{plays: make(map[string]int64)}
}

func (c *PlayCounter) IncrementPlays(_ context.Context, quizID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays[quizID]++
	return nil
}

// Plays returns the number of completed plays recorded for quizID.
func (c *PlayCounter) Plays(quizID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays[quizID]
}
