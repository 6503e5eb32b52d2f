package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"outcome-quiz-service/internal/domain"
)

// SessionStore keeps in-progress session snapshots in Redis so a player can resume
// from any instance. Abandoned sessions expire after ttl.
// Snapshots are stored as: SET quiz:{quizID}:session:{sessionID} {json} EX ttl
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, handle domain.SessionHandle) error {
	raw, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(handle.QuizID, handle.SessionID), raw, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, quizID, sessionID string) (domain.SessionHandle, error) {
	raw, err := s.client.Get(ctx, sessionKey(quizID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionHandle{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionHandle{}, err
	}
	var handle domain.SessionHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		return domain.SessionHandle{}, fmt.Errorf("decode session: %w", err)
	}
	return handle, nil
}

func (s *SessionStore) Delete(ctx context.Context, quizID, sessionID string) error {
	return s.client.Del(ctx, sessionKey(quizID, sessionID)).Err()
}

func sessionKey(quizID, sessionID string) string {
	return "quiz:" + quizID + ":session:" + sessionID
}

// PlayCounter counts completed plays with INCR quiz:{quizID}:plays.
type PlayCounter struct {
	client *redis.Client
}

func NewPlayCounter(client *redis.Client) *PlayCounter {
	return &PlayCounter{client: client}
}

func (c *PlayCounter) IncrementPlays(ctx context.Context, quizID string) error {
	return c.client.Incr(ctx, playsKey(quizID)).Err()
}

// Plays returns the recorded play count, zero when none were recorded.
func (c *PlayCounter) Plays(ctx context.Context, quizID string) (int64, error) {
	n, err := c.client.Get(ctx, playsKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func playsKey(quizID string) string {
	return "quiz:" + quizID + ":plays"
}
