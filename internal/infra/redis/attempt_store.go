package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"webquiz/internal/attempt"
	"webquiz/internal/domain"
)

// AttemptStore persists one client's snapshots and completion markers in
// Redis. Keys are scoped by client so distinct users never collide:
//
//	attempt:{clientID}:{quizID}:state
//	attempt:{clientID}:{quizID}:done
//
// Writes are best-effort; the attempt machine must keep working when Redis
// is briefly unavailable, so errors are swallowed and reads fall back to
// "absent". A stored value that fails to parse is deleted and reported as
// absent rather than surfaced.
type AttemptStore struct {
	client   *redis.Client
	clientID string
	ttl      time.Duration
}

func NewAttemptStore(client *redis.Client, clientID string, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, clientID: clientID, ttl: ttl}
}

func (s *AttemptStore) LoadSnapshot(quizID string) (domain.Snapshot, bool) {
	raw, err := s.client.Get(context.Background(), s.stateKey(quizID)).Bytes()
	if err != nil {
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		_ = s.client.Del(context.Background(), s.stateKey(quizID)).Err()
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (s *AttemptStore) SaveSnapshot(quizID string, snap domain.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = s.client.Set(context.Background(), s.stateKey(quizID), data, s.ttl).Err()
}

func (s *AttemptStore) ClearSnapshot(quizID string) {
	_ = s.client.Del(context.Background(), s.stateKey(quizID)).Err()
}

func (s *AttemptStore) HasCompletion(quizID string) bool {
	n, err := s.client.Exists(context.Background(), s.doneKey(quizID)).Result()
	return err == nil && n > 0
}

func (s *AttemptStore) SetCompletion(quizID string, c domain.Completion) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	// Completion markers outlive the snapshot TTL; they gate re-entry.
	_ = s.client.Set(context.Background(), s.doneKey(quizID), data, 0).Err()
}

func (s *AttemptStore) ClearCompletion(quizID string) {
	_ = s.client.Del(context.Background(), s.doneKey(quizID)).Err()
}

func (s *AttemptStore) stateKey(quizID string) string {
	return "attempt:" + s.clientID + ":" + quizID + ":state"
}

func (s *AttemptStore) doneKey(quizID string) string {
	return "attempt:" + s.clientID + ":" + quizID + ":done"
}

// AttemptStoreProvider builds per-client store views over one Redis client.
type AttemptStoreProvider struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStoreProvider(client *redis.Client, ttl time.Duration) *AttemptStoreProvider {
	return &AttemptStoreProvider{client: client, ttl: ttl}
}

func (p *AttemptStoreProvider) AttemptStore(clientID string) attempt.Store {
	return NewAttemptStore(p.client, clientID, p.ttl)
}
