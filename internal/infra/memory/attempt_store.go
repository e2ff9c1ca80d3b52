package memory

import (
	"sync"

	"webquiz/internal/attempt"
	"webquiz/internal/domain"
)

// AttemptStore keeps snapshots and completion markers in process memory,
// keyed by quiz ID. One instance holds one client's attempt state.
type AttemptStore struct {
	mu          sync.RWMutex
	snapshots   map[string]domain.Snapshot
	completions map[string]domain.Completion
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		snapshots:   make(map[string]domain.Snapshot),
		completions: make(map[string]domain.Completion),
	}
}

func (s *AttemptStore) LoadSnapshot(quizID string) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[quizID]
	return snap, ok
}

func (s *AttemptStore) SaveSnapshot(quizID string, snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[quizID] = snap
}

func (s *AttemptStore) ClearSnapshot(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, quizID)
}

func (s *AttemptStore) HasCompletion(quizID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completions[quizID]
	return ok
}

func (s *AttemptStore) SetCompletion(quizID string, c domain.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[quizID] = c
}

func (s *AttemptStore) ClearCompletion(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.completions, quizID)
}

// AttemptStoreProvider hands out one store per client and reuses it across
// reconnects so in-progress attempts survive a dropped connection.
type AttemptStoreProvider struct {
	mu     sync.Mutex
	stores map[string]*AttemptStore
}

func NewAttemptStoreProvider() *AttemptStoreProvider {
	return &AttemptStoreProvider{stores: make(map[string]*AttemptStore)}
}

func (p *AttemptStoreProvider) AttemptStore(clientID string) attempt.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	if store, ok := p.stores[clientID]; ok {
		return store
	}
	store := NewAttemptStore()
	p.stores[clientID] = store
	return store
}
