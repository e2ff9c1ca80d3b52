package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"webquiz/internal/domain"
)

// ResultStore keeps result records in process memory. It backs tests and the
// no-database demo mode.
type ResultStore struct {
	mu      sync.RWMutex
	records map[string]domain.ResultRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{records: make(map[string]domain.ResultRecord)}
}

func (s *ResultStore) FindByUserAndQuiz(_ context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ResultRecord
	for _, rec := range s.records {
		if rec.UserID == userID && rec.QuizID == quizID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *ResultStore) Create(_ context.Context, rec domain.ResultRecord) (domain.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *ResultStore) Update(_ context.Context, id string, rec domain.ResultRecord) (domain.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	rec.ID = id
	s.records[id] = rec
	return rec, nil
}

func (s *ResultStore) ListByQuiz(_ context.Context, quizID string) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ResultRecord
	for _, rec := range s.records {
		if rec.QuizID == quizID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// StaticUserDirectory serves user lookups from a fixed map.
type StaticUserDirectory struct {
	users map[string]domain.User
}

func NewStaticUserDirectory(users map[string]domain.User) *StaticUserDirectory {
	return &StaticUserDirectory{users: users}
}

func (d *StaticUserDirectory) GetUser(_ context.Context, userID string) (domain.User, error) {
	if user, ok := d.users[userID]; ok {
		return user, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}
