package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"webquiz/internal/attempt"
	"webquiz/internal/domain"
	"webquiz/internal/results"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	FindByCode(ctx context.Context, code string) (domain.Quiz, error)
}

// StoreProvider hands out the per-client attempt store an attempt machine
// persists through.
type StoreProvider interface {
	AttemptStore(clientID string) attempt.Store
}

// AttemptService glues quiz loading, attempt machines and result submission.
// One machine is created per started attempt; the caller drives it directly.
type AttemptService struct {
	quizzes   QuizRepository
	stores    StoreProvider
	submitter *results.Submitter

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAttemptService(quizzes QuizRepository, stores StoreProvider, submitter *results.Submitter) *AttemptService {
	return &AttemptService{
		quizzes:   quizzes,
		stores:    stores,
		submitter: submitter,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start loads the quiz by ID and begins an attempt for the client.
func (s *AttemptService) Start(ctx context.Context, quizID, clientID string) (*attempt.Machine, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.begin(quiz, clientID)
}

// StartByCode resolves a quiz access code and begins an attempt.
func (s *AttemptService) StartByCode(ctx context.Context, code, clientID string) (*attempt.Machine, error) {
	quiz, err := s.quizzes.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.begin(quiz, clientID)
}

func (s *AttemptService) begin(quiz domain.Quiz, clientID string) (*attempt.Machine, error) {
	store := s.stores.AttemptStore(clientID)
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return attempt.New(quiz, store, s.rnd)
}

// Complete submits a finished attempt's report for the user.
func (s *AttemptService) Complete(ctx context.Context, userID string, report attempt.Report) (results.Outcome, error) {
	return s.submitter.Submit(ctx, userID, report)
}

// Leaderboard returns the standings for a quiz.
func (s *AttemptService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	return s.submitter.Leaderboard(ctx, quizID)
}
