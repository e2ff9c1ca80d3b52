package results

import (
	"context"
	"fmt"
	"sort"
	"time"

	"webquiz/internal/attempt"
	"webquiz/internal/domain"
)

// QuizFetcher loads the quiz document so the current retake policy is read
// at submission time, not at attempt start.
type QuizFetcher interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultStore is the remote result record collection.
type ResultStore interface {
	FindByUserAndQuiz(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error)
	Create(ctx context.Context, rec domain.ResultRecord) (domain.ResultRecord, error)
	Update(ctx context.Context, id string, rec domain.ResultRecord) (domain.ResultRecord, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.ResultRecord, error)
}

// UserDirectory resolves the username recorded alongside a new result.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// Outcome describes what a submission did to the remote store.
type Outcome int

const (
	// OutcomeSkippedAnonymous: no authenticated user, nothing recorded.
	OutcomeSkippedAnonymous Outcome = iota
	// OutcomeCreated: first result for this (user, quiz) pair.
	OutcomeCreated
	// OutcomeUpdated: existing record replaced by a strictly higher score.
	OutcomeUpdated
	// OutcomeSkippedNoRetake: a record exists and the quiz forbids retakes.
	OutcomeSkippedNoRetake
	// OutcomeSkippedNotHigher: the new score does not beat the stored one.
	OutcomeSkippedNotHigher
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkippedAnonymous:
		return "skipped_anonymous"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkippedNoRetake:
		return "skipped_no_retake"
	case OutcomeSkippedNotHigher:
		return "skipped_not_higher"
	}
	return "unknown"
}

// Submitter reconciles a finished attempt against the remote result store.
// Repeated submissions of the same or a lower score are no-ops, so at most
// one record per (user, quiz) pair accumulates only the maximum observed
// score.
type Submitter struct {
	quizzes QuizFetcher
	store   ResultStore
	users   UserDirectory
	now     func() time.Time
}

func NewSubmitter(quizzes QuizFetcher, store ResultStore, users UserDirectory) *Submitter {
	return &Submitter{quizzes: quizzes, store: store, users: users, now: time.Now}
}

// NewSubmitterWithClock is test-only for deterministic timestamps.
func NewSubmitterWithClock(quizzes QuizFetcher, store ResultStore, users UserDirectory, now func() time.Time) *Submitter {
	return &Submitter{quizzes: quizzes, store: store, users: users, now: now}
}

// Submit records the report's re-derived percentage for the user. The score
// carried by the report is not trusted; correctness is recomputed from the
// questions and their attached selections.
func (s *Submitter) Submit(ctx context.Context, userID string, report attempt.Report) (Outcome, error) {
	if userID == "" || report.QuizID == "" {
		return OutcomeSkippedAnonymous, nil
	}
	percentage := attempt.Percentage(report.Questions)

	quiz, err := s.quizzes.GetQuiz(ctx, report.QuizID)
	if err != nil {
		return 0, fmt.Errorf("fetch quiz for submission: %w", err)
	}

	existing, err := s.store.FindByUserAndQuiz(ctx, userID, report.QuizID)
	if err != nil {
		return 0, fmt.Errorf("check existing result: %w", err)
	}

	if len(existing) > 0 {
		current := existing[0]
		if !quiz.AllowRetake {
			return OutcomeSkippedNoRetake, nil
		}
		if percentage <= current.Score {
			return OutcomeSkippedNotHigher, nil
		}
		current.Score = percentage
		current.CompletedAt = s.now()
		if _, err := s.store.Update(ctx, current.ID, current); err != nil {
			return 0, fmt.Errorf("update result: %w", err)
		}
		return OutcomeUpdated, nil
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("resolve username: %w", err)
	}
	rec := domain.ResultRecord{
		UserID:      userID,
		Username:    user.Username,
		QuizID:      report.QuizID,
		Score:       percentage,
		CompletedAt: s.now(),
	}
	if _, err := s.store.Create(ctx, rec); err != nil {
		return 0, fmt.Errorf("create result: %w", err)
	}
	return OutcomeCreated, nil
}

// Leaderboard returns the per-quiz standings, best score first; ties go to
// the earlier completion, then to the username.
func (s *Submitter) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	records, err := s.store.ListByQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list results: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, domain.LeaderboardEntry{
			Username:    rec.Username,
			Score:       rec.Score,
			CompletedAt: rec.CompletedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].CompletedAt.Before(entries[j].CompletedAt)
		}
		return entries[i].Username < entries[j].Username
	})

	return domain.Leaderboard{QuizID: quizID, Entries: entries}, nil
}
