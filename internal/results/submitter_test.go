package results

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webquiz/internal/attempt"
	"webquiz/internal/domain"
	"webquiz/internal/infra/memory"
)

type fixedQuizzes map[string]domain.Quiz

func (f fixedQuizzes) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := f[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// reportScoring builds a report where the first `correct` of `total`
// questions carry matching selections.
func reportScoring(quizID string, correct, total int) attempt.Report {
	questions := make([]domain.Question, total)
	for i := range questions {
		questions[i] = domain.Question{Correct: []string{"yes"}}
		if i < correct {
			questions[i].Selected = []string{"yes"}
		}
	}
	return attempt.Report{QuizID: quizID, Total: total, Score: correct, Questions: questions}
}

func newTestSubmitter(quiz domain.Quiz, store ResultStore, at time.Time) *Submitter {
	users := memory.NewStaticUserDirectory(map[string]domain.User{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob"},
	})
	return NewSubmitterWithClock(fixedQuizzes{quiz.ID: quiz}, store, users, func() time.Time { return at })
}

func TestSubmitCreatesFirstResult(t *testing.T) {
	store := memory.NewResultStore()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := newTestSubmitter(domain.Quiz{ID: "q1"}, store, at)

	outcome, err := sub.Submit(context.Background(), "u1", reportScoring("q1", 3, 4))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	records, err := store.FindByUserAndQuiz(context.Background(), "u1", "q1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Username)
	assert.Equal(t, 75, records[0].Score, "score is the re-derived percentage")
	assert.Equal(t, at, records[0].CompletedAt)
}

func TestSubmitIgnoresReportedScoreField(t *testing.T) {
	store := memory.NewResultStore()
	sub := newTestSubmitter(domain.Quiz{ID: "q1"}, store, time.Now())

	report := reportScoring("q1", 1, 2)
	report.Score = 999

	_, err := sub.Submit(context.Background(), "u1", report)
	require.NoError(t, err)

	records, _ := store.FindByUserAndQuiz(context.Background(), "u1", "q1")
	require.Len(t, records, 1)
	assert.Equal(t, 50, records[0].Score)
}

func TestSubmitSkipsAnonymous(t *testing.T) {
	store := memory.NewResultStore()
	sub := newTestSubmitter(domain.Quiz{ID: "q1"}, store, time.Now())

	outcome, err := sub.Submit(context.Background(), "", reportScoring("q1", 2, 2))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedAnonymous, outcome)

	results, err := store.ListByQuiz(context.Background(), "q1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSubmitRespectsNoRetakePolicy(t *testing.T) {
	store := memory.NewResultStore()
	sub := newTestSubmitter(domain.Quiz{ID: "q1", AllowRetake: false}, store, time.Now())
	ctx := context.Background()

	_, err := sub.Submit(ctx, "u1", reportScoring("q1", 1, 4))
	require.NoError(t, err)

	outcome, err := sub.Submit(ctx, "u1", reportScoring("q1", 4, 4))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedNoRetake, outcome)

	records, _ := store.FindByUserAndQuiz(ctx, "u1", "q1")
	require.Len(t, records, 1)
	assert.Equal(t, 25, records[0].Score, "first result stands even against a perfect rerun")
}

func TestSubmitUpdatesOnlyStrictlyHigherScores(t *testing.T) {
	store := memory.NewResultStore()
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := newTestSubmitter(domain.Quiz{ID: "q1", AllowRetake: true}, store, first)
	ctx := context.Background()

	_, err := sub.Submit(ctx, "u1", reportScoring("q1", 2, 4))
	require.NoError(t, err)

	// Equal score does not replace the record.
	outcome, err := sub.Submit(ctx, "u1", reportScoring("q1", 2, 4))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedNotHigher, outcome)

	// Lower score does not either.
	outcome, err = sub.Submit(ctx, "u1", reportScoring("q1", 1, 4))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedNotHigher, outcome)

	records, _ := store.FindByUserAndQuiz(ctx, "u1", "q1")
	require.Len(t, records, 1)
	assert.Equal(t, 50, records[0].Score)
	assert.Equal(t, first, records[0].CompletedAt)

	later := first.Add(time.Hour)
	sub2 := newTestSubmitter(domain.Quiz{ID: "q1", AllowRetake: true}, store, later)
	outcome, err = sub2.Submit(ctx, "u1", reportScoring("q1", 3, 4))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	records, _ = store.FindByUserAndQuiz(ctx, "u1", "q1")
	require.Len(t, records, 1, "exactly one record per user and quiz")
	assert.Equal(t, 75, records[0].Score)
	assert.Equal(t, later, records[0].CompletedAt)
}

func TestSubmitUnknownUserFails(t *testing.T) {
	store := memory.NewResultStore()
	sub := newTestSubmitter(domain.Quiz{ID: "q1"}, store, time.Now())

	_, err := sub.Submit(context.Background(), "ghost", reportScoring("q1", 1, 1))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLeaderboardOrdering(t *testing.T) {
	store := memory.NewResultStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for _, rec := range []domain.ResultRecord{
		{UserID: "u1", Username: "carol", QuizID: "q1", Score: 80, CompletedAt: base.Add(2 * time.Hour)},
		{UserID: "u2", Username: "alice", QuizID: "q1", Score: 80, CompletedAt: base},
		{UserID: "u3", Username: "bob", QuizID: "q1", Score: 95, CompletedAt: base.Add(3 * time.Hour)},
		{UserID: "u4", Username: "dave", QuizID: "q2", Score: 100, CompletedAt: base},
	} {
		_, err := store.Create(ctx, rec)
		require.NoError(t, err)
	}

	sub := newTestSubmitter(domain.Quiz{ID: "q1"}, store, base)
	board, err := sub.Leaderboard(ctx, "q1")
	require.NoError(t, err)

	require.Len(t, board.Entries, 3, "other quizzes are excluded")
	assert.Equal(t, "bob", board.Entries[0].Username, "highest score first")
	assert.Equal(t, "alice", board.Entries[1].Username, "ties go to the earlier completion")
	assert.Equal(t, "carol", board.Entries[2].Username)
	assert.Equal(t, "q1", board.QuizID)
}
