package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webquiz/internal/domain"
)

type countingLoader struct {
	mu      sync.Mutex
	loads   int
	byCode  int
	quizzes map[string]domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *countingLoader) FindByCode(_ context.Context, code string) (domain.Quiz, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byCode++
	for _, quiz := range l.quizzes {
		if quiz.Code == code {
			return quiz, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func TestGetQuizCachesUntilTTL(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{
		"q1": {ID: "q1", Title: "first"},
	}}
	repo := NewQuizRepository(loader, time.Minute)

	base := time.Now()
	repo.clock = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		quiz, err := repo.GetQuiz(context.Background(), "q1")
		require.NoError(t, err)
		assert.Equal(t, "first", quiz.Title)
	}
	assert.Equal(t, 1, loader.loads)

	// Past the TTL plus the maximum jitter the loader is asked again.
	repo.clock = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := repo.GetQuiz(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.loads)
}

func TestGetQuizNotFound(t *testing.T) {
	repo := NewQuizRepository(&countingLoader{}, time.Minute)
	_, err := repo.GetQuiz(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestGetQuizCollapsesConcurrentLoads(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{
		"q1": {ID: "q1"},
	}}
	repo := NewQuizRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetQuiz(context.Background(), "q1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, loader.loads, 2, "concurrent misses share one load")
}

func TestFindByCodeRemembersMapping(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{
		"q1": {ID: "q1", Code: "ABC12"},
	}}
	repo := NewQuizRepository(loader, time.Minute)

	quiz, err := repo.FindByCode(context.Background(), "ABC12")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID)
	assert.Equal(t, 1, loader.byCode)

	// The second lookup goes through the quiz cache, not the loader.
	_, err = repo.FindByCode(context.Background(), "ABC12")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.byCode)
	assert.Equal(t, 0, loader.loads)

	_, err = repo.FindByCode(context.Background(), "WRONG")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestStaticQuizLoader(t *testing.T) {
	loader := NewStaticQuizLoader(map[string]domain.Quiz{
		"q1": {ID: "q1", Code: "DEMO1"},
	})

	quiz, err := loader.LoadQuiz(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID)

	quiz, err = loader.FindByCode(context.Background(), "DEMO1")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID)

	_, err = loader.LoadQuiz(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
	_, err = loader.FindByCode(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}
