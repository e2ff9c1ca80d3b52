package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webquiz/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func TestLoadQuiz(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/quizzes/q1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"title":     "capitals",
			"questions": []map[string]interface{}{{"question": "p", "options": []string{"a"}, "correct": []string{"a"}}},
		})
	})

	quiz, err := c.LoadQuiz(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID, "missing ID in the payload is backfilled from the request")
	assert.Equal(t, "capitals", quiz.Title)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "p", quiz.Questions[0].Prompt)
}

func TestLoadQuizNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.LoadQuiz(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestFindByCode(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quizzes", r.URL.Path)
		assert.Equal(t, "CAP01", r.URL.Query().Get("code"))
		_ = json.NewEncoder(w).Encode([]domain.Quiz{{ID: "q1", Code: "CAP01"}})
	})

	quiz, err := c.FindByCode(context.Background(), "CAP01")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID)
}

func TestFindByCodeEmptyListIsNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Quiz{})
	})

	_, err := c.FindByCode(context.Background(), "NOPE1")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestFindByUserAndQuiz(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/results", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		assert.Equal(t, "q1", r.URL.Query().Get("quizId"))
		_ = json.NewEncoder(w).Encode([]domain.ResultRecord{{ID: "r1", UserID: "u1", QuizID: "q1", Score: 60}})
	})

	records, err := c.FindByUserAndQuiz(context.Background(), "u1", "q1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 60, records[0].Score)
}

func TestCreateResult(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/results", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var rec domain.ResultRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		rec.ID = "r1"
		_ = json.NewEncoder(w).Encode(rec)
	})

	created, err := c.Create(context.Background(), domain.ResultRecord{UserID: "u1", QuizID: "q1", Score: 80})
	require.NoError(t, err)
	assert.Equal(t, "r1", created.ID)
	assert.Equal(t, 80, created.Score)
}

func TestUpdateResult(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/results/r1", r.URL.Path)

		var rec domain.ResultRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		_ = json.NewEncoder(w).Encode(rec)
	})

	updated, err := c.Update(context.Background(), "r1", domain.ResultRecord{UserID: "u1", QuizID: "q1", Score: 95})
	require.NoError(t, err)
	assert.Equal(t, 95, updated.Score)
}

func TestUpdateMissingResult(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.Update(context.Background(), "ghost", domain.ResultRecord{})
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestGetUser(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(domain.User{ID: "u1", Username: "alice"})
	})

	user, err := c.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestGetUserNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestServerErrorSurfacesStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.LoadQuiz(context.Background(), "q1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
