// Package client talks to the remote quiz API: a flat JSON CRUD interface
// serving /quizzes, /results and /users. It implements the loader, result
// store and user directory interfaces consumed by the attempt service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"webquiz/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client is a JSON-over-HTTP client for the quiz API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoadQuiz fetches one quiz document by ID.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.doJSON(ctx, http.MethodGet, "/quizzes/"+url.PathEscape(quizID), nil, &quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	return quiz, nil
}

// FindByCode resolves a quiz access code. The API returns a filtered list;
// an empty list means no such code.
func (c *Client) FindByCode(ctx context.Context, code string) (domain.Quiz, error) {
	var quizzes []domain.Quiz
	query := url.Values{"code": {code}}
	if err := c.doJSON(ctx, http.MethodGet, "/quizzes?"+query.Encode(), nil, &quizzes); err != nil {
		return domain.Quiz{}, err
	}
	if len(quizzes) == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quizzes[0], nil
}

// FindByUserAndQuiz queries existing result records for a (user, quiz) pair.
func (c *Client) FindByUserAndQuiz(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	var records []domain.ResultRecord
	query := url.Values{"userId": {userID}, "quizId": {quizID}}
	if err := c.doJSON(ctx, http.MethodGet, "/results?"+query.Encode(), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Create stores a new result record.
func (c *Client) Create(ctx context.Context, rec domain.ResultRecord) (domain.ResultRecord, error) {
	var created domain.ResultRecord
	if err := c.doJSON(ctx, http.MethodPost, "/results", rec, &created); err != nil {
		return domain.ResultRecord{}, err
	}
	return created, nil
}

// Update replaces an existing result record.
func (c *Client) Update(ctx context.Context, id string, rec domain.ResultRecord) (domain.ResultRecord, error) {
	var updated domain.ResultRecord
	if err := c.doJSON(ctx, http.MethodPut, "/results/"+url.PathEscape(id), rec, &updated); err != nil {
		return domain.ResultRecord{}, err
	}
	return updated, nil
}

// ListByQuiz returns every result record for a quiz.
func (c *Client) ListByQuiz(ctx context.Context, quizID string) ([]domain.ResultRecord, error) {
	var records []domain.ResultRecord
	query := url.Values{"quizId": {quizID}}
	if err := c.doJSON(ctx, http.MethodGet, "/results?"+query.Encode(), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetUser fetches a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return c.notFound(path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) notFound(path string) error {
	switch {
	case strings.HasPrefix(path, "/quizzes"):
		return domain.ErrQuizNotFound
	case strings.HasPrefix(path, "/users"):
		return domain.ErrUserNotFound
	case strings.HasPrefix(path, "/results"):
		return domain.ErrResultNotFound
	}
	return fmt.Errorf("%s: not found", path)
}
