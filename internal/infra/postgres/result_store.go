package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"webquiz/internal/domain"
)

// ResultStore persists result records in Postgres. The (user_id, quiz_id)
// pair is unique, matching the at-most-one-record-per-pair policy.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) FindByUserAndQuiz(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, username, quiz_id, score, completed_at
		 FROM results WHERE user_id=$1 AND quiz_id=$2`, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func (s *ResultStore) Create(ctx context.Context, rec domain.ResultRecord) (domain.ResultRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (id, user_id, username, quiz_id, score, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.Username, rec.QuizID, rec.Score, rec.CompletedAt)
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("insert result: %w", err)
	}
	return rec, nil
}

func (s *ResultStore) Update(ctx context.Context, id string, rec domain.ResultRecord) (domain.ResultRecord, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE results SET score=$2, completed_at=$3, username=$4 WHERE id=$1`,
		id, rec.Score, rec.CompletedAt, rec.Username)
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("update result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	rec.ID = id
	return rec, nil
}

func (s *ResultStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.ResultRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, username, quiz_id, score, completed_at
		 FROM results WHERE quiz_id=$1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanResults(rows pgxRows) ([]domain.ResultRecord, error) {
	var out []domain.ResultRecord
	for rows.Next() {
		var rec domain.ResultRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.QuizID, &rec.Score, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}
