package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *PostgresStore) CreateAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exam_attempts (
			id,
			exam_slug,
			candidate,
			status,
			started_at
		) VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.ExamSlug, a.Candidate, a.Status, a.StartedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	return loadAttempt(ctx, s.db, id, false)
}

func (s *PostgresStore) SaveAnswer(ctx context.Context, attemptID uuid.UUID, questionID int, payload json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save answer tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := loadAttempt(ctx, tx, attemptID, true)
	if err != nil {
		return err
	}
	if a.Status != StatusInProgress {
		return ErrAttemptNotEditable
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exam_attempt_answers (
			attempt_id,
			question_id,
			answer_payload,
			updated_at
		) VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (attempt_id, question_id)
		DO UPDATE SET
			answer_payload = EXCLUDED.answer_payload,
			updated_at = now()
	`, attemptID, questionID, []byte(payload)); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save answer: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadAnswers(ctx context.Context, attemptID uuid.UUID) (map[int]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, answer_payload
		FROM exam_attempt_answers
		WHERE attempt_id = $1
	`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	out := make(map[int]json.RawMessage)
	for rows.Next() {
		var (
			questionID int
			payload    []byte
		)
		if err := rows.Scan(&questionID, &payload); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out[questionID] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SubmitAttempt(ctx context.Context, attemptID uuid.UUID, at time.Time) (*Attempt, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin submit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := loadAttempt(ctx, tx, attemptID, true)
	if err != nil {
		return nil, false, err
	}
	if a.Status != StatusInProgress {
		return a, false, nil
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE exam_attempts
		SET status = $2,
			submitted_at = $3
		WHERE id = $1
	`, attemptID, StatusSubmitted, at); err != nil {
		return nil, false, fmt.Errorf("update attempt submitted: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit submit: %w", err)
	}
	a.Status = StatusSubmitted
	a.SubmittedAt = &at
	return a, true, nil
}

func (s *PostgresStore) ResetAttempt(ctx context.Context, attemptID uuid.UUID) (*Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := loadAttempt(ctx, tx, attemptID, true)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exam_attempt_answers WHERE attempt_id = $1`, attemptID); err != nil {
		return nil, fmt.Errorf("clear answers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE exam_attempts
		SET status = $2,
			submitted_at = NULL
		WHERE id = $1
	`, attemptID, StatusInProgress); err != nil {
		return nil, fmt.Errorf("update attempt reset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	a.Status = StatusInProgress
	a.SubmittedAt = nil
	return a, nil
}

func loadAttempt(ctx context.Context, q queryable, id uuid.UUID, forUpdate bool) (*Attempt, error) {
	query := `
		SELECT
			id,
			exam_slug,
			candidate,
			status,
			started_at,
			submitted_at
		FROM exam_attempts
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		a           Attempt
		submittedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.ExamSlug,
		&a.Candidate,
		&a.Status,
		&a.StartedAt,
		&submittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		a.SubmittedAt = &t
	}
	return &a, nil
}
