package contact

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items []Request
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(ctx context.Context, req Request) error {
	m.mu.Lock()
	m.items = append(m.items, req)
	m.mu.Unlock()
	return nil
}

// List returns the newest requests first.
func (m *MemoryStore) List(ctx context.Context, limit, offset int) ([]Request, error) {
	m.mu.RLock()
	items := append([]Request(nil), m.items...)
	m.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if offset >= len(items) {
		return []Request{}, nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, req Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_requests (
			id,
			name,
			email,
			exam_interest,
			message,
			remote_addr,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.Name, req.Email, req.ExamInterest, req.Message, req.RemoteAddr, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact request: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, exam_interest, message, remote_addr, created_at
		FROM contact_requests
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query contact requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0)
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.Name, &req.Email, &req.ExamInterest, &req.Message, &req.RemoteAddr, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact requests: %w", err)
	}
	return out, nil
}
