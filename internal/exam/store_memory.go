package exam

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps attempts in process memory. It backs the demo build when
// no database is configured and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]Attempt
	answers  map[uuid.UUID]map[int]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts: make(map[uuid.UUID]Attempt),
		answers:  make(map[uuid.UUID]map[int]json.RawMessage),
	}
}

func (m *MemoryStore) CreateAttempt(ctx context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
	m.answers[a.ID] = make(map[int]json.RawMessage)
	return nil
}

func (m *MemoryStore) GetAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return &a, nil
}

func (m *MemoryStore) SaveAnswer(ctx context.Context, attemptID uuid.UUID, questionID int, payload json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	if a.Status != StatusInProgress {
		return ErrAttemptNotEditable
	}
	m.answers[attemptID][questionID] = append(json.RawMessage(nil), payload...)
	return nil
}

func (m *MemoryStore) LoadAnswers(ctx context.Context, attemptID uuid.UUID) (map[int]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.attempts[attemptID]; !ok {
		return nil, ErrAttemptNotFound
	}
	out := make(map[int]json.RawMessage, len(m.answers[attemptID]))
	for k, v := range m.answers[attemptID] {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (m *MemoryStore) SubmitAttempt(ctx context.Context, attemptID uuid.UUID, at time.Time) (*Attempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, false, ErrAttemptNotFound
	}
	if a.Status != StatusInProgress {
		return &a, false, nil
	}
	a.Status = StatusSubmitted
	a.SubmittedAt = &at
	m.attempts[attemptID] = a
	return &a, true, nil
}

func (m *MemoryStore) ResetAttempt(ctx context.Context, attemptID uuid.UUID) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	a.Status = StatusInProgress
	a.SubmittedAt = nil
	m.attempts[attemptID] = a
	m.answers[attemptID] = make(map[int]json.RawMessage)
	return &a, nil
}
