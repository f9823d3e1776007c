package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("invalid contact request")
)

const (
	maxNameLen    = 120
	maxMessageLen = 4000
)

// Request is a candidate asking for access to the full exam set.
type Request struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ExamInterest string    `json:"exam_interest,omitempty"`
	Message      string    `json:"message"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type SubmitInput struct {
	Name         string
	Email        string
	ExamInterest string
	Message      string
	RemoteAddr   string
}

type Store interface {
	Insert(ctx context.Context, req Request) error
	List(ctx context.Context, limit, offset int) ([]Request, error)
}

// Notifier is told about every stored request. Delivery failures are logged
// and never fail the submission.
type Notifier interface {
	NotifyContact(ctx context.Context, req Request) error
}

type Service struct {
	store    Store
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(store Store, notifier Notifier, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, notifier: notifier, log: log, now: time.Now}
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Request, error) {
	name := strings.TrimSpace(in.Name)
	message := strings.TrimSpace(in.Message)
	interest := strings.TrimSpace(in.ExamInterest)

	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name is required and at most %d characters", ErrInvalidInput, maxNameLen)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if message == "" || utf8.RuneCountInString(message) > maxMessageLen {
		return nil, fmt.Errorf("%w: message is required and at most %d characters", ErrInvalidInput, maxMessageLen)
	}
	if utf8.RuneCountInString(interest) > maxNameLen {
		return nil, fmt.Errorf("%w: exam interest is too long", ErrInvalidInput)
	}

	req := Request{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		ExamInterest: interest,
		Message:      message,
		RemoteAddr:   strings.TrimSpace(in.RemoteAddr),
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.Insert(ctx, req); err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"contact_id": req.ID, "exam_interest": req.ExamInterest})
	entry.Info("contact request stored")
	if s.notifier != nil {
		if err := s.notifier.NotifyContact(ctx, req); err != nil {
			entry.WithError(err).Warn("contact notification failed")
		}
	}
	return &req, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Request, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}
