package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptNotEditable = errors.New("attempt is not editable")
	ErrQuestionNotInExam  = errors.New("question not in exam")
	ErrAttemptNotFinal    = errors.New("attempt not final")
	ErrSubmissionLocked   = errors.New("submission is only available in the full version")
	ErrInvalidInput       = errors.New("invalid input")
)

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

type Attempt struct {
	ID          uuid.UUID  `json:"id"`
	ExamSlug    string     `json:"exam_slug"`
	Candidate   string     `json:"candidate,omitempty"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Store persists attempts and their raw answer payloads. Implementations must
// reject answer writes once an attempt left StatusInProgress.
type Store interface {
	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error)
	SaveAnswer(ctx context.Context, attemptID uuid.UUID, questionID int, payload json.RawMessage) error
	LoadAnswers(ctx context.Context, attemptID uuid.UUID) (map[int]json.RawMessage, error)
	// SubmitAttempt moves an in-progress attempt to StatusSubmitted and reports
	// whether this call made the transition.
	SubmitAttempt(ctx context.Context, attemptID uuid.UUID, at time.Time) (*Attempt, bool, error)
	ResetAttempt(ctx context.Context, attemptID uuid.UUID) (*Attempt, error)
}

// ScoreObserver is notified once per submitted attempt.
type ScoreObserver interface {
	ObserveScore(examSlug string, report ScoreReport)
}

type ServiceConfig struct {
	SubmitLocked bool
	Logger       logrus.FieldLogger
	Observer     ScoreObserver
}

type Service struct {
	catalog      *Catalog
	store        Store
	log          logrus.FieldLogger
	observer     ScoreObserver
	submitLocked bool
	now          func() time.Time
}

type AttemptSummary struct {
	ID             uuid.UUID    `json:"id"`
	ExamSlug       string       `json:"exam_slug"`
	ExamTitle      string       `json:"exam_title"`
	Candidate      string       `json:"candidate,omitempty"`
	Status         string       `json:"status"`
	StartedAt      time.Time    `json:"started_at"`
	SubmittedAt    *time.Time   `json:"submitted_at,omitempty"`
	TotalQuestions int          `json:"total_questions"`
	Answered       int          `json:"answered"`
	Report         *ScoreReport `json:"report,omitempty"`
	Percent        int          `json:"percent"`
	Band           string       `json:"band,omitempty"`
}

type AttemptResult struct {
	Summary AttemptSummary `json:"summary"`
	Items   []Evaluation   `json:"items"`
}

type SaveAnswerInput struct {
	AttemptID     uuid.UUID
	QuestionID    int
	AnswerPayload json.RawMessage
}

func NewService(catalog *Catalog, store Store, cfg ServiceConfig) *Service {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		catalog:      catalog,
		store:        store,
		log:          log,
		observer:     cfg.Observer,
		submitLocked: cfg.SubmitLocked,
		now:          time.Now,
	}
}

func (s *Service) ListExams(ctx context.Context) ([]ExamIntro, error) {
	exams := s.catalog.List()
	out := make([]ExamIntro, 0, len(exams))
	for _, e := range exams {
		out = append(out, e.Intro())
	}
	return out, nil
}

func (s *Service) GetExam(ctx context.Context, slug string) (*ExamView, error) {
	e, err := s.catalog.Get(slug)
	if err != nil {
		return nil, err
	}
	view := e.PublicView()
	return &view, nil
}

func (s *Service) StartAttempt(ctx context.Context, slug, candidate string) (*Attempt, error) {
	e, err := s.catalog.Get(slug)
	if err != nil {
		return nil, err
	}
	candidate = strings.TrimSpace(candidate)
	if len(candidate) > 120 {
		return nil, fmt.Errorf("%w: candidate name too long", ErrInvalidInput)
	}

	a := Attempt{
		ID:        uuid.New(),
		ExamSlug:  e.Slug,
		Candidate: candidate,
		Status:    StatusInProgress,
		StartedAt: s.clock(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"attempt_id": a.ID, "exam": a.ExamSlug}).Info("attempt started")
	return &a, nil
}

func (s *Service) GetAttemptSummary(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	summary, _, err := s.buildSummary(ctx, a)
	return summary, err
}

func (s *Service) SaveAnswer(ctx context.Context, in SaveAnswerInput) error {
	a, err := s.store.GetAttempt(ctx, in.AttemptID)
	if err != nil {
		return err
	}
	if a.Status != StatusInProgress {
		return ErrAttemptNotEditable
	}
	e, err := s.catalog.Get(a.ExamSlug)
	if err != nil {
		return err
	}
	q, ok := e.Question(in.QuestionID)
	if !ok {
		return ErrQuestionNotInExam
	}

	answer, err := DecodeAnswer(q, in.AnswerPayload)
	if err != nil {
		return err
	}
	payload, err := EncodeAnswer(answer)
	if err != nil {
		return err
	}
	return s.store.SaveAnswer(ctx, a.ID, q.ID, payload)
}

func (s *Service) SubmitAttempt(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusInProgress {
		if s.submitLocked {
			return nil, ErrSubmissionLocked
		}
		var transitioned bool
		a, transitioned, err = s.store.SubmitAttempt(ctx, attemptID, s.clock())
		if err != nil {
			return nil, err
		}
		summary, _, err := s.buildSummary(ctx, a)
		if err != nil {
			return nil, err
		}
		if transitioned && summary.Report != nil {
			if s.observer != nil {
				s.observer.ObserveScore(a.ExamSlug, *summary.Report)
			}
			s.log.WithFields(logrus.Fields{
				"attempt_id": a.ID,
				"exam":       a.ExamSlug,
				"correct":    summary.Report.Correct,
				"total":      summary.Report.Total,
			}).Info("attempt submitted")
		}
		return summary, nil
	}

	summary, _, err := s.buildSummary(ctx, a)
	return summary, err
}

// GetAttemptResult recomputes the score report and the per-question review of
// a submitted attempt.
func (s *Service) GetAttemptResult(ctx context.Context, attemptID uuid.UUID) (*AttemptResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusSubmitted {
		return nil, ErrAttemptNotFinal
	}
	summary, items, err := s.buildSummary(ctx, a)
	if err != nil {
		return nil, err
	}
	return &AttemptResult{Summary: *summary, Items: items}, nil
}

// ResetAttempt discards all answers of an attempt so the candidate can retake
// the exam.
func (s *Service) ResetAttempt(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error) {
	a, err := s.store.ResetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"attempt_id": a.ID, "exam": a.ExamSlug}).Info("attempt reset")
	summary, _, err := s.buildSummary(ctx, a)
	return summary, err
}

func (s *Service) buildSummary(ctx context.Context, a *Attempt) (*AttemptSummary, []Evaluation, error) {
	e, err := s.catalog.Get(a.ExamSlug)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.store.LoadAnswers(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}
	answers := DecodeStoredAnswers(e, stored)

	summary := &AttemptSummary{
		ID:             a.ID,
		ExamSlug:       e.Slug,
		ExamTitle:      e.Title,
		Candidate:      a.Candidate,
		Status:         a.Status,
		StartedAt:      a.StartedAt,
		SubmittedAt:    a.SubmittedAt,
		TotalQuestions: len(e.Questions),
	}
	for _, q := range e.Questions {
		if isAnswered(q, answers[q.ID]) {
			summary.Answered++
		}
	}

	if a.Status != StatusSubmitted {
		return summary, nil, nil
	}
	report, items := Review(e, answers)
	summary.Report = &report
	summary.Percent = report.Percent()
	summary.Band = report.Band()
	return summary, items, nil
}

// clock is truncated to the precision of a Postgres timestamptz so that
// values read back from any store compare equal to the ones written.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
