package exam

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidExam = errors.New("invalid exam")

// Validate checks the authoring invariants of a single question.
func (q Question) Validate() error {
	if q.ID <= 0 {
		return fmt.Errorf("%w: question id must be positive, got %d", ErrInvalidExam, q.ID)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %d has no options", ErrInvalidExam, q.ID)
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o.Label) == "" {
			return fmt.Errorf("%w: question %d option %d has empty label", ErrInvalidExam, q.ID, i)
		}
	}

	switch q.Kind {
	case KindSingle:
		if n := len(q.CorrectIndices()); n != 1 {
			return fmt.Errorf("%w: single-choice question %d needs exactly one correct option, got %d", ErrInvalidExam, q.ID, n)
		}
	case KindMulti:
	case KindMatching:
		for i, o := range q.Options {
			if strings.TrimSpace(o.Match) == "" {
				return fmt.Errorf("%w: matching question %d option %d has no right-hand value", ErrInvalidExam, q.ID, i)
			}
		}
	default:
		return fmt.Errorf("%w: question %d has unknown kind %q", ErrInvalidExam, q.ID, q.Kind)
	}
	return nil
}

// Validate checks every question plus id uniqueness and section declarations.
func (e Exam) Validate() error {
	if strings.TrimSpace(e.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidExam)
	}
	seen := make(map[int]struct{}, len(e.Questions))
	for _, q := range e.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidExam, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	labels := make(map[string]struct{}, len(e.Sections))
	for _, s := range e.Sections {
		if strings.TrimSpace(s.Label) == "" {
			return fmt.Errorf("%w: section label is required", ErrInvalidExam)
		}
		if _, dup := labels[s.Label]; dup {
			return fmt.Errorf("%w: duplicate section %q", ErrInvalidExam, s.Label)
		}
		labels[s.Label] = struct{}{}
		if s.FirstID <= 0 || s.LastID < s.FirstID {
			return fmt.Errorf("%w: section %q has invalid range %d-%d", ErrInvalidExam, s.Label, s.FirstID, s.LastID)
		}
	}
	return nil
}
