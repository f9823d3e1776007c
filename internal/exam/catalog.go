package exam

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrExamNotFound = errors.New("exam not found")
	ErrExamExists   = errors.New("exam already registered")
)

// Catalog holds the authored exams by slug. Registered exams are immutable;
// re-registering a slug requires Replace.
type Catalog struct {
	mu    sync.RWMutex
	exams map[string]Exam
}

func NewCatalog(exams ...Exam) (*Catalog, error) {
	c := &Catalog{exams: make(map[string]Exam, len(exams))}
	for _, e := range exams {
		if err := c.Register(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Register(e Exam) error {
	e.Slug = strings.TrimSpace(e.Slug)
	if err := e.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.exams[e.Slug]; ok {
		return fmt.Errorf("%w: %s", ErrExamExists, e.Slug)
	}
	c.exams[e.Slug] = cloneExam(e)
	return nil
}

// Replace registers e, overwriting any exam with the same slug.
func (c *Catalog) Replace(e Exam) error {
	e.Slug = strings.TrimSpace(e.Slug)
	if err := e.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.exams[e.Slug] = cloneExam(e)
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Get(slug string) (Exam, error) {
	c.mu.RLock()
	e, ok := c.exams[strings.TrimSpace(slug)]
	c.mu.RUnlock()
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return cloneExam(e), nil
}

func (c *Catalog) List() []Exam {
	c.mu.RLock()
	out := make([]Exam, 0, len(c.exams))
	for _, e := range c.exams {
		out = append(out, e)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

type SectionIntro struct {
	Label     string `json:"label"`
	Questions int    `json:"questions"`
}

type ExamIntro struct {
	Slug           string         `json:"slug"`
	Title          string         `json:"title"`
	Sections       []SectionIntro `json:"sections"`
	TotalQuestions int            `json:"total_questions"`
}

// Intro summarises exam coverage. Section sizes come from the declared id
// ranges, not from the questions' labels.
func (e Exam) Intro() ExamIntro {
	out := ExamIntro{
		Slug:           e.Slug,
		Title:          e.Title,
		Sections:       make([]SectionIntro, 0, len(e.Sections)),
		TotalQuestions: len(e.Questions),
	}
	for _, s := range e.Sections {
		out.Sections = append(out.Sections, SectionIntro{Label: s.Label, Questions: s.LastID - s.FirstID + 1})
	}
	return out
}

type QuestionView struct {
	ID      int      `json:"id"`
	Section string   `json:"section"`
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title"`
	Prompt  string   `json:"prompt"`
	Hint    string   `json:"hint,omitempty"`
	Options []string `json:"options"`
	Choices []string `json:"choices,omitempty"`
}

type ExamView struct {
	ExamIntro
	Questions []QuestionView `json:"questions"`
}

// PublicView is the exam as shown to a candidate, without answer keys or
// explanations.
func (e Exam) PublicView() ExamView {
	view := ExamView{
		ExamIntro: e.Intro(),
		Questions: make([]QuestionView, 0, len(e.Questions)),
	}
	for _, q := range e.Questions {
		labels := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			labels = append(labels, o.Label)
		}
		view.Questions = append(view.Questions, QuestionView{
			ID:      q.ID,
			Section: q.Section,
			Kind:    q.Kind,
			Title:   q.Title,
			Prompt:  q.Prompt,
			Hint:    q.Hint,
			Options: labels,
			Choices: q.MatchChoices(),
		})
	}
	return view
}

func cloneExam(e Exam) Exam {
	out := e
	out.Sections = append([]Section(nil), e.Sections...)
	out.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]Option(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}
