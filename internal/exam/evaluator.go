package exam

import "sort"

type Kind string

const (
	KindSingle   Kind = "single-choice"
	KindMulti    Kind = "multi-choice"
	KindMatching Kind = "matching"
)

// Option is one authored option of a question. Choice kinds use Correct to mark
// the answer key; matching questions carry the expected right-hand value in Match.
type Option struct {
	Label   string `json:"label"`
	Correct bool   `json:"correct,omitempty"`
	Match   string `json:"match,omitempty"`
}

type Question struct {
	ID          int      `json:"id"`
	Section     string   `json:"section"`
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Prompt      string   `json:"prompt"`
	Hint        string   `json:"hint,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Options     []Option `json:"options"`
}

// Answer is a candidate's submission for one question. The concrete type must
// match the question kind; anything else is scored as unanswered.
type Answer interface {
	answerKind() Kind
}

type SingleChoice struct {
	Index int
}

type MultiChoice struct {
	Indices []int
}

// Matching holds one selected right-hand value per option slot. An empty string
// is an unselected slot.
type Matching struct {
	Slots []string
}

func (SingleChoice) answerKind() Kind { return KindSingle }
func (MultiChoice) answerKind() Kind  { return KindMulti }
func (Matching) answerKind() Kind     { return KindMatching }

// IsCorrect reports whether a matches the answer key of q. It never panics and
// treats nil, mis-shaped or out-of-range answers as incorrect.
func IsCorrect(q Question, a Answer) bool {
	switch q.Kind {
	case KindSingle:
		sel, ok := a.(SingleChoice)
		if !ok || sel.Index < 0 || sel.Index >= len(q.Options) {
			return false
		}
		return q.Options[sel.Index].Correct
	case KindMulti:
		sel, ok := a.(MultiChoice)
		if !ok {
			return false
		}
		return equalIndexSet(sel.Indices, q.CorrectIndices())
	case KindMatching:
		sel, ok := a.(Matching)
		if !ok || len(sel.Slots) != len(q.Options) {
			return false
		}
		for i, v := range sel.Slots {
			if v == "" || v != q.Options[i].Match {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CorrectIndices returns the indices of options marked correct, in option order.
func (q Question) CorrectIndices() []int {
	out := make([]int, 0, len(q.Options))
	for i, o := range q.Options {
		if o.Correct {
			out = append(out, i)
		}
	}
	return out
}

// ExpectedAnswers renders the answer key for review screens: option labels for
// choice kinds, "left -> right" pairs for matching.
func (q Question) ExpectedAnswers() []string {
	out := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		switch q.Kind {
		case KindMatching:
			out = append(out, matchPair(o.Label, o.Match))
		default:
			if o.Correct {
				out = append(out, o.Label)
			}
		}
	}
	return out
}

type Evaluation struct {
	QuestionID int      `json:"question_id"`
	Section    string   `json:"section"`
	Title      string   `json:"title"`
	Answered   bool     `json:"answered"`
	Correct    bool     `json:"correct"`
	Reason     string   `json:"reason"`
	Selected   []string `json:"selected,omitempty"`
	Expected   []string `json:"expected"`
}

func Evaluate(q Question, a Answer) Evaluation {
	ev := Evaluation{
		QuestionID: q.ID,
		Section:    q.Section,
		Title:      q.Title,
		Answered:   isAnswered(q, a),
		Correct:    IsCorrect(q, a),
		Expected:   q.ExpectedAnswers(),
	}
	if ev.Answered {
		ev.Selected = selectedLabels(q, a)
	}
	switch {
	case ev.Correct:
		ev.Reason = "correct"
	case !ev.Answered:
		ev.Reason = "unanswered"
	default:
		ev.Reason = "wrong"
	}
	return ev
}

type Section struct {
	Label   string `json:"label"`
	FirstID int    `json:"first_id"`
	LastID  int    `json:"last_id"`
}

type Exam struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Sections  []Section  `json:"sections"`
}

func (e Exam) Question(id int) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

type SectionScore struct {
	Label   string `json:"label"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

type ScoreReport struct {
	Correct  int            `json:"correct"`
	Total    int            `json:"total"`
	Sections []SectionScore `json:"sections"`
}

// Percent is the truncated integer percentage of correct answers.
func (r ScoreReport) Percent() int {
	if r.Total <= 0 {
		return 0
	}
	return r.Correct * 100 / r.Total
}

func (r ScoreReport) Band() string {
	switch {
	case r.Total > 0 && r.Correct*100 >= 75*r.Total:
		return "excellent"
	case r.Total > 0 && r.Correct*100 >= 50*r.Total:
		return "good"
	default:
		return "review"
	}
}

// Score evaluates every question of e against answers. Missing entries count as
// unanswered. Questions whose section label is not declared in e.Sections count
// toward the totals only.
func Score(e Exam, answers map[int]Answer) ScoreReport {
	report := ScoreReport{
		Total:    len(e.Questions),
		Sections: make([]SectionScore, len(e.Sections)),
	}
	index := make(map[string]int, len(e.Sections))
	for i, s := range e.Sections {
		report.Sections[i] = SectionScore{Label: s.Label}
		if _, dup := index[s.Label]; !dup {
			index[s.Label] = i
		}
	}

	for _, q := range e.Questions {
		ok := IsCorrect(q, answers[q.ID])
		if ok {
			report.Correct++
		}
		i, declared := index[q.Section]
		if !declared {
			continue
		}
		report.Sections[i].Total++
		if ok {
			report.Sections[i].Correct++
		}
	}
	return report
}

// Review scores e and returns the per-question evaluations in exam order.
func Review(e Exam, answers map[int]Answer) (ScoreReport, []Evaluation) {
	items := make([]Evaluation, 0, len(e.Questions))
	for _, q := range e.Questions {
		items = append(items, Evaluate(q, answers[q.ID]))
	}
	return Score(e, answers), items
}

func isAnswered(q Question, a Answer) bool {
	switch sel := a.(type) {
	case SingleChoice:
		return q.Kind == KindSingle
	case MultiChoice:
		// An explicit empty selection is an answer.
		return q.Kind == KindMulti
	case Matching:
		if q.Kind != KindMatching || len(sel.Slots) == 0 {
			return false
		}
		for _, v := range sel.Slots {
			if v == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func selectedLabels(q Question, a Answer) []string {
	switch sel := a.(type) {
	case SingleChoice:
		if sel.Index >= 0 && sel.Index < len(q.Options) {
			return []string{q.Options[sel.Index].Label}
		}
	case MultiChoice:
		out := make([]string, 0, len(sel.Indices))
		for _, i := range normalizeIndices(sel.Indices) {
			if i >= 0 && i < len(q.Options) {
				out = append(out, q.Options[i].Label)
			}
		}
		return out
	case Matching:
		out := make([]string, 0, len(sel.Slots))
		for i, v := range sel.Slots {
			if i < len(q.Options) {
				out = append(out, matchPair(q.Options[i].Label, v))
			}
		}
		return out
	}
	return nil
}

func equalIndexSet(selected, correct []int) bool {
	a := normalizeIndices(selected)
	b := normalizeIndices(correct)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalizeIndices returns a sorted copy of in without duplicates. The result
// is never nil so an empty selection still encodes as [].
func normalizeIndices(in []int) []int {
	out := make([]int, 0, len(in))
	out = append(out, in...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}

func matchPair(left, right string) string {
	return left + " -> " + right
}
