package exam

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidAnswer = errors.New("invalid answer payload")

type answerPayload struct {
	Selected json.RawMessage `json:"selected,omitempty"`
	Matches  []*string       `json:"matches,omitempty"`
}

// DecodeAnswer maps a raw form payload onto the answer shape of q.
// Choice kinds use {"selected": 2} or {"selected": [0, 2]}; matching uses
// {"matches": ["a", null, "b"]}. An empty payload or a missing field is a valid
// "unanswered" and yields a nil Answer.
func DecodeAnswer(q Question, raw []byte) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var p answerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	switch q.Kind {
	case KindSingle:
		return decodeSingle(q, p.Selected)
	case KindMulti:
		return decodeMulti(q, p.Selected)
	case KindMatching:
		return decodeMatching(q, p.Matches)
	default:
		return nil, fmt.Errorf("%w: unknown question kind %q", ErrInvalidAnswer, q.Kind)
	}
}

func decodeSingle(q Question, raw json.RawMessage) (Answer, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var idx int
	if err := json.Unmarshal(raw, &idx); err != nil {
		var list []int
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: selected must be an option index", ErrInvalidAnswer)
		}
		switch len(list) {
		case 0:
			return nil, nil
		case 1:
			idx = list[0]
		default:
			return nil, fmt.Errorf("%w: single-choice accepts one option", ErrInvalidAnswer)
		}
	}
	if idx < 0 || idx >= len(q.Options) {
		return nil, fmt.Errorf("%w: option index %d out of range", ErrInvalidAnswer, idx)
	}
	return SingleChoice{Index: idx}, nil
}

func decodeMulti(q Question, raw json.RawMessage) (Answer, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var list []int
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: selected must be a list of option indices", ErrInvalidAnswer)
	}
	seen := make(map[int]struct{}, len(list))
	for _, idx := range list {
		if idx < 0 || idx >= len(q.Options) {
			return nil, fmt.Errorf("%w: option index %d out of range", ErrInvalidAnswer, idx)
		}
		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("%w: option index %d selected twice", ErrInvalidAnswer, idx)
		}
		seen[idx] = struct{}{}
	}
	return MultiChoice{Indices: normalizeIndices(list)}, nil
}

func decodeMatching(q Question, matches []*string) (Answer, error) {
	if matches == nil {
		return nil, nil
	}
	if len(matches) != len(q.Options) {
		return nil, fmt.Errorf("%w: expected %d matches, got %d", ErrInvalidAnswer, len(q.Options), len(matches))
	}
	allowed := make(map[string]struct{}, len(q.Options))
	for _, c := range q.MatchChoices() {
		allowed[c] = struct{}{}
	}
	slots := make([]string, len(matches))
	for i, m := range matches {
		if m == nil {
			continue
		}
		v := strings.TrimSpace(*m)
		if v == "" {
			continue
		}
		if _, ok := allowed[v]; !ok {
			return nil, fmt.Errorf("%w: %q is not a choice for slot %d", ErrInvalidAnswer, v, i)
		}
		slots[i] = v
	}
	return Matching{Slots: slots}, nil
}

// EncodeAnswer is the canonical payload for a, as accepted by DecodeAnswer.
func EncodeAnswer(a Answer) (json.RawMessage, error) {
	var v interface{}
	switch sel := a.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case SingleChoice:
		v = map[string]int{"selected": sel.Index}
	case MultiChoice:
		v = map[string][]int{"selected": normalizeIndices(sel.Indices)}
	case Matching:
		slots := make([]*string, len(sel.Slots))
		for i := range sel.Slots {
			if sel.Slots[i] != "" {
				s := sel.Slots[i]
				slots[i] = &s
			}
		}
		v = map[string][]*string{"matches": slots}
	default:
		return nil, fmt.Errorf("%w: unsupported answer type %T", ErrInvalidAnswer, a)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}
	return b, nil
}

// DecodeStoredAnswers rebuilds the answer map of an attempt. Payloads that no
// longer decode against the exam are dropped and so score as unanswered.
func DecodeStoredAnswers(e Exam, stored map[int]json.RawMessage) map[int]Answer {
	out := make(map[int]Answer, len(stored))
	for _, q := range e.Questions {
		raw, ok := stored[q.ID]
		if !ok {
			continue
		}
		a, err := DecodeAnswer(q, raw)
		if err != nil || a == nil {
			continue
		}
		out[q.ID] = a
	}
	return out
}

// MatchChoices lists the distinct right-hand values of a matching question,
// sorted, as offered to the candidate.
func (q Question) MatchChoices() []string {
	if q.Kind != KindMatching {
		return nil
	}
	set := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		set[o.Match] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func isJSONNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
