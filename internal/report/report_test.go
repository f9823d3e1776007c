package report

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mockexam/internal/exam"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func submittedResult(id uuid.UUID) *exam.AttemptResult {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return &exam.AttemptResult{
		Summary: exam.AttemptSummary{
			ID:          id,
			ExamSlug:    "mock1",
			ExamTitle:   "Mock Exam 1",
			Candidate:   "Ada",
			Status:      exam.StatusSubmitted,
			SubmittedAt: &at,
			Report: &exam.ScoreReport{
				Correct:  3,
				Total:    5,
				Sections: []exam.SectionScore{{Label: "Part 1", Correct: 3, Total: 5}},
			},
			Percent: 60,
			Band:    "good",
		},
		Items: []exam.Evaluation{
			{QuestionID: 1, Section: "Part 1", Title: "Binary Addition", Answered: true, Correct: true, Reason: "correct", Selected: []string{"1001", "9"}, Expected: []string{"1001", "9"}},
			{QuestionID: 2, Section: "Part 1", Title: "Strings", Reason: "unanswered", Expected: []string{"o10"}},
		},
	}
}

func TestResultWorkbook(t *testing.T) {
	body, err := ResultWorkbook(submittedResult(uuid.New()))
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	found := map[string]string{}
	for _, row := range summary {
		if len(row) >= 2 {
			found[row[0]] = row[1]
		}
	}
	if found["correct"] != "3" || found["total"] != "5" || found["band"] != "good" || found["Part 1"] != "3" {
		t.Fatalf("unexpected summary sheet: %v", summary)
	}

	review, err := f.GetRows(reviewSheet)
	if err != nil {
		t.Fatalf("review rows: %v", err)
	}
	if len(review) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(review))
	}
	if review[1][3] != "correct" || review[1][4] != "1001; 9" {
		t.Fatalf("unexpected review row: %v", review[1])
	}
	if review[2][3] != "unanswered" {
		t.Fatalf("unexpected review row: %v", review[2])
	}
}

func TestResultWorkbookRequiresReport(t *testing.T) {
	if _, err := ResultWorkbook(&exam.AttemptResult{}); !errors.Is(err, exam.ErrAttemptNotFinal) {
		t.Fatalf("expected ErrAttemptNotFinal, got %v", err)
	}
}

type resultSourceFunc func(ctx context.Context, id uuid.UUID) (*exam.AttemptResult, error)

func (f resultSourceFunc) GetAttemptResult(ctx context.Context, id uuid.UUID) (*exam.AttemptResult, error) {
	return f(ctx, id)
}

func requestFor(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attempts/"+id+"/result.xlsx", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestResultXLSXHandler(t *testing.T) {
	id := uuid.New()
	h := NewHandler(resultSourceFunc(func(ctx context.Context, got uuid.UUID) (*exam.AttemptResult, error) {
		return submittedResult(got), nil
	}))

	w := httptest.NewRecorder()
	h.ResultXLSX(w, requestFor(id.String()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != XLSXContentType {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "mock1-result-"+id.String()[:8]) {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}

func TestResultXLSXHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		err  error
		want int
	}{
		{name: "bad id", id: "12", want: http.StatusBadRequest},
		{name: "not submitted", id: uuid.NewString(), err: exam.ErrAttemptNotFinal, want: http.StatusBadRequest},
		{name: "missing", id: uuid.NewString(), err: exam.ErrAttemptNotFound, want: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(resultSourceFunc(func(ctx context.Context, id uuid.UUID) (*exam.AttemptResult, error) {
				return nil, tc.err
			}))
			w := httptest.NewRecorder()
			h.ResultXLSX(w, requestFor(tc.id))
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}
