package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mockexam/internal/app/apiresp"
	"mockexam/internal/exam"

	"github.com/google/uuid"
)

type Handler struct {
	results resultSource
}

type resultSource interface {
	GetAttemptResult(ctx context.Context, attemptID uuid.UUID) (*exam.AttemptResult, error)
}

func NewHandler(results resultSource) *Handler {
	return &Handler{results: results}
}

// ResultXLSX serves the result of a submitted attempt as a workbook download.
func (h *Handler) ResultXLSX(w http.ResponseWriter, r *http.Request) {
	attemptID, err := exam.ParseAttemptID(r)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid attempt id")
		return
	}

	res, err := h.results.GetAttemptResult(r.Context(), attemptID)
	if err != nil {
		switch {
		case errors.Is(err, exam.ErrAttemptNotFound), errors.Is(err, exam.ErrExamNotFound):
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, exam.ErrAttemptNotFinal):
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
		default:
			apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	body, err := ResultWorkbook(res)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	filename := fmt.Sprintf("%s-result-%s.xlsx", res.Summary.ExamSlug, attemptID.String()[:8])
	apiresp.WriteAttachment(w, filename, XLSXContentType, body)
}
