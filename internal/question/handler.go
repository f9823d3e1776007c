package question

import (
	"context"
	"errors"
	"io"
	"net/http"

	"mockexam/internal/app/apiresp"
	"mockexam/internal/exam"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 16 << 20

type Handler struct {
	svc questionService
}

type questionService interface {
	Import(ctx context.Context, slug, title string, r io.Reader) (*ImportResult, error)
}

func NewHandler(svc questionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiresp.WriteError(w, r, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.svc.Import(r.Context(), chi.URLParam(r, "slug"), r.FormValue("title"), file)
	if err != nil {
		if errors.Is(err, ErrInvalidWorkbook) || errors.Is(err, exam.ErrInvalidExam) {
			msg := err.Error()
			if result != nil && result.Report != nil {
				msg += reportSuffix(result.Report)
			}
			apiresp.WriteError(w, r, http.StatusUnprocessableEntity, msg)
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	apiresp.WriteOK(w, r, http.StatusOK, map[string]any{
		"filename": hdr.Filename,
		"exam":     result.Exam,
		"report":   result.Report,
	})
}

func reportSuffix(rep *ImportReport) string {
	if len(rep.Errors) == 0 {
		return ""
	}
	first := rep.Errors[0]
	return " (first problem: " + first.Sheet + ": " + first.Error + ")"
}
