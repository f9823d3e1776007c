package exam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mockexam/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc examService
}

type examService interface {
	ListExams(ctx context.Context) ([]ExamIntro, error)
	GetExam(ctx context.Context, slug string) (*ExamView, error)
	StartAttempt(ctx context.Context, slug, candidate string) (*Attempt, error)
	GetAttemptSummary(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error)
	SaveAnswer(ctx context.Context, in SaveAnswerInput) error
	SubmitAttempt(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error)
	GetAttemptResult(ctx context.Context, attemptID uuid.UUID) (*AttemptResult, error)
	ResetAttempt(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type startAttemptRequest struct {
	ExamSlug  string `json:"exam_slug"`
	Candidate string `json:"candidate"`
}

type saveAnswerRequest struct {
	AnswerPayload json.RawMessage `json:"answer_payload"`
}

func NewHandler(svc examService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListExams(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetExam(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, ErrExamNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.ExamSlug) == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "exam_slug is required"})
		return
	}

	attempt, err := h.svc.StartAttempt(r.Context(), req.ExamSlug, req.Candidate)
	if err != nil {
		switch {
		case errors.Is(err, ErrExamNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: attempt})
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := parseAttemptID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.GetAttemptSummary(r.Context(), attemptID)
	if err != nil {
		writeAttemptError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: summary})
}

func (h *Handler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := parseAttemptID(w, r)
	if !ok {
		return
	}
	questionID, err := strconv.Atoi(chi.URLParam(r, "questionID"))
	if err != nil || questionID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question id"})
		return
	}

	var req saveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if len(req.AnswerPayload) == 0 {
		req.AnswerPayload = json.RawMessage(`{}`)
	}

	err = h.svc.SaveAnswer(r.Context(), SaveAnswerInput{
		AttemptID:     attemptID,
		QuestionID:    questionID,
		AnswerPayload: req.AnswerPayload,
	})
	if err != nil {
		writeAttemptError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]string{"status": "saved"}})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := parseAttemptID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.SubmitAttempt(r.Context(), attemptID)
	if err != nil {
		writeAttemptError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: summary})
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := parseAttemptID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetAttemptResult(r.Context(), attemptID)
	if err != nil {
		writeAttemptError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: result})
}

func (h *Handler) Retake(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := parseAttemptID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.ResetAttempt(r.Context(), attemptID)
	if err != nil {
		writeAttemptError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: summary})
}

// ParseAttemptID reads the {id} route parameter.
func ParseAttemptID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
}

func parseAttemptID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := ParseAttemptID(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid attempt id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeAttemptError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAttemptNotFound), errors.Is(err, ErrExamNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrQuestionNotInExam), errors.Is(err, ErrInvalidAnswer), errors.Is(err, ErrAttemptNotFinal):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrAttemptNotEditable):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSubmissionLocked):
		writeJSON(w, r, http.StatusForbidden, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
