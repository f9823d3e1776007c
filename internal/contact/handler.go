package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mockexam/internal/app/apiresp"
	"mockexam/internal/auth"
)

type Handler struct {
	svc contactService
}

type contactService interface {
	Submit(ctx context.Context, in SubmitInput) (*Request, error)
	List(ctx context.Context, limit, offset int) ([]Request, error)
}

type submitRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ExamInterest string `json:"exam_interest"`
	Message      string `json:"message"`
}

func NewHandler(svc contactService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Submit(r.Context(), SubmitInput{
		Name:         req.Name,
		Email:        req.Email,
		ExamInterest: req.ExamInterest,
		Message:      req.Message,
		RemoteAddr:   r.RemoteAddr,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, map[string]any{
		"id":         created.ID,
		"created_at": created.CreatedAt,
	})
}

// List is mounted behind the admin gate and refuses requests it did not mark.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		apiresp.WriteError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}
