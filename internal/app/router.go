package app

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"mockexam/internal/app/apiresp"
	"mockexam/internal/app/observability"
	"mockexam/internal/auth"
	"mockexam/internal/contact"
	"mockexam/internal/exam"
	"mockexam/internal/question"
	"mockexam/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every HTTP route. A nil db keeps attempts and contact
// requests in memory.
func NewRouter(cfg Config, db *sql.DB, catalog *exam.Catalog, log logrus.FieldLogger) (http.Handler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	adminGate, err := auth.NewAdminGate(cfg.AdminTokenHash)
	if err != nil {
		return nil, fmt.Errorf("admin gate: %w", err)
	}

	collector := observability.NewCollector(db, log)

	var (
		attemptStore exam.Store       = exam.NewMemoryStore()
		contactStore contact.Store    = contact.NewMemoryStore()
		notifier     contact.Notifier // stays nil without SMTP
	)
	if db != nil {
		attemptStore = exam.NewPostgresStore(db)
		contactStore = contact.NewPostgresStore(db)
	}
	if m := contact.NewSMTPMailer(contact.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
		To:   cfg.ContactNotifyTo,
	}); m != nil {
		notifier = m
	}

	examSvc := exam.NewService(catalog, attemptStore, exam.ServiceConfig{
		SubmitLocked: cfg.SubmitLocked,
		Logger:       log,
		Observer:     collector,
	})
	examHandler := exam.NewHandler(examSvc)
	reportHandler := report.NewHandler(examSvc)
	questionHandler := question.NewHandler(question.NewService(catalog, log))
	contactHandler := contact.NewHandler(contact.NewService(contactStore, notifier, log))

	limiter := NewIPRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	rateLimited := RateLimitMiddleware(limiter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		apiresp.WriteOK(w, r, http.StatusOK, map[string]any{
			"status":   "ok",
			"database": db != nil,
		})
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/exams", examHandler.ListExams)
		api.Get("/exams/{slug}", examHandler.GetExam)
		api.Get("/attempts/{id}", examHandler.GetAttempt)
		api.Get("/attempts/{id}/result", examHandler.Result)
		api.Get("/attempts/{id}/result.xlsx", reportHandler.ResultXLSX)

		api.Group(func(candidate chi.Router) {
			candidate.Use(CSRFMiddleware(cfg.CSRFEnforced))
			candidate.With(rateLimited).Post("/attempts", examHandler.Start)
			candidate.Put("/attempts/{id}/answers/{questionID}", examHandler.SaveAnswer)
			candidate.With(rateLimited).Post("/attempts/{id}/submit", examHandler.Submit)
			candidate.Post("/attempts/{id}/retake", examHandler.Retake)
			candidate.With(rateLimited).Post("/contact", contactHandler.Submit)
		})

		api.Group(func(admin chi.Router) {
			admin.Use(adminGate.Require)
			admin.Post("/admin/exams/{slug}/import", questionHandler.Import)
			admin.Get("/admin/contact", contactHandler.List)
		})
	})

	return r, nil
}
