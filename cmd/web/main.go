package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mockexam/internal/app"
	"mockexam/internal/db"
	"mockexam/internal/exam"
	"mockexam/internal/question"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("config error")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.LogLevel).Warn("unknown log level, keeping info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbConn *sql.DB
	if cfg.DBDSN != "" {
		dbConn, err = db.OpenPostgresWithConfig(ctx, cfg.DBDSN, db.PostgresConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime(),
		})
		if err != nil {
			logger.WithError(err).Fatal("database error")
		}
		defer dbConn.Close()
		if err := db.Migrate(ctx, dbConn); err != nil {
			logger.WithError(err).Fatal("migration error")
		}
	} else {
		logger.Warn("DB_DSN not set, attempts are kept in memory")
	}

	catalog, err := exam.NewCatalog(exam.DemoExams()...)
	if err != nil {
		logger.WithError(err).Fatal("demo exams invalid")
	}
	if cfg.QuestionBankDir != "" {
		n, err := question.NewService(catalog, logger).LoadDir(ctx, cfg.QuestionBankDir)
		if err != nil {
			logger.WithError(err).Fatal("question bank error")
		}
		logger.WithFields(logrus.Fields{"dir": cfg.QuestionBankDir, "exams": n}).Info("question bank loaded")
	}

	router, err := app.NewRouter(cfg, dbConn, catalog, logger)
	if err != nil {
		logger.WithError(err).Fatal("router error")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "env": cfg.AppEnv, "submit_locked": cfg.SubmitLocked}).Info("mockexam web listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
