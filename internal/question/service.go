package question

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mockexam/internal/exam"

	"github.com/sirupsen/logrus"
)

type Service struct {
	catalog *exam.Catalog
	log     logrus.FieldLogger
}

type ImportResult struct {
	Exam   exam.ExamIntro `json:"exam"`
	Report *ImportReport  `json:"report"`
}

func NewService(catalog *exam.Catalog, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{catalog: catalog, log: log}
}

// Import parses a workbook and registers it under slug, replacing any exam
// already stored there.
func (s *Service) Import(ctx context.Context, slug, title string, r io.Reader) (*ImportResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrInvalidWorkbook)
	}
	e, report, err := ImportExcel(r, slug, title)
	if err != nil {
		return &ImportResult{Report: report}, err
	}
	if err := s.catalog.Replace(*e); err != nil {
		return &ImportResult{Report: report}, err
	}
	s.log.WithFields(logrus.Fields{
		"exam":      e.Slug,
		"questions": report.Questions,
		"failed":    report.FailedRows,
	}).Info("question bank imported")
	return &ImportResult{Exam: e.Intro(), Report: report}, nil
}

// LoadDir imports every .xlsx file in dir, using the file name as slug.
func (s *Service) LoadDir(ctx context.Context, dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return 0, fmt.Errorf("list question bank: %w", err)
	}
	sort.Strings(matches)

	loaded := 0
	for _, path := range matches {
		slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := s.loadFile(ctx, path, slug); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

func (s *Service) loadFile(ctx context.Context, path, slug string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := s.Import(ctx, slug, "", f); err != nil {
		return fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	return nil
}
