package report

import (
	"bytes"
	"fmt"
	"strings"

	"mockexam/internal/exam"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "summary"
	reviewSheet  = "review"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ResultWorkbook renders a submitted attempt as a spreadsheet with a summary
// sheet and one review row per question.
func ResultWorkbook(res *exam.AttemptResult) ([]byte, error) {
	if res == nil || res.Summary.Report == nil {
		return nil, exam.ErrAttemptNotFinal
	}
	sum := res.Summary
	rep := sum.Report

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	submitted := ""
	if sum.SubmittedAt != nil {
		submitted = sum.SubmittedAt.Format("2006-01-02 15:04:05")
	}
	rows := [][]any{
		{"exam", sum.ExamTitle},
		{"slug", sum.ExamSlug},
		{"candidate", sum.Candidate},
		{"attempt", sum.ID.String()},
		{"submitted_at", submitted},
		{"correct", rep.Correct},
		{"total", rep.Total},
		{"percent", sum.Percent},
		{"band", sum.Band},
		{},
		{"section", "correct", "total"},
	}
	for _, s := range rep.Sections {
		rows = append(rows, []any{s.Label, s.Correct, s.Total})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 28)
	_ = f.SetColWidth(summarySheet, "B", "C", 40)

	if _, err := f.NewSheet(reviewSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	review := [][]any{{"question", "section", "title", "result", "selected", "expected"}}
	for _, it := range res.Items {
		review = append(review, []any{
			it.QuestionID,
			it.Section,
			it.Title,
			it.Reason,
			strings.Join(it.Selected, "; "),
			strings.Join(it.Expected, "; "),
		})
	}
	if err := writeRows(f, reviewSheet, review); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(reviewSheet, "B", "F", 30)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
