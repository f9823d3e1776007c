package question

import (
	"bytes"
	"errors"
	"testing"

	"mockexam/internal/exam"

	"github.com/xuri/excelize/v2"
)

type sheetRows map[string][][]interface{}

func buildWorkbook(t *testing.T, sheets sheetRows) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			row := row
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

var questionHeader = []interface{}{"id", "section", "kind", "title", "prompt", "hint", "explanation", "option", "correct"}

func validQuestionRows() [][]interface{} {
	return [][]interface{}{
		questionHeader,
		{1, "Numbers", "multi", "Binary Addition", "0101 + 0100?", "convert", "it is nine", "1001", "x"},
		{1, "", "multi", "", "", "", "", "1101", ""},
		{1, "", "multi", "", "", "", "", "9", "yes"},
		{2, "Python", "single", "Strings", "value of x?", "", "", "int", ""},
		{2, "", "single", "", "", "", "", "o10", "1"},
		{3, "Python", "matching", "Languages", "match them", "", "", "C", "compiled"},
		{3, "", "matching", "", "", "", "", "Python", "interpreted"},
	}
}

func TestImportExcelBuildsExam(t *testing.T) {
	buf := buildWorkbook(t, sheetRows{
		"questions": validQuestionRows(),
		"sections": {
			{"label", "first_id", "last_id"},
			{"Numbers", 1, 1},
			{"Python", 2, 3},
		},
	})

	e, report, err := ImportExcel(buf, "bank", "Bank")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.FailedRows != 0 || report.Questions != 3 || report.Sections != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if e.Slug != "bank" || e.Title != "Bank" {
		t.Fatalf("unexpected exam header: %s %s", e.Slug, e.Title)
	}

	q1, _ := e.Question(1)
	if q1.Kind != exam.KindMulti || len(q1.Options) != 3 || q1.Title != "Binary Addition" {
		t.Fatalf("unexpected question 1: %+v", q1)
	}
	if !exam.IsCorrect(q1, exam.MultiChoice{Indices: []int{0, 2}}) {
		t.Fatalf("expected imported key {0,2} for question 1")
	}

	q2, _ := e.Question(2)
	if !exam.IsCorrect(q2, exam.SingleChoice{Index: 1}) {
		t.Fatalf("expected imported key 1 for question 2")
	}

	q3, _ := e.Question(3)
	if !exam.IsCorrect(q3, exam.Matching{Slots: []string{"compiled", "interpreted"}}) {
		t.Fatalf("expected imported matching key for question 3")
	}
}

func TestImportExcelDerivesSectionsWithoutSheet(t *testing.T) {
	buf := buildWorkbook(t, sheetRows{"questions": validQuestionRows()})

	e, _, err := ImportExcel(buf, "bank", "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if e.Title != "bank" {
		t.Fatalf("expected slug as fallback title, got %q", e.Title)
	}
	want := []exam.Section{
		{Label: "Numbers", FirstID: 1, LastID: 1},
		{Label: "Python", FirstID: 2, LastID: 3},
	}
	if len(e.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %+v", len(want), e.Sections)
	}
	for i := range want {
		if e.Sections[i] != want[i] {
			t.Fatalf("section %d: expected %+v, got %+v", i, want[i], e.Sections[i])
		}
	}
}

func TestImportExcelReportsBadRows(t *testing.T) {
	rows := validQuestionRows()
	rows = append(rows,
		[]interface{}{"abc", "Python", "single", "", "", "", "", "x", ""},
		[]interface{}{4, "Python", "essay", "", "", "", "", "x", ""},
		[]interface{}{2, "", "multi", "", "", "", "", "float", ""},
		[]interface{}{5, "Python", "single", "", "", "", "", "", ""},
		[]interface{}{6, "Python", "single", "No key", "", "", "", "a", ""},
	)
	buf := buildWorkbook(t, sheetRows{"questions": rows})

	e, report, err := ImportExcel(buf, "bank", "Bank")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.FailedRows != 5 {
		t.Fatalf("expected 5 failed rows, got %d: %+v", report.FailedRows, report.Errors)
	}
	if report.SuccessRows+report.FailedRows != report.TotalRows {
		t.Fatalf("row totals do not add up: %+v", report)
	}
	if last := report.Errors[len(report.Errors)-1]; last.QuestionID != 6 || last.Row == 0 {
		t.Fatalf("expected rejected question 6 to point at its row, got %+v", last)
	}
	if len(report.Errors) != 5 {
		t.Fatalf("expected 5 reported problems, got %+v", report.Errors)
	}
	if _, ok := e.Question(6); ok {
		t.Fatalf("question without a key must be skipped")
	}
	if len(e.Questions) != 3 {
		t.Fatalf("expected 3 usable questions, got %d", len(e.Questions))
	}
}

func TestImportExcelRejectsWorkbook(t *testing.T) {
	tests := []struct {
		name   string
		sheets sheetRows
	}{
		{name: "missing questions sheet", sheets: sheetRows{"other": {{"a"}}}},
		{name: "header only", sheets: sheetRows{"questions": {questionHeader}}},
		{name: "missing column", sheets: sheetRows{"questions": {{"id", "kind"}, {1, "single"}}}},
		{name: "no usable rows", sheets: sheetRows{"questions": {questionHeader, {1, "A", "essay", "", "", "", "", "x", ""}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ImportExcel(buildWorkbook(t, tc.sheets), "bank", "")
			if !errors.Is(err, ErrInvalidWorkbook) {
				t.Fatalf("expected ErrInvalidWorkbook, got %v", err)
			}
		})
	}

	if _, _, err := ImportExcel(bytes.NewReader([]byte("not a zip")), "bank", ""); !errors.Is(err, ErrInvalidWorkbook) {
		t.Fatalf("expected ErrInvalidWorkbook for garbage input, got %v", err)
	}
}
