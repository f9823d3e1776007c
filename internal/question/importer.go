package question

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"mockexam/internal/exam"

	"github.com/xuri/excelize/v2"
)

const (
	questionsSheet = "questions"
	sectionsSheet  = "sections"
)

var ErrInvalidWorkbook = errors.New("invalid question workbook")

type ImportRowError struct {
	Sheet      string `json:"sheet"`
	Row        int    `json:"row"`
	QuestionID int    `json:"question_id,omitempty"`
	Error      string `json:"error"`
}

type ImportReport struct {
	TotalRows   int              `json:"total_rows"`
	SuccessRows int              `json:"success_rows"`
	FailedRows  int              `json:"failed_rows"`
	Questions   int              `json:"questions"`
	Sections    int              `json:"sections"`
	Errors      []ImportRowError `json:"errors"`
}

func (r *ImportReport) fail(sheet string, row, questionID int, msg string) {
	r.FailedRows++
	r.Errors = append(r.Errors, ImportRowError{Sheet: sheet, Row: row, QuestionID: questionID, Error: msg})
}

// ImportExcel reads a question bank workbook. The questions sheet holds one
// row per option; the first row of a question id carries its text columns.
// Rows that cannot be used are listed in the report and skipped.
func ImportExcel(r io.Reader, slug, title string) (*exam.Exam, *ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open excel: %v", ErrInvalidWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	if strings.TrimSpace(title) == "" {
		if props, err := f.GetDocProps(); err == nil && strings.TrimSpace(props.Title) != "" {
			title = strings.TrimSpace(props.Title)
		} else {
			title = slug
		}
	}

	report := &ImportReport{Errors: make([]ImportRowError, 0)}
	questions, err := readQuestions(f, report)
	if err != nil {
		return nil, report, err
	}

	var sections []exam.Section
	if hasSheet(f, sectionsSheet) {
		sections, err = readSections(f, report)
		if err != nil {
			return nil, report, err
		}
	} else {
		sections = deriveSections(questions)
	}

	e := &exam.Exam{
		Slug:      strings.TrimSpace(slug),
		Title:     title,
		Questions: questions,
		Sections:  sections,
	}
	if len(e.Questions) == 0 {
		return nil, report, fmt.Errorf("%w: no usable questions", ErrInvalidWorkbook)
	}
	if err := e.Validate(); err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	report.Questions = len(e.Questions)
	report.Sections = len(e.Sections)
	return e, report, nil
}

func readQuestions(f *excelize.File, report *ImportReport) ([]exam.Question, error) {
	if !hasSheet(f, questionsSheet) {
		return nil, fmt.Errorf("%w: missing sheet %q", ErrInvalidWorkbook, questionsSheet)
	}
	rows, err := f.GetRows(questionsSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows found", ErrInvalidWorkbook)
	}
	header, err := headerIndex(rows[0], "id", "kind", "option")
	if err != nil {
		return nil, err
	}

	var order []int
	byID := make(map[int]*exam.Question)
	rowsByID := make(map[int][]int)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowNo := i + 1
		report.TotalRows++
		get := cellGetter(header, row)

		id, err := strconv.Atoi(get("id"))
		if err != nil || id <= 0 {
			report.fail(questionsSheet, rowNo, 0, "id must be a positive integer")
			continue
		}
		kind, ok := parseKind(get("kind"))
		if !ok {
			report.fail(questionsSheet, rowNo, id, fmt.Sprintf("unknown kind %q", get("kind")))
			continue
		}
		label := get("option")
		if label == "" {
			report.fail(questionsSheet, rowNo, id, "option is required")
			continue
		}

		q, seen := byID[id]
		if !seen {
			q = &exam.Question{ID: id, Kind: kind}
			byID[id] = q
			order = append(order, id)
		} else if q.Kind != kind {
			report.fail(questionsSheet, rowNo, id, fmt.Sprintf("kind %s conflicts with %s", kind, q.Kind))
			continue
		}
		fillBlank(&q.Section, get("section"))
		fillBlank(&q.Title, get("title"))
		fillBlank(&q.Prompt, get("prompt"))
		fillBlank(&q.Hint, get("hint"))
		fillBlank(&q.Explanation, get("explanation"))

		opt := exam.Option{Label: label}
		if kind == exam.KindMatching {
			opt.Match = get("correct")
		} else {
			opt.Correct = parseBoolLoose(get("correct"))
		}
		q.Options = append(q.Options, opt)
		rowsByID[id] = append(rowsByID[id], rowNo)
		report.SuccessRows++
	}

	out := make([]exam.Question, 0, len(order))
	for _, id := range order {
		q := *byID[id]
		if err := q.Validate(); err != nil {
			// Every option row of a rejected question counts as failed.
			rowNos := rowsByID[id]
			report.SuccessRows -= len(rowNos)
			report.fail(questionsSheet, rowNos[0], id, err.Error())
			report.FailedRows += len(rowNos) - 1
			continue
		}
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func readSections(f *excelize.File, report *ImportReport) ([]exam.Section, error) {
	rows, err := f.GetRows(sectionsSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header, err := headerIndex(rows[0], "label", "first_id", "last_id")
	if err != nil {
		return nil, err
	}

	out := make([]exam.Section, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowNo := i + 1
		report.TotalRows++
		get := cellGetter(header, row)

		label := get("label")
		first, errFirst := strconv.Atoi(get("first_id"))
		last, errLast := strconv.Atoi(get("last_id"))
		if label == "" || errFirst != nil || errLast != nil || first <= 0 || last < first {
			report.fail(sectionsSheet, rowNo, 0, "label, first_id and last_id must describe a valid range")
			continue
		}
		out = append(out, exam.Section{Label: label, FirstID: first, LastID: last})
		report.SuccessRows++
	}
	return out, nil
}

// deriveSections builds section declarations from question labels when the
// workbook has no sections sheet.
func deriveSections(questions []exam.Question) []exam.Section {
	var out []exam.Section
	index := make(map[string]int)
	for _, q := range questions {
		if q.Section == "" {
			continue
		}
		i, ok := index[q.Section]
		if !ok {
			index[q.Section] = len(out)
			out = append(out, exam.Section{Label: q.Section, FirstID: q.ID, LastID: q.ID})
			continue
		}
		if q.ID < out[i].FirstID {
			out[i].FirstID = q.ID
		}
		if q.ID > out[i].LastID {
			out[i].LastID = q.ID
		}
	}
	return out
}

func hasSheet(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func headerIndex(row []string, required ...string) (map[string]int, error) {
	header := map[string]int{}
	for i, h := range row {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: missing required column: %s", ErrInvalidWorkbook, col)
		}
	}
	return header, nil
}

func cellGetter(header map[string]int, row []string) func(string) string {
	return func(key string) string {
		idx, ok := header[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func fillBlank(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func parseKind(v string) (exam.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "single", "single-choice", "single_choice":
		return exam.KindSingle, true
	case "multi", "multiple", "multi-choice", "multi_choice", "multiple-choice":
		return exam.KindMulti, true
	case "matching", "match":
		return exam.KindMatching, true
	default:
		return "", false
	}
}

func parseBoolLoose(v string) bool {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes", "y", "x", "correct":
		return true
	default:
		return false
	}
}
