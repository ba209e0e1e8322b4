// Package export renders reconciled results as the spreadsheet-friendly CSV
// admins download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// bom makes spreadsheet apps detect UTF-8.
const bom = "\uFEFF"

// Header is the fixed column order of the export.
var Header = []string{
	"Student Name", "Class", "Subject", "Exam Type", "Exam Title", "Exam Code",
	"Score", "Total Marks", "Percentage", "Total Questions", "Correct Answers",
	"Date", "Status",
}

// Row is one exported result with its reconciled score.
type Row struct {
	StudentName    string
	ClassName      string
	SubjectName    string
	ExamType       string
	ExamTitle      string
	ExamCode       string
	EarnedMarks    float64
	TotalMarks     int
	Percentage     int
	TotalQuestions int
	CorrectAnswers int
	SubmittedAt    time.Time
	Status         string
}

// WriteCSV writes the header and rows as tab-separated UTF-8 with a BOM.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r Row) record() []string {
	date := "N/A"
	if !r.SubmittedAt.IsZero() {
		date = r.SubmittedAt.Format(time.DateTime)
	}
	status := r.Status
	if status == "" {
		status = "Completed"
	}
	return []string{
		orNA(r.StudentName),
		orNA(r.ClassName),
		orNA(r.SubjectName),
		orNA(r.ExamType),
		orNA(r.ExamTitle),
		r.ExamCode,
		strconv.FormatFloat(math.Floor(r.EarnedMarks+0.5), 'f', 0, 64),
		strconv.Itoa(r.TotalMarks),
		strconv.Itoa(r.Percentage) + "%",
		strconv.Itoa(r.TotalQuestions),
		strconv.Itoa(r.CorrectAnswers),
		date,
		status,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Filename names an export taken at now.
func Filename(now time.Time) string {
	return "exam_results_" + now.Format("2006-01-02_15-04-05") + ".csv"
}
