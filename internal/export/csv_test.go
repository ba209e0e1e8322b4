package export

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{
			StudentName:    "Ada Lovelace",
			ClassName:      "JSS1",
			SubjectName:    "Maths",
			ExamType:       "Second Test (30 marks)",
			ExamTitle:      "Fractions\tand decimals",
			ExamCode:       "EXMAB12",
			EarnedMarks:    22.5,
			TotalMarks:     30,
			Percentage:     75,
			TotalQuestions: 4,
			CorrectAnswers: 3,
			SubmittedAt:    time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
			Status:         "completed",
		},
		{},
	}

	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatalf("expected output to start with a BOM")
	}

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\uFEFF"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines: %q", len(lines), lines)
	}
	if lines[0] != strings.Join(Header, "\t") {
		t.Errorf("unexpected header %q", lines[0])
	}

	want := "Ada Lovelace\tJSS1\tMaths\tSecond Test (30 marks)\t\"Fractions\tand decimals\"\tEXMAB12\t23\t30\t75%\t4\t3\t2024-03-05 14:07:09\tcompleted"
	if lines[1] != want {
		t.Errorf("unexpected row\nwant %q\n got %q", want, lines[1])
	}

	empty := strings.Split(lines[2], "\t")
	if len(empty) != len(Header) {
		t.Fatalf("expected %d columns, got %d", len(Header), len(empty))
	}
	if empty[0] != "N/A" || empty[5] != "" || empty[11] != "N/A" || empty[12] != "Completed" {
		t.Errorf("unexpected defaults %q", empty)
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2024, 12, 1, 9, 5, 3, 0, time.UTC))
	if got != "exam_results_2024-12-01_09-05-03.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
