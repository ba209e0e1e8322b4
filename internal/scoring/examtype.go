package scoring

import "strings"

// ExamType is one of the three fixed exam tiers.
type ExamType string

const (
	ExamTypeFirstTest  ExamType = "first-test"
	ExamTypeSecondTest ExamType = "second-test"
	ExamTypeMainExam   ExamType = "main-exam"
)

// ExamTypes lists the canonical tiers in display order.
var ExamTypes = []ExamType{ExamTypeFirstTest, ExamTypeSecondTest, ExamTypeMainExam}

var maxMarks = map[ExamType]int{
	ExamTypeFirstTest:  10,
	ExamTypeSecondTest: 30,
	ExamTypeMainExam:   60,
}

// Legacy spellings found in stored records.
var examTypeAliases = map[string]ExamType{
	"first-test":             ExamTypeFirstTest,
	"first_test":             ExamTypeFirstTest,
	"test1":                  ExamTypeFirstTest,
	"first test":             ExamTypeFirstTest,
	"test":                   ExamTypeFirstTest,
	"first-test (10 marks)":  ExamTypeFirstTest,
	"first test (10 marks)":  ExamTypeFirstTest,
	"second-test":            ExamTypeSecondTest,
	"second_test":            ExamTypeSecondTest,
	"test2":                  ExamTypeSecondTest,
	"second test":            ExamTypeSecondTest,
	"mid-term":               ExamTypeSecondTest,
	"mid term":               ExamTypeSecondTest,
	"second-test (30 marks)": ExamTypeSecondTest,
	"second test (30 marks)": ExamTypeSecondTest,
	"main-exam":              ExamTypeMainExam,
	"main_exam":              ExamTypeMainExam,
	"exam":                   ExamTypeMainExam,
	"final":                  ExamTypeMainExam,
	"main exam":              ExamTypeMainExam,
	"final exam":             ExamTypeMainExam,
	"main-exam (60 marks)":   ExamTypeMainExam,
	"main exam (60 marks)":   ExamTypeMainExam,
}

// ParseExamType normalizes a raw layer/exam-type string. The match is
// case-insensitive and ignores surrounding whitespace.
func ParseExamType(raw string) (ExamType, bool) {
	t, ok := examTypeAliases[strings.ToLower(strings.TrimSpace(raw))]
	return t, ok
}

// Valid reports whether t is one of the canonical tiers.
func (t ExamType) Valid() bool {
	_, ok := maxMarks[t]
	return ok
}

// MaxMarks returns the canonical maximum for the tier.
func (t ExamType) MaxMarks() (int, bool) {
	m, ok := maxMarks[t]
	return m, ok
}

// DisplayName returns the label shown in tables and exports.
func (t ExamType) DisplayName() string {
	switch t {
	case ExamTypeFirstTest:
		return "First Test"
	case ExamTypeSecondTest:
		return "Second Test"
	default:
		return "Main Exam"
	}
}
