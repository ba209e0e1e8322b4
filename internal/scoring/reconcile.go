// Package scoring turns exam results stored in any of the legacy shapes into
// one canonical score: correct answers, earned marks and a percentage.
package scoring

import "errors"

const (
	// DefaultTotalMarks is used when neither the exam, the result nor the
	// exam type supply a maximum.
	DefaultTotalMarks = 30
	// DefaultTotalQuestions is used when the question count is unknown.
	DefaultTotalQuestions = 6
)

var (
	// ErrMissingExamData marks a result scored purely from hard defaults.
	// Reconcile never returns it; it is exposed for logging.
	ErrMissingExamData = errors.New("no exam record and no embedded exam fields")
	// ErrLookupFailure wraps exam lookup errors absorbed by the batch join.
	ErrLookupFailure = errors.New("exam lookup failed")
	// ErrExamNotFound may be returned by an ExamLookup for unknown IDs.
	ErrExamNotFound = errors.New("exam not found")
)

// ExamDefinition is the exam-side input. Zero or negative totals are absent.
type ExamDefinition struct {
	TotalMarks     int      `json:"total_marks"`
	TotalQuestions int      `json:"total_questions"`
	Type           ExamType `json:"exam_type"`
}

// Answer is one entry of a stored answers list.
type Answer struct {
	IsCorrect bool `json:"isCorrect"`
}

// RawResult is a result record as read from storage. Nil fields are absent.
type RawResult struct {
	ExamID   string
	ExamType string

	CorrectAnswers *int
	Score          *float64
	Answers        []Answer
	EarnedPoints   *float64

	TotalMarks     *int
	TotalQuestions *int
	TotalPoints    *int
}

// Basis names the evidence path a score was derived from.
type Basis string

const (
	BasisCorrectAnswers  Basis = "correct_answers"
	BasisScoreCount      Basis = "score_count"
	BasisScorePercentage Basis = "score_percentage"
	BasisScoreMarks      Basis = "score_marks"
	BasisAnswers         Basis = "answers"
	BasisEarnedPoints    Basis = "earned_points"
	BasisNone            Basis = "none"
)

// TotalsSource names where the exam totals were taken from.
type TotalsSource string

const (
	TotalsFromExam     TotalsSource = "exam"
	TotalsFromResult   TotalsSource = "result"
	TotalsFromExamType TotalsSource = "exam_type"
	TotalsDefault      TotalsSource = "default"
)

// NormalizedScore is the canonical score of one result.
type NormalizedScore struct {
	CorrectAnswers    int          `json:"correct_answers"`
	PointsPerQuestion float64      `json:"points_per_question"`
	EarnedMarks       float64      `json:"earned_marks"`
	Percentage        int          `json:"percentage"`
	TotalMarks        int          `json:"total_marks"`
	TotalQuestions    int          `json:"total_questions"`
	Basis             Basis        `json:"basis"`
	Totals            TotalsSource `json:"totals_source"`
}

// MissingExamData reports whether the score was computed from hard defaults only.
func (n NormalizedScore) MissingExamData() bool {
	return n.Totals == TotalsDefault
}

// Reconcile scores result against exam. exam may be nil. It is total: any
// missing or malformed input degrades to the next rule or to zero.
func Reconcile(exam *ExamDefinition, result RawResult) NormalizedScore {
	marks, questions, src := resolveTotals(exam, result)
	perQuestion := float64(marks) / float64(questions)

	correct, basis := correctAnswers(Classify(result), questions, perQuestion)

	earned := float64(correct) * perQuestion
	if earned < 0 {
		earned = 0
	}
	if earned > float64(marks) {
		earned = float64(marks)
	}

	pct := 0
	if marks > 0 {
		pct = roundHalfUp(earned / float64(marks) * 100)
	}

	return NormalizedScore{
		CorrectAnswers:    correct,
		PointsPerQuestion: perQuestion,
		EarnedMarks:       earned,
		Percentage:        pct,
		TotalMarks:        marks,
		TotalQuestions:    questions,
		Basis:             basis,
		Totals:            src,
	}
}

// resolveTotals applies exam → result → exam type → default, field by field.
// The reported source is the one that supplied TotalMarks.
func resolveTotals(exam *ExamDefinition, r RawResult) (marks, questions int, src TotalsSource) {
	var examMarks, examQuestions int
	var examType ExamType
	if exam != nil {
		examMarks, examQuestions, examType = exam.TotalMarks, exam.TotalQuestions, exam.Type
	}
	if !examType.Valid() {
		examType, _ = ParseExamType(r.ExamType)
	}

	switch {
	case examMarks > 0:
		marks, src = examMarks, TotalsFromExam
	case positive(r.TotalMarks):
		marks, src = *r.TotalMarks, TotalsFromResult
	case positive(r.TotalPoints):
		marks, src = *r.TotalPoints, TotalsFromResult
	default:
		if m, ok := examType.MaxMarks(); ok {
			marks, src = m, TotalsFromExamType
		} else {
			marks, src = DefaultTotalMarks, TotalsDefault
		}
	}

	switch {
	case examQuestions > 0:
		questions = examQuestions
	case positive(r.TotalQuestions):
		questions = *r.TotalQuestions
	default:
		questions = DefaultTotalQuestions
	}
	return marks, questions, src
}

func positive(p *int) bool {
	return p != nil && *p > 0
}
