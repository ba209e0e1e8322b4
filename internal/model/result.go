package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-results/internal/scoring"
)

// Result is a stored exam result. Older records carry the student's
// performance in different fields; nil means the field was never written.
type Result struct {
	ID          uuid.UUID  `json:"id"`
	ExamID      *uuid.UUID `json:"exam_id,omitempty"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	ClassName   string     `json:"class_name"`
	SubjectName string     `json:"subject_name"`
	ExamTitle   string     `json:"exam_title"`
	ExamCode    string     `json:"exam_code"`
	ExamType    string     `json:"exam_type"`
	LayerName   string     `json:"layer_name,omitempty"`

	CorrectAnswers *int             `json:"correct_answers,omitempty"`
	Score          *float64         `json:"score,omitempty"`
	Answers        []scoring.Answer `json:"answers,omitempty"`
	EarnedPoints   *float64         `json:"earned_points,omitempty"`
	Percentage     *int             `json:"percentage,omitempty"`

	TotalMarks     *int `json:"total_marks,omitempty"`
	TotalQuestions *int `json:"total_questions,omitempty"`
	TotalPoints    *int `json:"total_points,omitempty"`

	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Raw converts the stored record into the reconciliation input.
func (r *Result) Raw() scoring.RawResult {
	raw := scoring.RawResult{
		ExamType:       r.ExamType,
		CorrectAnswers: r.CorrectAnswers,
		Score:          r.Score,
		Answers:        r.Answers,
		EarnedPoints:   r.EarnedPoints,
		TotalMarks:     r.TotalMarks,
		TotalQuestions: r.TotalQuestions,
		TotalPoints:    r.TotalPoints,
	}
	if r.ExamID != nil {
		raw.ExamID = r.ExamID.String()
	}
	return raw
}

// ScoreField names the result field an admin edit writes to.
type ScoreField string

const (
	ScoreFieldCorrectAnswers ScoreField = "correct_answers"
	ScoreFieldScore          ScoreField = "score"
	ScoreFieldEarnedPoints   ScoreField = "earned_points"
)

// UpdateScoreRequest is the payload of a manual score edit.
type UpdateScoreRequest struct {
	Field ScoreField `json:"field" binding:"required,oneof=correct_answers score earned_points"`
	Value *float64   `json:"value" binding:"required,min=0"`
}

// ResultFilter narrows a result listing. Empty fields match everything.
type ResultFilter struct {
	ClassName   string
	SubjectName string
	ExamType    string
	ExamID      *uuid.UUID
}

// ScoreUpdate is the canonical score persisted for one result.
type ScoreUpdate struct {
	ResultID       uuid.UUID `json:"result_id"`
	CorrectAnswers int       `json:"correct_answers"`
	EarnedPoints   float64   `json:"earned_points"`
	Percentage     int       `json:"percentage"`
}

// ResultRow is a result as shown to admins: stored identity fields plus the
// reconciled score.
type ResultRow struct {
	ID          uuid.UUID  `json:"id"`
	ExamID      *uuid.UUID `json:"exam_id,omitempty"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	ClassName   string     `json:"class_name"`
	SubjectName string     `json:"subject_name"`
	ExamTitle   string     `json:"exam_title"`
	ExamCode    string     `json:"exam_code"`
	ExamType    string     `json:"exam_type"`

	CorrectAnswers    int                  `json:"correct_answers"`
	TotalQuestions    int                  `json:"total_questions"`
	PointsPerQuestion float64              `json:"points_per_question"`
	EarnedMarks       float64              `json:"earned_marks"`
	TotalMarks        int                  `json:"total_marks"`
	Percentage        int                  `json:"percentage"`
	Band              string               `json:"band"`
	Basis             scoring.Basis        `json:"basis"`
	TotalsSource      scoring.TotalsSource `json:"totals_source"`

	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}
