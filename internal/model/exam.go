package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-results/internal/scoring"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusActive ExamStatus = "ACTIVE"
	ExamStatusClosed ExamStatus = "CLOSED"
)

// Exam represents an exam definition authored by an admin.
type Exam struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	ClassID         *uuid.UUID       `json:"class_id,omitempty"`
	ClassName       string           `json:"class_name"`
	SubjectID       *uuid.UUID       `json:"subject_id,omitempty"`
	SubjectName     string           `json:"subject_name"`
	ExamType        scoring.ExamType `json:"exam_type"`
	TotalMarks      int              `json:"total_marks"`
	TotalQuestions  int              `json:"total_questions"`
	DurationMinutes int              `json:"duration_minutes"`
	Code            string           `json:"code"`
	Status          ExamStatus       `json:"status"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Definition returns the part of the exam the score reconciliation needs.
func (e *Exam) Definition() *scoring.ExamDefinition {
	return &scoring.ExamDefinition{
		TotalMarks:     e.TotalMarks,
		TotalQuestions: e.TotalQuestions,
		Type:           e.ExamType,
	}
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	ClassID         string `json:"class_id" binding:"required,uuid"`
	SubjectID       string `json:"subject_id" binding:"required,uuid"`
	ExamType        string `json:"exam_type" binding:"required,exam_type"`
	TotalMarks      int    `json:"total_marks" binding:"required,min=1"`
	TotalQuestions  int    `json:"total_questions" binding:"required,min=1,max=500"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	ExamType        string     `json:"exam_type" binding:"omitempty,exam_type"`
	TotalMarks      *int       `json:"total_marks" binding:"omitempty,min=1"`
	TotalQuestions  *int       `json:"total_questions" binding:"omitempty,min=1,max=500"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Status          ExamStatus `json:"status" binding:"omitempty,oneof=ACTIVE CLOSED"`
}
