package model

import (
	"time"

	"github.com/google/uuid"
)

// Class represents a school class group students sit exams in.
type Class struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Section   string    `json:"section"`
	Code      string    `json:"code"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateClassRequest is the payload for creating or updating a class.
type CreateClassRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Section string `json:"section" binding:"required,min=1,max=50"`
}
