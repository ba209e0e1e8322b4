package service

import "errors"

// Domain errors returned to handlers.
var (
	ErrInvalidExamType   = errors.New("unknown exam type")
	ErrMarksAboveMax     = errors.New("total marks exceed the exam type maximum")
	ErrInvalidScoreEdit  = errors.New("invalid score edit")
	ErrReferenceNotFound = errors.New("referenced class or subject does not exist")
	ErrCodeExhausted     = errors.New("could not generate a unique code")
)
