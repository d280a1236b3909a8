package models

import "fmt"

// Machine-readable error codes surfaced to API clients
const (
	CodeExerciseNotFound    = "EXERCISE_NOT_FOUND"
	CodeStudentNotFound     = "STUDENT_NOT_FOUND"
	CodePersistenceError    = "PERSISTENCE_ERROR"
	CodeRecommendationError = "RECOMMENDATION_ERROR"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidStudentID    = "INVALID_STUDENT_ID"
	CodeInvalidInput        = "INVALID_INPUT"
)

// AppError carries a machine-readable code, a human-readable message and the
// underlying cause
type AppError struct {
	Code    string
	Message string
	Err     error
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}
