package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/reved/pkg/models"
)

// APIError is the machine-readable error body
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope wraps every API response
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// RespondOK writes a success envelope
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// RespondCode writes an error envelope for an explicit code
func RespondCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// RespondError maps an application error to its HTTP status. No error masks
// another: the original code and message pass through.
func RespondError(c *gin.Context, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		RespondCode(c, statusForCode(appErr.Code), appErr.Code, appErr.Message)
		return
	}
	RespondCode(c, http.StatusInternalServerError, models.CodePersistenceError, "erreur interne")
}

func statusForCode(code string) int {
	switch code {
	case models.CodeExerciseNotFound, models.CodeStudentNotFound:
		return http.StatusNotFound
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodeInvalidStudentID, models.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
