package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/reved/internal/attempt"
	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/internal/recommendation"
	"github.com/example/reved/internal/srs"
	"github.com/example/reved/pkg/models"
)

const sessionTTL = 24 * time.Hour

// AuthHandler issues session tokens
type AuthHandler struct {
	students *database.StudentRepository
	secret   string
	log      *logger.Logger
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(students *database.StudentRepository, secret string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{students: students, secret: secret, log: log.With("handler", "auth")}
}

type loginRequest struct {
	StudentID int64  `json:"studentId" binding:"required"`
	Pin       string `json:"pin" binding:"required"`
}

// Login verifies a student's PIN and returns a session token.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "corps de requete invalide")
		return
	}

	student, err := h.students.GetByID(c.Request.Context(), req.StudentID)
	if err != nil {
		// Same answer for unknown id and wrong pin
		RespondCode(c, http.StatusUnauthorized, models.CodeUnauthorized, "identifiants invalides")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(student.PinHash), []byte(req.Pin)) != nil {
		RespondCode(c, http.StatusUnauthorized, models.CodeUnauthorized, "identifiants invalides")
		return
	}

	token, err := IssueToken(h.secret, student.ID, sessionTTL)
	if err != nil {
		h.log.Error("failed to sign session token", "error", err)
		RespondCode(c, http.StatusInternalServerError, models.CodePersistenceError, "erreur interne")
		return
	}
	RespondOK(c, gin.H{"token": token})
}

// StudentHandler serves the per-student endpoints
type StudentHandler struct {
	processor *attempt.Processor
	engine    *recommendation.Engine
	scheduler *srs.Scheduler
	progress  *database.ProgressRepository
	log       *logger.Logger
}

// NewStudentHandler creates the student handler
func NewStudentHandler(
	processor *attempt.Processor,
	engine *recommendation.Engine,
	scheduler *srs.Scheduler,
	progress *database.ProgressRepository,
	log *logger.Logger,
) *StudentHandler {
	return &StudentHandler{
		processor: processor,
		engine:    engine,
		scheduler: scheduler,
		progress:  progress,
		log:       log.With("handler", "student"),
	}
}

type attemptRequest struct {
	ExerciseID int64          `json:"exerciseId" binding:"required"`
	Attempt    models.Attempt `json:"attempt" binding:"required"`
}

// SubmitAttempt records one exercise attempt.
// POST /students/:id/attempts
func (h *StudentHandler) SubmitAttempt(c *gin.Context) {
	studentID := c.GetInt64(studentIDKey)

	var req attemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "corps de requete invalide")
		return
	}
	if req.Attempt.DurationSeconds < 1 || req.Attempt.DurationSeconds > 3600 {
		RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "tempsSecondes doit etre entre 1 et 3600")
		return
	}
	if req.Attempt.HintsUsed < 0 {
		RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "aidesUtilisees doit etre positif")
		return
	}

	result, err := h.processor.Submit(c.Request.Context(), studentID, req.ExerciseID, req.Attempt)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, result)
}

// GetRecommendations returns ranked next exercises.
// GET /students/:id/recommendations?limit&niveau&matiere
func (h *StudentHandler) GetRecommendations(c *gin.Context) {
	studentID := c.GetInt64(studentIDKey)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 50 {
			RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "limit invalide")
			return
		}
		limit = v
	}

	result, err := h.engine.Get(c.Request.Context(), studentID, recommendation.Query{
		Limit:   limit,
		Niveau:  c.Query("niveau"),
		Matiere: c.Query("matiere"),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, result)
}

// GetProgress returns the student's progress rows with exercise metadata.
// GET /students/:id/progress?matiere&limit
func (h *StudentHandler) GetProgress(c *gin.Context) {
	studentID := c.GetInt64(studentIDKey)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 200 {
			RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "limit invalide")
			return
		}
		limit = v
	}

	rows, err := h.progress.ListByStudent(c.Request.Context(), studentID, c.Query("matiere"), limit)
	if err != nil {
		RespondError(c, models.NewAppError(models.CodePersistenceError, "echec de lecture de la progression", err))
		return
	}
	RespondOK(c, rows)
}

// GetDueRevisions returns the exercises due for review.
// GET /students/:id/revisions/due?date=2006-01-02
func (h *StudentHandler) GetDueRevisions(c *gin.Context) {
	studentID := c.GetInt64(studentIDKey)

	asOf := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			RespondCode(c, http.StatusBadRequest, models.CodeInvalidInput, "date invalide, format attendu 2006-01-02")
			return
		}
		asOf = parsed
	}

	schedules, err := h.scheduler.DueItems(c.Request.Context(), studentID, asOf)
	if err != nil {
		RespondError(c, models.NewAppError(models.CodePersistenceError, "echec de lecture des revisions", err))
		return
	}
	RespondOK(c, schedules)
}

// GetStats returns aggregate progress numbers.
// GET /students/:id/stats
func (h *StudentHandler) GetStats(c *gin.Context) {
	studentID := c.GetInt64(studentIDKey)

	stats, err := h.progress.Stats(c.Request.Context(), studentID)
	if err != nil {
		RespondError(c, models.NewAppError(models.CodePersistenceError, "echec de calcul des statistiques", err))
		return
	}
	RespondOK(c, stats)
}
