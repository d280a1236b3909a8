// Package attempt records exercise attempt submissions: progress counters,
// status transitions, point awards, and the follow-up scheduling and cache
// invalidation they trigger.
package attempt

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/reved/internal/cache"
	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/internal/recommendation"
	"github.com/example/reved/internal/srs"
	"github.com/example/reved/pkg/models"
)

// MasteryMinSuccesses and MasteryMinRate gate the transition from
// EN_COURS/TERMINE to MAITRISE
const (
	MasteryMinSuccesses = 3
	MasteryMinRate      = 0.80
)

// Processor handles attempt submissions
type Processor struct {
	db        *sqlx.DB
	exercises *database.ExerciseRepository
	students  *database.StudentRepository
	progress  *database.ProgressRepository
	scheduler *srs.Scheduler
	cache     cache.Cache
	log       *logger.Logger
	now       func() time.Time
}

// NewProcessor creates a processor with its collaborators injected
func NewProcessor(
	db *sqlx.DB,
	exercises *database.ExerciseRepository,
	students *database.StudentRepository,
	progress *database.ProgressRepository,
	scheduler *srs.Scheduler,
	c cache.Cache,
	log *logger.Logger,
) *Processor {
	return &Processor{
		db:        db,
		exercises: exercises,
		students:  students,
		progress:  progress,
		scheduler: scheduler,
		cache:     c,
		log:       log.With("component", "attempt"),
		now:       time.Now,
	}
}

// Submit records one attempt. The progress and points writes commit in a
// single transaction; the revision schedule update and cache invalidation are
// best-effort afterwards, so a recorded attempt is never rolled back by a
// failure in derived state.
func (p *Processor) Submit(ctx context.Context, studentID, exerciseID int64, attempt models.Attempt) (*models.AttemptResult, error) {
	exercise, err := p.exercises.GetActiveByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewAppError(models.CodeExerciseNotFound, "exercice introuvable ou inactif", err)
		}
		return nil, models.NewAppError(models.CodePersistenceError, "echec de lecture de l'exercice", err)
	}

	pointsAwarded := 0
	if attempt.Succeeded {
		pointsAwarded = exercise.PointsOnSuccess
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, models.NewAppError(models.CodePersistenceError, "echec d'ouverture de transaction", err)
	}
	defer tx.Rollback()

	progress, err := p.progress.GetForUpdate(ctx, tx, studentID, exerciseID)
	if err != nil {
		return nil, models.NewAppError(models.CodePersistenceError, "echec de lecture de la progression", err)
	}
	if progress == nil {
		progress = &models.Progress{
			StudentID:  studentID,
			ExerciseID: exerciseID,
			Status:     models.StatusNotStarted,
			History:    models.AttemptHistory{},
		}
	}

	now := p.now()
	progress.History = append(progress.History, models.AttemptSnapshot{
		Date:            now,
		Succeeded:       attempt.Succeeded,
		DurationSeconds: attempt.DurationSeconds,
		HintsUsed:       attempt.HintsUsed,
		PointsAwarded:   pointsAwarded,
		AnswerGiven:     attempt.Answer,
	})
	progress.AttemptCount++
	if attempt.Succeeded {
		progress.SuccessCount++
	}
	progress.SuccessRate = roundRate(float64(progress.SuccessCount) / float64(progress.AttemptCount))
	progress.PointsEarned += pointsAwarded
	progress.LastAttemptAt = &now
	progress.Status = nextStatus(attempt.Succeeded, progress.SuccessCount, progress.SuccessRate)
	if attempt.Succeeded && progress.FirstSuccessAt == nil {
		firstSuccess := now
		progress.FirstSuccessAt = &firstSuccess
	}

	totalPoints, err := p.students.AddPoints(ctx, tx, studentID, pointsAwarded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewAppError(models.CodeStudentNotFound, "eleve introuvable", err)
		}
		return nil, models.NewAppError(models.CodePersistenceError, "echec de mise a jour des points", err)
	}

	if err := p.progress.Upsert(ctx, tx, progress); err != nil {
		return nil, models.NewAppError(models.CodePersistenceError, "echec d'enregistrement de la progression", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, models.NewAppError(models.CodePersistenceError, "echec de validation de la transaction", err)
	}

	// The attempt is committed: everything below is derived state and must
	// never surface as a submission failure. Every outcome reaches the
	// scheduler, so a failure resets an existing schedule.
	if _, err := p.scheduler.RecordOutcome(ctx, studentID, exerciseID, attempt.Succeeded); err != nil {
		p.log.Error("failed to update revision schedule",
			"student_id", studentID, "exercise_id", exerciseID, "error", err)
	}
	if err := p.cache.DeletePrefix(ctx, recommendation.KeyPrefix(studentID)); err != nil {
		p.log.Warn("failed to invalidate recommendation cache",
			"student_id", studentID, "error", err)
	}

	return &models.AttemptResult{
		Succeeded:     attempt.Succeeded,
		PointsAwarded: pointsAwarded,
		TotalPoints:   totalPoints,
		NewStatus:     progress.Status,
	}, nil
}

// nextStatus applies the transition rules in order, first match wins
func nextStatus(succeeded bool, successCount int, successRate float64) string {
	switch {
	case succeeded && successCount >= MasteryMinSuccesses && successRate >= MasteryMinRate:
		return models.StatusMastered
	case succeeded:
		return models.StatusCompleted
	default:
		return models.StatusInProgress
	}
}

func roundRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}
