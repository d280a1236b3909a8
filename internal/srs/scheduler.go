// Package srs implements the SM-2-derived spaced-repetition scheduler.
package srs

import (
	"context"
	"math"
	"time"

	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/pkg/models"
)

// Scheduler parameters
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 3.0
	EaseReward        = 0.1 // Added to the ease factor on success
	EasePenalty       = 0.2 // Subtracted from the ease factor on failure
	BaseIntervalDays  = 1
)

// Scheduler computes and persists revision schedules
type Scheduler struct {
	revisions       *database.RevisionRepository
	log             *logger.Logger
	maxIntervalDays int
	now             func() time.Time
}

// New creates a scheduler. maxIntervalDays caps interval growth so reviews
// never run away into the far future.
func New(revisions *database.RevisionRepository, log *logger.Logger, maxIntervalDays int) *Scheduler {
	return &Scheduler{
		revisions:       revisions,
		log:             log.With("component", "srs"),
		maxIntervalDays: maxIntervalDays,
		now:             time.Now,
	}
}

// NextState computes the follow-up interval, ease factor and review count for
// one outcome. Pure function so the growth/reset invariants are testable in
// isolation.
func NextState(intervalDays int, easeFactor float64, reviewCount int, succeeded bool, maxIntervalDays int) (int, float64, int) {
	if succeeded {
		reviewCount++
		easeFactor = clampEase(easeFactor + EaseReward)

		// The first success always schedules at +1 day so a lucky initial
		// answer can't open a long gap
		if reviewCount <= 1 {
			return BaseIntervalDays, easeFactor, reviewCount
		}
		next := int(math.Round(float64(intervalDays) * easeFactor))
		if next < BaseIntervalDays {
			next = BaseIntervalDays
		}
		if next > maxIntervalDays {
			next = maxIntervalDays
		}
		return next, easeFactor, reviewCount
	}

	// A failure restarts the mastery curve for the item
	return BaseIntervalDays, clampEase(easeFactor - EasePenalty), 0
}

func clampEase(ef float64) float64 {
	if ef < MinEaseFactor {
		return MinEaseFactor
	}
	if ef > MaxEaseFactor {
		return MaxEaseFactor
	}
	return ef
}

// RecordOutcome updates the revision schedule for one attempt outcome. The
// schedule is created on the first successful attempt; a failure before any
// success is a no-op that returns nil, since there is nothing to reset yet.
func (s *Scheduler) RecordOutcome(ctx context.Context, studentID, exerciseID int64, succeeded bool) (*models.RevisionSchedule, error) {
	schedule, err := s.revisions.Get(ctx, studentID, exerciseID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		if !succeeded {
			return nil, nil
		}
		schedule = &models.RevisionSchedule{
			StudentID:    studentID,
			ExerciseID:   exerciseID,
			IntervalDays: BaseIntervalDays,
			EaseFactor:   DefaultEaseFactor,
			ReviewCount:  0,
		}
	}

	schedule.IntervalDays, schedule.EaseFactor, schedule.ReviewCount = NextState(
		schedule.IntervalDays, schedule.EaseFactor, schedule.ReviewCount,
		succeeded, s.maxIntervalDays,
	)
	schedule.LastOutcome = succeeded
	schedule.NextReviewDate = startOfDay(s.now()).AddDate(0, 0, schedule.IntervalDays)

	if err := s.revisions.Upsert(ctx, schedule); err != nil {
		return nil, err
	}
	s.log.Debug("revision schedule updated",
		"student_id", studentID,
		"exercise_id", exerciseID,
		"interval_days", schedule.IntervalDays,
		"ease_factor", schedule.EaseFactor,
	)
	return schedule, nil
}

// DueItems returns the student's schedules due at asOf, most overdue first
func (s *Scheduler) DueItems(ctx context.Context, studentID int64, asOf time.Time) ([]models.RevisionSchedule, error) {
	return s.revisions.DueForStudent(ctx, studentID, asOf)
}

// Review dates carry whole-day granularity, not wall-clock hours
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
