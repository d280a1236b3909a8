package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/reved/pkg/models"
)

// RevisionRepository handles database operations for revision schedules
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository creates a new repository instance
func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Get returns the schedule for a student and exercise, or nil when none exists
func (r *RevisionRepository) Get(ctx context.Context, studentID, exerciseID int64) (*models.RevisionSchedule, error) {
	var schedule models.RevisionSchedule
	err := r.db.GetContext(ctx, &schedule,
		"SELECT * FROM revision_schedules WHERE student_id = $1 AND exercise_id = $2",
		studentID, exerciseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revision schedule: %w", err)
	}
	return &schedule, nil
}

// Upsert creates or updates a revision schedule
func (r *RevisionRepository) Upsert(ctx context.Context, schedule *models.RevisionSchedule) error {
	now := time.Now()
	query := `
		INSERT INTO revision_schedules (
			student_id, exercise_id, next_review_date, interval_days,
			ease_factor, review_count, last_outcome, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, exercise_id) DO UPDATE SET
			next_review_date = excluded.next_review_date,
			interval_days = excluded.interval_days,
			ease_factor = excluded.ease_factor,
			review_count = excluded.review_count,
			last_outcome = excluded.last_outcome,
			updated_at = excluded.updated_at
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		schedule.StudentID, schedule.ExerciseID, schedule.NextReviewDate,
		schedule.IntervalDays, schedule.EaseFactor, schedule.ReviewCount,
		schedule.LastOutcome, now, now,
	).Scan(&schedule.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert revision schedule: %w", err)
	}
	return nil
}

// DueForStudent returns every schedule due at asOf, most overdue first, then
// weakest items (lowest ease factor) first
func (r *RevisionRepository) DueForStudent(ctx context.Context, studentID int64, asOf time.Time) ([]models.RevisionSchedule, error) {
	var schedules []models.RevisionSchedule
	query := `
		SELECT * FROM revision_schedules
		WHERE student_id = $1 AND next_review_date <= $2
		ORDER BY next_review_date ASC, ease_factor ASC
	`
	if err := r.db.SelectContext(ctx, &schedules, query, studentID, asOf); err != nil {
		return nil, fmt.Errorf("failed to get due revisions: %w", err)
	}
	return schedules, nil
}
