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

// ProgressRepository handles database operations for progress records
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get returns progress for a specific student and exercise, or nil when the
// pair has never been attempted
func (r *ProgressRepository) Get(ctx context.Context, studentID, exerciseID int64) (*models.Progress, error) {
	var progress models.Progress
	err := r.db.GetContext(ctx, &progress,
		"SELECT * FROM progress WHERE student_id = $1 AND exercise_id = $2", studentID, exerciseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &progress, nil
}

// GetForUpdate is Get with a row lock on postgres, for use inside a
// transaction. SQLite serializes writers on its own.
func (r *ProgressRepository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, exerciseID int64) (*models.Progress, error) {
	query := "SELECT * FROM progress WHERE student_id = $1 AND exercise_id = $2"
	if q.DriverName() == "postgres" {
		query += " FOR UPDATE"
	}
	var progress models.Progress
	err := sqlx.GetContext(ctx, q, &progress, query, studentID, exerciseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for update: %w", err)
	}
	return &progress, nil
}

// Upsert creates or updates a progress record. first_success_at is guarded in
// SQL so a set value is never overwritten.
func (r *ProgressRepository) Upsert(ctx context.Context, q sqlx.ExtContext, progress *models.Progress) error {
	now := time.Now()
	query := `
		INSERT INTO progress (
			student_id, exercise_id, status, attempt_count, success_count, success_rate,
			points_earned, last_attempt_at, first_success_at, history, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (student_id, exercise_id) DO UPDATE SET
			status = excluded.status,
			attempt_count = excluded.attempt_count,
			success_count = excluded.success_count,
			success_rate = excluded.success_rate,
			points_earned = excluded.points_earned,
			last_attempt_at = excluded.last_attempt_at,
			first_success_at = COALESCE(progress.first_success_at, excluded.first_success_at),
			history = excluded.history,
			updated_at = excluded.updated_at
		RETURNING id
	`
	err := sqlx.GetContext(ctx, q, &progress.ID, query,
		progress.StudentID, progress.ExerciseID, progress.Status,
		progress.AttemptCount, progress.SuccessCount, progress.SuccessRate,
		progress.PointsEarned, progress.LastAttemptAt, progress.FirstSuccessAt,
		progress.History, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// MasteredExerciseIDs returns the ids of all exercises the student has mastered
func (r *ProgressRepository) MasteredExerciseIDs(ctx context.Context, studentID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		"SELECT exercise_id FROM progress WHERE student_id = $1 AND status = $2",
		studentID, models.StatusMastered)
	if err != nil {
		return nil, fmt.Errorf("failed to get mastered exercises: %w", err)
	}
	return ids, nil
}

// SubjectSuccessRates returns the student's aggregate success rate per subject,
// across every attempted exercise of that subject
func (r *ProgressRepository) SubjectSuccessRates(ctx context.Context, studentID int64) (map[string]float64, error) {
	rows := []struct {
		Matiere string  `db:"matiere"`
		Rate    float64 `db:"rate"`
	}{}
	query := `
		SELECT e.matiere AS matiere,
		       CAST(SUM(p.success_count) AS REAL) / SUM(p.attempt_count) AS rate
		FROM progress p
		JOIN exercises e ON e.id = p.exercise_id
		WHERE p.student_id = $1 AND p.attempt_count > 0
		GROUP BY e.matiere
	`
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("failed to get subject success rates: %w", err)
	}
	rates := make(map[string]float64, len(rows))
	for _, row := range rows {
		rates[row.Matiere] = row.Rate
	}
	return rates, nil
}

// ListByStudent returns a student's progress rows joined with exercise
// metadata, most recently attempted first
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID int64, matiere string, limit int) ([]models.ProgressWithExercise, error) {
	query := `
		SELECT p.*, e.title, e.matiere, e.niveau, e.difficulty, e.ordre
		FROM progress p
		JOIN exercises e ON e.id = p.exercise_id
		WHERE p.student_id = $1
	`
	args := []interface{}{studentID}
	if matiere != "" {
		query += " AND e.matiere = $2"
		args = append(args, matiere)
	}
	query += fmt.Sprintf(" ORDER BY p.last_attempt_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var rows []models.ProgressWithExercise
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return rows, nil
}

// Stats returns aggregate progress numbers for a student
func (r *ProgressRepository) Stats(ctx context.Context, studentID int64) (*models.StudentStats, error) {
	stats := &models.StudentStats{}

	err := r.db.GetContext(ctx, &stats.TotalAttempted,
		"SELECT COUNT(*) FROM progress WHERE student_id = $1", studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count progress: %w", err)
	}

	err = r.db.GetContext(ctx, &stats.Mastered,
		"SELECT COUNT(*) FROM progress WHERE student_id = $1 AND status = $2",
		studentID, models.StatusMastered)
	if err != nil {
		return nil, fmt.Errorf("failed to count mastered: %w", err)
	}

	err = r.db.GetContext(ctx, &stats.DueToday,
		"SELECT COUNT(*) FROM revision_schedules WHERE student_id = $1 AND next_review_date <= $2",
		studentID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to count due revisions: %w", err)
	}

	err = r.db.GetContext(ctx, &stats.AvgEaseFactor,
		"SELECT COALESCE(AVG(ease_factor), 2.5) FROM revision_schedules WHERE student_id = $1",
		studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get average ease factor: %w", err)
	}

	return stats, nil
}
