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

// ExerciseRepository handles database operations for exercises
type ExerciseRepository struct {
	db *sqlx.DB
}

// NewExerciseRepository creates a new repository instance
func NewExerciseRepository(db *sqlx.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// GetActiveByID returns an active exercise by ID. Inactive exercises are
// treated the same as missing ones.
func (r *ExerciseRepository) GetActiveByID(ctx context.Context, id int64) (*models.Exercise, error) {
	var exercise models.Exercise
	err := r.db.GetContext(ctx, &exercise,
		"SELECT * FROM exercises WHERE id = $1 AND active = TRUE", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return &exercise, nil
}

// GetByTitleAndNiveau returns an exercise by its natural key, or nil when absent
func (r *ExerciseRepository) GetByTitleAndNiveau(ctx context.Context, title, niveau string) (*models.Exercise, error) {
	var exercise models.Exercise
	err := r.db.GetContext(ctx, &exercise,
		"SELECT * FROM exercises WHERE title = $1 AND niveau = $2", title, niveau)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise by title: %w", err)
	}
	return &exercise, nil
}

// Create inserts a new exercise
func (r *ExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	now := time.Now()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	query := `
		INSERT INTO exercises (title, matiere, niveau, difficulty, ordre, points_on_success, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		exercise.Title, exercise.Matiere, exercise.Niveau, exercise.Difficulty,
		exercise.Ordre, exercise.PointsOnSuccess, exercise.Active, now, now,
	).Scan(&exercise.ID)
	if err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	return nil
}

// Update modifies an existing exercise
func (r *ExerciseRepository) Update(ctx context.Context, exercise *models.Exercise) error {
	query := `
		UPDATE exercises
		SET title = $1, matiere = $2, niveau = $3, difficulty = $4, ordre = $5,
		    points_on_success = $6, active = $7, updated_at = $8
		WHERE id = $9
	`
	_, err := r.db.ExecContext(ctx, query,
		exercise.Title, exercise.Matiere, exercise.Niveau, exercise.Difficulty,
		exercise.Ordre, exercise.PointsOnSuccess, exercise.Active, time.Now(), exercise.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update exercise: %w", err)
	}
	return nil
}

// FindCandidates returns active exercises for a grade level (and optionally a
// subject), excluding the given ids, ordered by curriculum position.
func (r *ExerciseRepository) FindCandidates(ctx context.Context, niveau, matiere string, excluded []int64, limit int) ([]models.Exercise, error) {
	query := "SELECT * FROM exercises WHERE active = TRUE AND niveau = ?"
	args := []interface{}{niveau}

	if matiere != "" {
		query += " AND matiere = ?"
		args = append(args, matiere)
	}
	if len(excluded) > 0 {
		query += " AND id NOT IN (?)"
		args = append(args, excluded)
	}
	query += " ORDER BY ordre ASC LIMIT ?"
	args = append(args, limit)

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build candidate query: %w", err)
	}
	query = r.db.Rebind(query)

	var exercises []models.Exercise
	if err := r.db.SelectContext(ctx, &exercises, query, expanded...); err != nil {
		return nil, fmt.Errorf("failed to find candidate exercises: %w", err)
	}
	return exercises, nil
}
