package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/reved/pkg/models"
)

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetByID returns a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	err := r.db.GetContext(ctx, &student, "SELECT * FROM students WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

// Create inserts a new student
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now
	query := `
		INSERT INTO students (name, pin_hash, niveau_actuel, total_points, current_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		student.Name, student.PinHash, student.NiveauActuel,
		student.TotalPoints, student.CurrentLevel, now, now,
	).Scan(&student.ID)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// AddPoints atomically adds points to a student's total and returns the new total.
// Accepts a transaction or the plain connection.
func (r *StudentRepository) AddPoints(ctx context.Context, q sqlx.ExtContext, id int64, delta int) (int, error) {
	var total int
	query := `
		UPDATE students
		SET total_points = total_points + $1, updated_at = $2
		WHERE id = $3
		RETURNING total_points
	`
	err := sqlx.GetContext(ctx, q, &total, query, delta, time.Now(), id)
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return total, nil
}
