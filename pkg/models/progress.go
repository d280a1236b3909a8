package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Progress status values, stored as-is in the database
const (
	StatusNotStarted = "NON_COMMENCE"
	StatusInProgress = "EN_COURS"
	StatusCompleted  = "TERMINE"
	StatusMastered   = "MAITRISE"
)

// AttemptSnapshot is one entry of a progress record's append-only history
type AttemptSnapshot struct {
	Date            time.Time       `json:"date"`
	Succeeded       bool            `json:"reussi"`
	DurationSeconds int             `json:"duree_secondes"`
	HintsUsed       int             `json:"aides_utilisees"`
	PointsAwarded   int             `json:"points_gagnes"`
	AnswerGiven     json.RawMessage `json:"reponse,omitempty"`
}

// AttemptHistory is stored as a JSON array column
type AttemptHistory []AttemptSnapshot

// Value implements driver.Valuer
func (h AttemptHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (h *AttemptHistory) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*h = AttemptHistory{}
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("cannot scan %T into AttemptHistory", src)
	}
}

// Progress tracks a student's aggregate progress on a specific exercise
type Progress struct {
	ID             int64          `json:"id" db:"id"`
	StudentID      int64          `json:"student_id" db:"student_id"`
	ExerciseID     int64          `json:"exercise_id" db:"exercise_id"`
	Status         string         `json:"statut" db:"status"`
	AttemptCount   int            `json:"nombre_tentatives" db:"attempt_count"`
	SuccessCount   int            `json:"nombre_reussites" db:"success_count"`
	SuccessRate    float64        `json:"taux_reussite" db:"success_rate"` // success_count/attempt_count, 2-decimal
	PointsEarned   int            `json:"points_gagnes" db:"points_earned"`
	LastAttemptAt  *time.Time     `json:"derniere_tentative" db:"last_attempt_at"`
	FirstSuccessAt *time.Time     `json:"premiere_reussite" db:"first_success_at"` // Set once, never cleared
	History        AttemptHistory `json:"historique" db:"history"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// ProgressWithExercise joins a progress row with its exercise metadata
type ProgressWithExercise struct {
	Progress
	Title      string `json:"titre" db:"title"`
	Matiere    string `json:"matiere" db:"matiere"`
	Niveau     string `json:"niveau" db:"niveau"`
	Difficulty string `json:"difficulte" db:"difficulty"`
	Ordre      int    `json:"ordre" db:"ordre"`
}
