package models

import "time"

// RevisionSchedule holds the spaced-repetition state for a (student, exercise) pair.
// One active schedule exists per pair that has had at least one successful attempt.
type RevisionSchedule struct {
	ID             int64     `json:"id" db:"id"`
	StudentID      int64     `json:"student_id" db:"student_id"`
	ExerciseID     int64     `json:"exercise_id" db:"exercise_id"`
	NextReviewDate time.Time `json:"prochaine_revision" db:"next_review_date"` // Whole-day granularity
	IntervalDays   int       `json:"intervalle_jours" db:"interval_days"`
	EaseFactor     float64   `json:"facteur_facilite" db:"ease_factor"`
	ReviewCount    int       `json:"nombre_revisions" db:"review_count"`
	LastOutcome    bool      `json:"dernier_resultat" db:"last_outcome"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
