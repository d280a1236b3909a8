package models

import "time"

// Difficulty tiers defined by the curriculum, distinct from progress status
const (
	TierDiscovery     = "decouverte"
	TierConsolidation = "consolidation"
	TierMastery       = "maitrise"
)

// Exercise represents one exercise from the curriculum catalog
type Exercise struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"titre" db:"title"`
	Matiere         string    `json:"matiere" db:"matiere"` // Subject code, e.g. MA, FR
	Niveau          string    `json:"niveau" db:"niveau"`   // Grade level the exercise targets
	Difficulty      string    `json:"difficulte" db:"difficulty"`
	Ordre           int       `json:"ordre" db:"ordre"` // Position in the curriculum sequence
	PointsOnSuccess int       `json:"points" db:"points_on_success"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ExerciseSummary is the trimmed exercise view returned to clients
type ExerciseSummary struct {
	ID         int64  `json:"id" db:"id"`
	Title      string `json:"titre" db:"title"`
	Matiere    string `json:"matiere" db:"matiere"`
	Niveau     string `json:"niveau" db:"niveau"`
	Difficulty string `json:"difficulte" db:"difficulty"`
	Ordre      int    `json:"ordre" db:"ordre"`
	Points     int    `json:"points" db:"points_on_success"`
}
