package models

import "time"

// Student represents a pupil account on the platform
type Student struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	PinHash      string    `json:"-" db:"pin_hash"`
	NiveauActuel string    `json:"niveau_actuel" db:"niveau_actuel"` // Grade level: CP, CE1, CE2, CM1, CM2
	TotalPoints  int       `json:"total_points" db:"total_points"`
	CurrentLevel int       `json:"current_level" db:"current_level"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
