package models

import "encoding/json"

// Attempt is one submitted answer to one exercise by one student
type Attempt struct {
	Answer          json.RawMessage `json:"reponse"`
	Succeeded       bool            `json:"reussi"`
	DurationSeconds int             `json:"tempsSecondes"`
	HintsUsed       int             `json:"aidesUtilisees"`
}

// AttemptResult is what the caller gets back after an attempt is recorded
type AttemptResult struct {
	Succeeded     bool   `json:"reussi"`
	PointsAwarded int    `json:"pointsGagnes"`
	TotalPoints   int    `json:"totalPoints"`
	NewStatus     string `json:"nouveauStatut"`
}
