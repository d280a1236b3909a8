package models

// StudentStats summarizes a student's overall progress
type StudentStats struct {
	TotalAttempted int     `json:"exercices_commences"`
	Mastered       int     `json:"exercices_maitrises"`
	DueToday       int     `json:"revisions_du_jour"`
	AvgEaseFactor  float64 `json:"facteur_facilite_moyen"`
}
