// Package recommendation ranks candidate exercises for a student, weighting
// foundational tiers, weak subjects and early curriculum positions, with a
// random jitter for variety.
package recommendation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/example/reved/internal/cache"
	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/pkg/models"
)

// Scoring weights
const (
	weightDiscovery     = 3.0
	weightConsolidation = 2.0
	weightMastery       = 1.0
	weakSubjectBonus    = 2.0
	weakSubjectCutoff   = 0.70
	orderBonusCeiling   = 10
)

// Query narrows a recommendation request
type Query struct {
	Limit   int
	Niveau  string // Defaults to the student's grade level
	Matiere string // Empty means all subjects
}

// Engine produces ranked exercise recommendations
type Engine struct {
	students     *database.StudentRepository
	exercises    *database.ExerciseRepository
	progress     *database.ProgressRepository
	cache        cache.Cache
	ttl          time.Duration
	defaultLimit int
	log          *logger.Logger
	jitter       func() float64
}

// NewEngine creates an engine. ttl bounds how long a cached result may be
// served after the underlying progress changes; defaultLimit applies when a
// query does not set one.
func NewEngine(
	students *database.StudentRepository,
	exercises *database.ExerciseRepository,
	progress *database.ProgressRepository,
	c cache.Cache,
	ttl time.Duration,
	defaultLimit int,
	log *logger.Logger,
) *Engine {
	return &Engine{
		students:     students,
		exercises:    exercises,
		progress:     progress,
		cache:        c,
		ttl:          ttl,
		defaultLimit: defaultLimit,
		log:          log.With("component", "recommendation"),
		jitter:       func() float64 { return rand.Float64() * 2 },
	}
}

// KeyPrefix is the cache key prefix for one student. Deleting it drops every
// cached filter permutation for that student.
func KeyPrefix(studentID int64) string {
	return fmt.Sprintf("rec:%d:", studentID)
}

func cacheKey(studentID int64, q Query) string {
	return fmt.Sprintf("%slimit=%d:niveau=%s:matiere=%s", KeyPrefix(studentID), q.Limit, q.Niveau, q.Matiere)
}

// Get returns up to q.Limit recommended exercises for the student, never
// including mastered ones. An empty result is a valid answer, not an error.
func (e *Engine) Get(ctx context.Context, studentID int64, q Query) ([]models.ExerciseSummary, error) {
	if q.Limit <= 0 {
		q.Limit = e.defaultLimit
	}

	student, err := e.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewAppError(models.CodeStudentNotFound, "eleve introuvable", err)
		}
		return nil, models.NewAppError(models.CodeRecommendationError, "echec de lecture de l'eleve", err)
	}
	if q.Niveau == "" {
		q.Niveau = student.NiveauActuel
	}

	key := cacheKey(studentID, q)
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		var result []models.ExerciseSummary
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result, nil
		}
	} else if err != nil {
		e.log.Warn("recommendation cache read failed", "student_id", studentID, "error", err)
	}

	mastered, err := e.progress.MasteredExerciseIDs(ctx, studentID)
	if err != nil {
		return nil, models.NewAppError(models.CodeRecommendationError, "echec de lecture des exercices maitrises", err)
	}

	// limit*2 candidates give the scoring pass headroom over raw curriculum order
	candidates, err := e.exercises.FindCandidates(ctx, q.Niveau, q.Matiere, mastered, q.Limit*2)
	if err != nil {
		return nil, models.NewAppError(models.CodeRecommendationError, "echec de recherche des exercices candidats", err)
	}

	subjectRates, err := e.progress.SubjectSuccessRates(ctx, studentID)
	if err != nil {
		return nil, models.NewAppError(models.CodeRecommendationError, "echec de calcul des taux de reussite", err)
	}

	type scored struct {
		exercise models.Exercise
		score    float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, scored{exercise: candidate, score: e.score(candidate, subjectRates)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	result := make([]models.ExerciseSummary, 0, len(ranked))
	for _, s := range ranked {
		result = append(result, models.ExerciseSummary{
			ID:         s.exercise.ID,
			Title:      s.exercise.Title,
			Matiere:    s.exercise.Matiere,
			Niveau:     s.exercise.Niveau,
			Difficulty: s.exercise.Difficulty,
			Ordre:      s.exercise.Ordre,
			Points:     s.exercise.PointsOnSuccess,
		})
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := e.cache.Set(ctx, key, string(payload), e.ttl); err != nil {
			e.log.Warn("recommendation cache write failed", "student_id", studentID, "error", err)
		}
	}
	return result, nil
}

// score weights one candidate: foundational tiers first, weak subjects
// reinforced, earlier curriculum items preferred, plus jitter for variety
func (e *Engine) score(exercise models.Exercise, subjectRates map[string]float64) float64 {
	score := 0.0
	switch exercise.Difficulty {
	case models.TierDiscovery:
		score += weightDiscovery
	case models.TierConsolidation:
		score += weightConsolidation
	case models.TierMastery:
		score += weightMastery
	}
	if rate, attempted := subjectRates[exercise.Matiere]; attempted && rate < weakSubjectCutoff {
		score += weakSubjectBonus
	}
	if bonus := orderBonusCeiling - exercise.Ordre; bonus > 0 {
		score += float64(bonus)
	}
	return score + e.jitter()
}
