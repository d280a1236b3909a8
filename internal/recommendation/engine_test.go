package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/reved/internal/cache"
	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/pkg/models"
)

func setupEngine(t *testing.T) (*Engine, *sqlx.DB, *cache.Memory) {
	t.Helper()
	db, err := database.ConnectInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`INSERT INTO students (id, name, pin_hash, niveau_actuel) VALUES (1, 'Alice', '', 'CP')`)
	require.NoError(t, err)

	memCache := cache.NewMemory()
	engine := NewEngine(
		database.NewStudentRepository(db),
		database.NewExerciseRepository(db),
		database.NewProgressRepository(db),
		memCache,
		15*time.Minute,
		5,
		logger.Nop(),
	)
	// Deterministic ranking in tests
	engine.jitter = func() float64 { return 0 }
	return engine, db, memCache
}

func seedExercise(t *testing.T, db *sqlx.DB, id int64, title, matiere, niveau, difficulty string, ordre int, active bool) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO exercises (id, title, matiere, niveau, difficulty, ordre, points_on_success, active)
		VALUES ($1, $2, $3, $4, $5, $6, 10, $7)`,
		id, title, matiere, niveau, difficulty, ordre, active)
	require.NoError(t, err)
}

func seedProgress(t *testing.T, db *sqlx.DB, studentID, exerciseID int64, status string, attempts, successes int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO progress (student_id, exercise_id, status, attempt_count, success_count, success_rate, history)
		VALUES ($1, $2, $3, $4, $5, $6, '[]')`,
		studentID, exerciseID, status, attempts, successes, float64(successes)/float64(attempts))
	require.NoError(t, err)
}

func TestGet_ExcludesMasteredExercises(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	seedExercise(t, db, 10, "Additions", "MA", "CP", models.TierDiscovery, 1, true)
	seedExercise(t, db, 11, "Soustractions", "MA", "CP", models.TierDiscovery, 2, true)
	seedProgress(t, db, 1, 10, models.StatusMastered, 3, 3)

	result, err := engine.Get(ctx, 1, Query{Limit: 5})
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, int64(11), result[0].ID)
}

func TestGet_AllMasteredReturnsEmptyNotError(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	seedExercise(t, db, 10, "Additions", "MA", "CP", models.TierDiscovery, 1, true)
	seedProgress(t, db, 1, 10, models.StatusMastered, 3, 3)

	result, err := engine.Get(ctx, 1, Query{Limit: 5, Matiere: "MA"})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGet_UnknownStudent(t *testing.T) {
	engine, _, _ := setupEngine(t)

	_, err := engine.Get(context.Background(), 42, Query{Limit: 5})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeStudentNotFound, appErr.Code)
}

func TestGet_DiscoveryTierRanksAboveMastery(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	// Same ordre so only the tier weight separates them
	seedExercise(t, db, 10, "Revision avancee", "MA", "CP", models.TierMastery, 5, true)
	seedExercise(t, db, 11, "Premiers pas", "MA", "CP", models.TierDiscovery, 5, true)

	result, err := engine.Get(ctx, 1, Query{Limit: 2})
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, int64(11), result[0].ID)
	assert.Equal(t, int64(10), result[1].ID)
}

func TestGet_WeakSubjectIsBoosted(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	// Identical tier and ordre; the student struggles in MA (40%) and does
	// well in FR (90%)
	seedExercise(t, db, 10, "Lecture", "FR", "CP", models.TierDiscovery, 5, true)
	seedExercise(t, db, 11, "Calcul", "MA", "CP", models.TierDiscovery, 5, true)
	seedExercise(t, db, 20, "Lecture faite", "FR", "CP", models.TierDiscovery, 6, true)
	seedExercise(t, db, 21, "Calcul fait", "MA", "CP", models.TierDiscovery, 6, true)
	seedProgress(t, db, 1, 20, models.StatusCompleted, 10, 9)
	seedProgress(t, db, 1, 21, models.StatusInProgress, 10, 4)

	result, err := engine.Get(ctx, 1, Query{Limit: 4})
	require.NoError(t, err)
	require.NotEmpty(t, result)

	// The first MA candidate must come before the first FR candidate of the
	// same ordre
	positions := map[int64]int{}
	for i, summary := range result {
		positions[summary.ID] = i
	}
	assert.Less(t, positions[11], positions[10])
}

func TestGet_RespectsLimit(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	for i := int64(1); i <= 8; i++ {
		seedExercise(t, db, i, "Exercice "+string(rune('A'+i-1)), "MA", "CP", models.TierDiscovery, int(i), true)
	}

	result, err := engine.Get(ctx, 1, Query{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestGet_ServesFromCacheUntilInvalidated(t *testing.T) {
	engine, db, memCache := setupEngine(t)
	ctx := context.Background()

	seedExercise(t, db, 10, "Additions", "MA", "CP", models.TierDiscovery, 1, true)

	first, err := engine.Get(ctx, 1, Query{Limit: 5})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// New data is invisible while the cached entry lives
	seedExercise(t, db, 11, "Soustractions", "MA", "CP", models.TierDiscovery, 2, true)
	cached, err := engine.Get(ctx, 1, Query{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	require.NoError(t, memCache.DeletePrefix(ctx, KeyPrefix(1)))
	fresh, err := engine.Get(ctx, 1, Query{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestGet_FiltersBySubjectAndLevel(t *testing.T) {
	engine, db, _ := setupEngine(t)
	ctx := context.Background()

	seedExercise(t, db, 10, "Additions", "MA", "CP", models.TierDiscovery, 1, true)
	seedExercise(t, db, 11, "Lecture", "FR", "CP", models.TierDiscovery, 1, true)
	seedExercise(t, db, 12, "Additions CE1", "MA", "CE1", models.TierDiscovery, 1, true)
	seedExercise(t, db, 13, "Inactif", "MA", "CP", models.TierDiscovery, 1, false)

	result, err := engine.Get(ctx, 1, Query{Limit: 10, Matiere: "MA"})
	require.NoError(t, err)

	require.Len(t, result, 1) // Niveau defaults to the student's CP
	assert.Equal(t, int64(10), result[0].ID)
}
