package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/reved/internal/attempt"
	"github.com/example/reved/internal/cache"
	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/internal/recommendation"
	"github.com/example/reved/internal/srs"
)

const testSecret = "test-secret"

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.ConnectInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pinHash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO students (id, name, pin_hash, niveau_actuel) VALUES (1, 'Alice', $1, 'CP')`, string(pinHash))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO exercises (id, title, matiere, niveau, difficulty, ordre, points_on_success, active)
		VALUES (10, 'Additions', 'MA', 'CP', 'decouverte', 1, 10, TRUE)`)
	require.NoError(t, err)

	students := database.NewStudentRepository(db)
	exercises := database.NewExerciseRepository(db)
	progress := database.NewProgressRepository(db)
	revisions := database.NewRevisionRepository(db)
	memCache := cache.NewMemory()
	log := logger.Nop()

	scheduler := srs.New(revisions, log, 180)
	processor := attempt.NewProcessor(db, exercises, students, progress, scheduler, memCache, log)
	engine := recommendation.NewEngine(students, exercises, progress, memCache, 15*time.Minute, 5, log)

	return New(Deps{
		Auth:      NewAuthHandler(students, testSecret, log),
		Students:  NewStudentHandler(processor, engine, scheduler, progress, log),
		JWTSecret: testSecret,
		Env:       "dev",
		Log:       log,
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestLogin(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"valid credentials", map[string]interface{}{"studentId": 1, "pin": "1234"}, 200},
		{"wrong pin", map[string]interface{}{"studentId": 1, "pin": "0000"}, 401},
		{"unknown student", map[string]interface{}{"studentId": 99, "pin": "1234"}, 401},
		{"missing fields", map[string]interface{}{"studentId": 1}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/auth/login", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAuthz(t *testing.T) {
	router := setupRouter(t)
	ownToken, err := IssueToken(testSecret, 1, time.Hour)
	require.NoError(t, err)
	otherToken, err := IssueToken(testSecret, 2, time.Hour)
	require.NoError(t, err)
	expiredToken, err := IssueToken(testSecret, 1, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{"own token passes", "/students/1/progress", ownToken, 200, ""},
		{"foreign token is forbidden", "/students/1/progress", otherToken, 403, "FORBIDDEN"},
		{"missing token", "/students/1/progress", "", 401, "UNAUTHORIZED"},
		{"expired token", "/students/1/progress", expiredToken, 401, "UNAUTHORIZED"},
		{"non-numeric id", "/students/abc/progress", ownToken, 400, "INVALID_STUDENT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, w)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}

func TestSubmitAttemptEndpoint(t *testing.T) {
	router := setupRouter(t)
	token, err := IssueToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	body := map[string]interface{}{
		"exerciseId": 10,
		"attempt": map[string]interface{}{
			"reponse":       "7",
			"reussi":        true,
			"tempsSecondes": 42,
		},
	}
	w := doJSON(t, router, http.MethodPost, "/students/1/attempts", token, body)
	require.Equal(t, 200, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["reussi"])
	assert.Equal(t, float64(10), data["pointsGagnes"])
	assert.Equal(t, float64(10), data["totalPoints"])
	assert.Equal(t, "TERMINE", data["nouveauStatut"])
}

func TestSubmitAttemptValidation(t *testing.T) {
	router := setupRouter(t)
	token, err := IssueToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"zero duration", map[string]interface{}{
			"exerciseId": 10,
			"attempt":    map[string]interface{}{"reussi": true, "tempsSecondes": 0},
		}},
		{"duration above the hour cap", map[string]interface{}{
			"exerciseId": 10,
			"attempt":    map[string]interface{}{"reussi": true, "tempsSecondes": 4000},
		}},
		{"negative hints", map[string]interface{}{
			"exerciseId": 10,
			"attempt":    map[string]interface{}{"reussi": true, "tempsSecondes": 30, "aidesUtilisees": -1},
		}},
		{"missing exercise id", map[string]interface{}{
			"attempt": map[string]interface{}{"reussi": true, "tempsSecondes": 30},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/students/1/attempts", token, tt.body)
			assert.Equal(t, 400, w.Code)
			envelope := decodeEnvelope(t, w)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, "INVALID_INPUT", envelope.Error.Code)
		})
	}
}

func TestUnknownExerciseReturns404(t *testing.T) {
	router := setupRouter(t)
	token, err := IssueToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	body := map[string]interface{}{
		"exerciseId": 999,
		"attempt":    map[string]interface{}{"reussi": true, "tempsSecondes": 30},
	}
	w := doJSON(t, router, http.MethodPost, "/students/1/attempts", token, body)
	assert.Equal(t, 404, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "EXERCISE_NOT_FOUND", envelope.Error.Code)
}

func TestRecommendationsEndpoint(t *testing.T) {
	router := setupRouter(t)
	token, err := IssueToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/students/1/recommendations?limit=3", token, nil)
	require.Equal(t, 200, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
	items, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, 200, w.Code)
}
