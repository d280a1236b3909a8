package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/reved/internal/logger"
)

// Deps collects everything the router needs
type Deps struct {
	Auth      *AuthHandler
	Students  *StudentHandler
	JWTSecret string
	Env       string
	Log       *logger.Logger
}

// New builds the gin engine with routes and middleware wired
func New(deps Deps) *gin.Engine {
	if deps.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/health", func(c *gin.Context) {
		RespondOK(c, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", deps.Auth.Login)

	student := r.Group("/students/:id", RequireStudent(deps.JWTSecret))
	{
		student.POST("/attempts", deps.Students.SubmitAttempt)
		student.GET("/recommendations", deps.Students.GetRecommendations)
		student.GET("/progress", deps.Students.GetProgress)
		student.GET("/revisions/due", deps.Students.GetDueRevisions)
		student.GET("/stats", deps.Students.GetStats)
	}

	return r
}
