package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/reved/internal/logger"
	"github.com/example/reved/pkg/models"
)

const studentIDKey = "studentID"

// RequestLogger tags each request with an id and logs its outcome
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		start := time.Now()

		c.Next()

		log.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RequireStudent authenticates the bearer token and checks that its subject
// matches the :id path parameter. Children may only act on their own account.
func RequireStudent(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pathID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || pathID <= 0 {
			RespondCode(c, http.StatusBadRequest, models.CodeInvalidStudentID, "identifiant eleve invalide")
			return
		}

		tokenString := extractBearer(c)
		if tokenString == "" {
			RespondCode(c, http.StatusUnauthorized, models.CodeUnauthorized, "jeton manquant")
			return
		}
		tokenID, err := ParseToken(secret, tokenString)
		if err != nil {
			RespondCode(c, http.StatusUnauthorized, models.CodeUnauthorized, "jeton invalide ou expire")
			return
		}
		if tokenID != pathID {
			RespondCode(c, http.StatusForbidden, models.CodeForbidden, "acces refuse")
			return
		}

		c.Set(studentIDKey, pathID)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// IssueToken signs a session token for a student
func IssueToken(secret string, studentID int64, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(studentID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies a session token and returns its student id
func ParseToken(secret, tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}
