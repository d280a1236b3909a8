package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded from the environment
type Config struct {
	Port      string
	Env       string // dev or prod
	DBType    string // postgres or sqlite
	DBURL     string // postgres connection string
	SQLiteDir string // directory for the sqlite file

	RedisAddr     string // empty means in-process cache
	RedisPassword string

	JWTSecret string

	MaxIntervalDays   int
	RecommendationTTL time.Duration
	DefaultRecLimit   int
}

// Load reads configuration from the environment. A .env file is honored if
// present but is not required.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("APP_ENV", "dev"),
		DBType:    getEnv("DB_TYPE", "sqlite"),
		DBURL:     os.Getenv("DATABASE_URL"),
		SQLiteDir: getEnv("SQLITE_DIR", "data"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		MaxIntervalDays:   getEnvInt("MAX_INTERVAL_DAYS", 180),
		RecommendationTTL: time.Duration(getEnvInt("RECOMMENDATION_TTL_MINUTES", 15)) * time.Minute,
		DefaultRecLimit:   getEnvInt("DEFAULT_RECOMMENDATION_LIMIT", 5),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
