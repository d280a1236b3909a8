package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options controls how the database connection is opened
type Options struct {
	Type      string // "postgres" or "sqlite"
	URL       string // postgres connection string
	SQLiteDir string // directory holding the sqlite file
}

// Connect opens the database and initializes the schema
func Connect(opts Options) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch opts.Type {
	case "postgres":
		db, err = sqlx.Connect("postgres", opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %v", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	default:
		dir := opts.SQLiteDir
		if dir == "" {
			dir = "data"
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
		db, err = sqlx.Connect("sqlite3", filepath.Join(dir, "reved.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %v", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := InitializeSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectInMemory opens a throwaway in-memory sqlite database, for tests
func ConnectInMemory() (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := InitializeSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// InitializeSchema creates the tables if they don't exist
func InitializeSchema(db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS students (
			id %s,
			name TEXT NOT NULL,
			pin_hash TEXT NOT NULL DEFAULT '',
			niveau_actuel TEXT NOT NULL DEFAULT 'CP',
			total_points INTEGER NOT NULL DEFAULT 0,
			current_level INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, pk),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS exercises (
			id %s,
			title TEXT NOT NULL,
			matiere TEXT NOT NULL,
			niveau TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'decouverte',
			ordre INTEGER NOT NULL DEFAULT 0,
			points_on_success INTEGER NOT NULL DEFAULT 10,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(title, niveau)
		)`, pk),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS progress (
			id %s,
			student_id INTEGER NOT NULL,
			exercise_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'NON_COMMENCE',
			attempt_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			success_rate REAL NOT NULL DEFAULT 0,
			points_earned INTEGER NOT NULL DEFAULT 0,
			last_attempt_at TIMESTAMP,
			first_success_at TIMESTAMP,
			history TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (student_id) REFERENCES students(id),
			FOREIGN KEY (exercise_id) REFERENCES exercises(id),
			UNIQUE(student_id, exercise_id)
		)`, pk),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS revision_schedules (
			id %s,
			student_id INTEGER NOT NULL,
			exercise_id INTEGER NOT NULL,
			next_review_date TIMESTAMP NOT NULL,
			interval_days INTEGER NOT NULL DEFAULT 1,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			review_count INTEGER NOT NULL DEFAULT 0,
			last_outcome BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (student_id) REFERENCES students(id),
			FOREIGN KEY (exercise_id) REFERENCES exercises(id),
			UNIQUE(student_id, exercise_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_progress_student ON progress(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_revision_due ON revision_schedules(student_id, next_review_date)`,
		`CREATE INDEX IF NOT EXISTS idx_exercises_niveau ON exercises(niveau, matiere)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
