package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DriverSQLite is the default embedded driver.
const DriverSQLite = "sqlite3"

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open(DriverSQLite, dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLStorage{db: db, driver: DriverSQLite, path: dbPath}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS symptoms (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE,
	category TEXT NOT NULL,
	severity_level TEXT NOT NULL DEFAULT 'low',
	description TEXT
);

CREATE INDEX IF NOT EXISTS idx_symptoms_category ON symptoms(category);

CREATE TABLE IF NOT EXISTS advice (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	recommendation TEXT NOT NULL DEFAULT '',
	severity_level TEXT NOT NULL DEFAULT 'low',
	category TEXT NOT NULL DEFAULT '',
	when_to_see_doctor TEXT,
	emergency_signs TEXT
);

CREATE TABLE IF NOT EXISTS symptom_advice (
	symptom_id INTEGER NOT NULL,
	advice_id INTEGER NOT NULL,
	weight REAL NOT NULL DEFAULT 1.0,
	UNIQUE (symptom_id, advice_id),
	FOREIGN KEY (symptom_id) REFERENCES symptoms(id) ON DELETE CASCADE,
	FOREIGN KEY (advice_id) REFERENCES advice(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_symptom_advice_symptom ON symptom_advice(symptom_id);

CREATE TABLE IF NOT EXISTS user_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	symptoms_searched TEXT,
	advice_given TEXT,
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_user_sessions_session ON user_sessions(session_id);

CREATE TABLE IF NOT EXISTS kb_meta (
	meta_key TEXT PRIMARY KEY,
	meta_value TEXT NOT NULL
);
`
