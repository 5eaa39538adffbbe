package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DriverPostgres is the PostgreSQL driver.
const DriverPostgres = "postgres"

// NewPostgresStorage connects to PostgreSQL at dsn and initializes the schema.
func NewPostgresStorage(dsn string) (*SQLStorage, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLStorage{db: db, driver: DriverPostgres}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS symptoms (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	severity_level TEXT NOT NULL DEFAULT 'low',
	description TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_symptoms_name ON symptoms(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_symptoms_category ON symptoms(category);

CREATE TABLE IF NOT EXISTS advice (
	id BIGINT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	recommendation TEXT NOT NULL DEFAULT '',
	severity_level TEXT NOT NULL DEFAULT 'low',
	category TEXT NOT NULL DEFAULT '',
	when_to_see_doctor TEXT,
	emergency_signs TEXT
);

CREATE TABLE IF NOT EXISTS symptom_advice (
	symptom_id BIGINT NOT NULL REFERENCES symptoms(id) ON DELETE CASCADE,
	advice_id BIGINT NOT NULL REFERENCES advice(id) ON DELETE CASCADE,
	weight DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	UNIQUE (symptom_id, advice_id)
);

CREATE INDEX IF NOT EXISTS idx_symptom_advice_symptom ON symptom_advice(symptom_id);

CREATE TABLE IF NOT EXISTS user_sessions (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	symptoms_searched TEXT,
	advice_given TEXT,
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_user_sessions_session ON user_sessions(session_id);

CREATE TABLE IF NOT EXISTS kb_meta (
	meta_key TEXT PRIMARY KEY,
	meta_value TEXT NOT NULL
);
`
