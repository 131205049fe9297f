// Package store provides storage backends for TriagePipe.
//
// This file implements a PostgreSQL-backed doctor directory and disease knowledge base.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

var postgresQueries = catalogQueries{
	insertDoctor: `INSERT INTO doctors (name, speciality, hospital_name, address, number, image_source, about, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	findDoctors: `SELECT name, speciality, hospital_name, address, number, image_source, about, latitude, longitude
		FROM doctors
		WHERE strpos(lower(speciality), lower($1)) > 0 AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY id`,
	countDoctors: `SELECT COUNT(*) FROM doctors`,
	upsertDiseaseInfo: `INSERT INTO disease_info (disease, description, precautions) VALUES (lower(trim($1)), $2, $3::jsonb)
		ON CONFLICT (disease) DO UPDATE SET description = EXCLUDED.description, precautions = EXCLUDED.precautions`,
	lookupDiseaseInfo: `SELECT disease, description, precautions::text FROM disease_info WHERE disease = lower(trim($1))`,
}

// PostgresStore serves doctors and disease information from PostgreSQL.
type PostgresStore struct {
	catalog
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{catalog{name: "PostgresStore", db: db, q: postgresQueries}}, nil
}
