// Package store provides storage backends for TriagePipe.
//
// This file implements an SQLite-backed doctor directory and disease knowledge base.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

var sqliteQueries = catalogQueries{
	insertDoctor: `INSERT INTO doctors (name, speciality, hospital_name, address, number, image_source, about, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	findDoctors: `SELECT name, speciality, hospital_name, address, number, image_source, about, latitude, longitude
		FROM doctors
		WHERE instr(lower(speciality), lower(?)) > 0 AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY id`,
	countDoctors: `SELECT COUNT(*) FROM doctors`,
	upsertDiseaseInfo: `INSERT INTO disease_info (disease, description, precautions) VALUES (lower(trim(?)), ?, ?)
		ON CONFLICT(disease) DO UPDATE SET description = excluded.description, precautions = excluded.precautions`,
	lookupDiseaseInfo: `SELECT disease, description, precautions FROM disease_info WHERE disease = lower(trim(?))`,
}

// SQLiteStore serves doctors and disease information from an SQLite file.
type SQLiteStore struct {
	catalog
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "dir", dir)

	return &SQLiteStore{catalog{name: "SQLiteStore", db: db, q: sqliteQueries}}, nil
}
