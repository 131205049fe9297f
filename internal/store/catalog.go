package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

// catalogQueries holds the dialect-specific SQL for the doctor and disease tables.
type catalogQueries struct {
	insertDoctor      string
	findDoctors       string
	countDoctors      string
	upsertDiseaseInfo string
	lookupDiseaseInfo string
}

// catalog implements the doctor directory and disease knowledge on a *sql.DB.
type catalog struct {
	name string
	db   *sql.DB
	q    catalogQueries
}

// ReplaceDoctors swaps the whole doctor table in one transaction.
func (c *catalog) ReplaceDoctors(ctx context.Context, doctors []models.Doctor) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doctors`); err != nil {
		slog.Error(c.name+".ReplaceDoctors: delete failed", "error", err)
		return fmt.Errorf("failed to clear doctors: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, c.q.insertDoctor)
	if err != nil {
		return fmt.Errorf("failed to prepare doctor insert: %w", err)
	}
	defer stmt.Close()
	for _, d := range doctors {
		if _, err := stmt.ExecContext(ctx, d.Name, d.Speciality, d.Hospital, d.Address, nilIfEmpty(d.Number),
			d.Image, d.About, nullFloat(d.Latitude), nullFloat(d.Longitude)); err != nil {
			slog.Error(c.name+".ReplaceDoctors: insert failed", "error", err, "name", d.Name)
			return fmt.Errorf("failed to insert doctor %s: %w", d.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit doctors: %w", err)
	}
	slog.Info(c.name+".ReplaceDoctors: doctors imported", "count", len(doctors))
	return nil
}

// FindBySpeciality implements directory.Directory.
func (c *catalog) FindBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error) {
	if speciality == "" {
		return nil, nil
	}
	rows, err := c.db.QueryContext(ctx, c.q.findDoctors, speciality)
	if err != nil {
		slog.Error(c.name+".FindBySpeciality: query failed", "error", err, "speciality", speciality)
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	var out []models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doctors: %w", err)
	}
	slog.Debug(c.name+".FindBySpeciality: doctors found", "speciality", speciality, "count", len(out))
	return out, nil
}

// CountDoctors returns the number of doctors stored.
func (c *catalog) CountDoctors(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, c.q.countDoctors).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}

// PutDiseaseInfo inserts or updates the given diseases.
func (c *catalog) PutDiseaseInfo(ctx context.Context, infos []models.DiseaseInfo) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	for _, info := range infos {
		precautions, err := json.Marshal(nonNil(info.Precautions))
		if err != nil {
			return fmt.Errorf("failed to encode precautions for %s: %w", info.Disease, err)
		}
		if _, err := tx.ExecContext(ctx, c.q.upsertDiseaseInfo, info.Disease, info.Description, string(precautions)); err != nil {
			slog.Error(c.name+".PutDiseaseInfo: upsert failed", "error", err, "disease", info.Disease)
			return fmt.Errorf("failed to store disease %s: %w", info.Disease, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit disease info: %w", err)
	}
	slog.Info(c.name+".PutDiseaseInfo: disease info imported", "count", len(infos))
	return nil
}

// Lookup implements knowledge.Source. disease must already be normalized by the caller
// or stored normalized; both sides are compared lower-cased.
func (c *catalog) Lookup(ctx context.Context, disease string) (models.DiseaseInfo, bool, error) {
	var info models.DiseaseInfo
	var precautions string
	err := c.db.QueryRowContext(ctx, c.q.lookupDiseaseInfo, disease).Scan(&info.Disease, &info.Description, &precautions)
	if err == sql.ErrNoRows {
		return models.DiseaseInfo{}, false, nil
	}
	if err != nil {
		slog.Error(c.name+".Lookup: query failed", "error", err, "disease", disease)
		return models.DiseaseInfo{}, false, fmt.Errorf("failed to look up disease %s: %w", disease, err)
	}
	if err := json.Unmarshal([]byte(precautions), &info.Precautions); err != nil {
		slog.Warn(c.name+".Lookup: bad precautions payload, ignoring", "error", err, "disease", disease)
		info.Precautions = nil
	}
	return info, true, nil
}

// Close closes the database connection.
func (c *catalog) Close() error {
	return c.db.Close()
}
