package store

import (
	"context"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

// Catalog is a database-backed doctor directory and disease knowledge base.
type Catalog interface {
	FindBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error)
	Lookup(ctx context.Context, disease string) (models.DiseaseInfo, bool, error)
	ReplaceDoctors(ctx context.Context, doctors []models.Doctor) error
	PutDiseaseInfo(ctx context.Context, infos []models.DiseaseInfo) error
	CountDoctors(ctx context.Context) (int, error)
	Close() error
}

// OpenCatalog opens SQLite or PostgreSQL depending on the DSN.
func OpenCatalog(dsn string) (Catalog, error) {
	if DetectDSNType(dsn) == "postgres" {
		pg, err := NewPostgresStore(WithPostgresDSN(dsn))
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := NewSQLiteStore(WithSQLiteDSN(dsn))
	if err != nil {
		return nil, err
	}
	return lite, nil
}
