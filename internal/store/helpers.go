package store

import (
	"database/sql"
	"fmt"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// scanDoctor scans a Doctor from sql.Rows.
func scanDoctor(rows *sql.Rows) (models.Doctor, error) {
	var d models.Doctor
	var number sql.NullString
	var lat, lng sql.NullFloat64
	err := rows.Scan(&d.Name, &d.Speciality, &d.Hospital, &d.Address, &number, &d.Image, &d.About, &lat, &lng)
	if err != nil {
		return d, fmt.Errorf("scan doctor failed: %w", err)
	}
	d.Number = number.String
	if lat.Valid {
		v := lat.Float64
		d.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		d.Longitude = &v
	}
	return d, nil
}
