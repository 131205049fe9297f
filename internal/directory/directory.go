// Package directory provides the doctor directory used for referrals.
package directory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

const (
	// PlaceholderImage is used when a doctor has no picture.
	PlaceholderImage = "https://via.placeholder.com/100?text=No+Image"
	// UnknownField fills blank descriptive fields.
	UnknownField = "N/A"
)

// Directory finds doctors by speciality.
type Directory interface {
	// FindBySpeciality returns doctors whose speciality contains speciality
	// (case-insensitive) and who have both coordinates, in directory order.
	FindBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error)
}

// Memory is an in-memory Directory. Safe for concurrent reads.
type Memory struct {
	doctors []models.Doctor
}

// NewMemory returns a Memory directory over doctors.
func NewMemory(doctors []models.Doctor) *Memory {
	return &Memory{doctors: doctors}
}

// LoadFile reads the doctors CSV at path into a Memory directory.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open doctors file: %w", err)
	}
	defer f.Close()
	doctors, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	slog.Info("directory.LoadFile: doctors loaded", "path", path, "count", len(doctors))
	return NewMemory(doctors), nil
}

// FindBySpeciality implements Directory.
func (m *Memory) FindBySpeciality(ctx context.Context, speciality string) ([]models.Doctor, error) {
	needle := strings.ToLower(strings.TrimSpace(speciality))
	if needle == "" {
		return nil, nil
	}
	var out []models.Doctor
	for _, d := range m.doctors {
		if d.HasCoordinates() && strings.Contains(strings.ToLower(d.Speciality), needle) {
			out = append(out, d)
		}
	}
	return out, nil
}

// All returns every doctor in directory order.
func (m *Memory) All() []models.Doctor {
	return m.doctors
}

// ReadCSV parses a doctors CSV. Headers are matched after trimming, lower-casing
// and replacing spaces with underscores. Unparseable coordinates are treated as missing.
func ReadCSV(r io.Reader) ([]models.Doctor, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read doctors header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")] = i
	}
	for _, c := range []string{"name", "speciality"} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("doctors file is missing %q column", c)
		}
	}
	if _, ok := cols["latitude"]; !ok {
		slog.Warn("directory.ReadCSV: latitude column not found")
	}
	if _, ok := cols["longitude"]; !ok {
		slog.Warn("directory.ReadCSV: longitude column not found")
	}

	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var doctors []models.Doctor
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			slog.Warn("directory.ReadCSV: skipping malformed row", "line", line, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read doctors row %d: %w", line, err)
		}
		d := models.Doctor{
			Name:       get(rec, "name"),
			Speciality: get(rec, "speciality"),
			Hospital:   get(rec, "hospital_name"),
			Address:    get(rec, "address"),
			Number:     get(rec, "number"),
			Image:      get(rec, "image_source"),
			About:      get(rec, "about"),
			Latitude:   parseCoordinate(get(rec, "latitude")),
			Longitude:  parseCoordinate(get(rec, "longitude")),
		}
		if d.Name == "" {
			slog.Warn("directory.ReadCSV: skipping row without name", "line", line)
			continue
		}
		if d.Image == "" {
			d.Image = PlaceholderImage
		}
		if d.About == "" {
			d.About = UnknownField
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}

func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
