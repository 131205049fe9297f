// Package knowledge serves disease descriptions and precautions.
package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/models"
	"github.com/BTreeMap/TriagePipe/internal/util"
)

// MaxPrecautions is the number of precaution columns read per disease.
const MaxPrecautions = 4

// Source looks up disease information by label. Labels are matched after
// trimming and lower-casing.
type Source interface {
	Lookup(ctx context.Context, disease string) (models.DiseaseInfo, bool, error)
}

// Table is an in-memory Source. Safe for concurrent reads.
type Table struct {
	byDisease map[string]models.DiseaseInfo
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{byDisease: map[string]models.DiseaseInfo{}}
}

// LoadFiles builds a Table from the description and precaution CSVs.
// A missing or unreadable file is logged and leaves its half of the table empty.
func LoadFiles(descriptionsPath, precautionsPath string) *Table {
	t := NewTable()
	if descriptionsPath != "" {
		if err := t.loadFile(descriptionsPath, t.ReadDescriptions); err != nil {
			slog.Warn("knowledge.LoadFiles: descriptions unavailable", "path", descriptionsPath, "error", err)
		}
	}
	if precautionsPath != "" {
		if err := t.loadFile(precautionsPath, t.ReadPrecautions); err != nil {
			slog.Warn("knowledge.LoadFiles: precautions unavailable", "path", precautionsPath, "error", err)
		}
	}
	slog.Info("knowledge.LoadFiles: disease knowledge loaded", "diseases", len(t.byDisease))
	return t
}

func (t *Table) loadFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return read(f)
}

// ReadDescriptions merges a "disease,description" CSV into the table.
func (t *Table) ReadDescriptions(r io.Reader) error {
	return readKeyed(r, func(cols map[string]int, rec []string) {
		desc := field(rec, cols, "description")
		if desc == "" {
			return
		}
		info := t.entry(field(rec, cols, "disease"))
		info.Description = desc
		t.put(info)
	}, "description")
}

// ReadPrecautions merges a "disease,precaution_1..precaution_4" CSV into the table.
// Blank precautions are skipped.
func (t *Table) ReadPrecautions(r io.Reader) error {
	return readKeyed(r, func(cols map[string]int, rec []string) {
		info := t.entry(field(rec, cols, "disease"))
		info.Precautions = nil
		for i := 1; i <= MaxPrecautions; i++ {
			if p := field(rec, cols, fmt.Sprintf("precaution_%d", i)); p != "" {
				info.Precautions = append(info.Precautions, p)
			}
		}
		t.put(info)
	})
}

// Put adds or replaces one disease.
func (t *Table) Put(info models.DiseaseInfo) {
	t.put(info)
}

// Lookup implements Source.
func (t *Table) Lookup(ctx context.Context, disease string) (models.DiseaseInfo, bool, error) {
	info, ok := t.byDisease[util.NormalizeLabel(disease)]
	return info, ok, nil
}

// All returns every disease, sorted by label.
func (t *Table) All() []models.DiseaseInfo {
	out := make([]models.DiseaseInfo, 0, len(t.byDisease))
	for _, info := range t.byDisease {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Disease < out[j].Disease })
	return out
}

// Len returns the number of diseases.
func (t *Table) Len() int {
	return len(t.byDisease)
}

func (t *Table) entry(disease string) models.DiseaseInfo {
	key := util.NormalizeLabel(disease)
	if info, ok := t.byDisease[key]; ok {
		return info
	}
	return models.DiseaseInfo{Disease: key}
}

func (t *Table) put(info models.DiseaseInfo) {
	info.Disease = util.NormalizeLabel(info.Disease)
	if info.Disease == "" {
		return
	}
	t.byDisease[info.Disease] = info
}

// readKeyed reads a CSV with a "disease" column plus any required columns,
// calling fn per row with the header index.
func readKeyed(r io.Reader, fn func(cols map[string]int, rec []string), required ...string) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range append([]string{"disease"}, required...) {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("missing %q column", c)
		}
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			slog.Warn("knowledge.readKeyed: skipping malformed row", "line", line, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", line, err)
		}
		fn(cols, rec)
	}
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
