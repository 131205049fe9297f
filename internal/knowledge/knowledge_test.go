package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const descriptionsCSV = `Disease,Description
Fungal infection,In humans fungal infections occur when an invading fungus takes over an area of the body.
 Malaria ,An infectious disease caused by protozoan parasites.
`

const precautionsCSV = `Disease,Precaution_1,Precaution_2,Precaution_3,Precaution_4
Fungal infection,bath twice,use detol or neem in bathing water,keep infected area dry,use clean cloths
Malaria,Consult nearest hospital,avoid oily food,,keep mosquitos out
`

func TestLookup(t *testing.T) {
	tbl := NewTable()
	if err := tbl.ReadDescriptions(strings.NewReader(descriptionsCSV)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.ReadPrecautions(strings.NewReader(precautionsCSV)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, ok, err := tbl.Lookup(context.Background(), "  MALARIA")
	if err != nil || !ok {
		t.Fatalf("expected malaria to be found, ok=%v err=%v", ok, err)
	}
	if !strings.HasPrefix(info.Description, "An infectious disease") {
		t.Errorf("unexpected description %q", info.Description)
	}
	if len(info.Precautions) != 3 || info.Precautions[2] != "keep mosquitos out" {
		t.Errorf("expected blank precaution to be skipped, got %v", info.Precautions)
	}

	info, ok, _ = tbl.Lookup(context.Background(), "Fungal infection")
	if !ok || len(info.Precautions) != 4 {
		t.Errorf("expected 4 precautions for fungal infection, got %+v", info)
	}

	if _, ok, _ := tbl.Lookup(context.Background(), "Unknown"); ok {
		t.Error("expected miss for unknown disease")
	}
}

func TestMissingColumn(t *testing.T) {
	tbl := NewTable()
	if err := tbl.ReadDescriptions(strings.NewReader("name,text\nx,y\n")); err == nil {
		t.Error("expected error for missing disease column")
	}
}

func TestLoadFilesMissingIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	desc := filepath.Join(dir, "desc.csv")
	if err := os.WriteFile(desc, []byte(descriptionsCSV), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	tbl := LoadFiles(desc, filepath.Join(dir, "missing.csv"))
	if tbl.Len() != 2 {
		t.Errorf("expected 2 diseases, got %d", tbl.Len())
	}
	all := tbl.All()
	if all[0].Disease != "fungal infection" || all[1].Disease != "malaria" {
		t.Errorf("expected sorted normalized labels, got %+v", all)
	}
}
