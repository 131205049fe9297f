package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const sampleYAML = `
- phrase: "Headache"
  key: headache
  ask: "Do you have a headache?"
- phrase: "cough"
  key: cough
  ask: "Do you have a cough?"
- phrase: "tiredness"
  key: fatigue
  ask: "Are you feeling tired?"
- phrase: "fatigue"
  key: fatigue
  ask: "Are you experiencing unusual fatigue?"
- phrase: "made up"
  key: not_a_feature
  ask: "?"
- phrase: ""
  key: cough
`

func TestParseDropsUnknownKeys(t *testing.T) {
	lex, err := Parse([]byte(sampleYAML), []string{"headache", "cough", "fatigue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lex.Len() != 4 {
		t.Errorf("expected 4 phrases, got %d", lex.Len())
	}
	if _, ok := lex.Lookup("made up"); ok {
		t.Error("entry with unknown key should have been dropped")
	}
	e, ok := lex.Lookup("headache")
	if !ok || e.Key != "headache" {
		t.Errorf("expected lowercased phrase lookup to succeed, got %+v ok=%v", e, ok)
	}
}

func TestPromptFor(t *testing.T) {
	lex, err := Parse([]byte(sampleYAML), []string{"headache", "cough", "fatigue", "chills"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lex.PromptFor("fatigue"); got != "Are you experiencing unusual fatigue?" {
		t.Errorf("expected last phrase's question for fatigue, got %q", got)
	}
	if got := lex.PromptFor("skin_rash"); got != "Are you experiencing skin rash?" {
		t.Errorf("expected generated fallback, got %q", got)
	}
}

func TestAllPhrasesSorted(t *testing.T) {
	lex, err := Parse([]byte(sampleYAML), []string{"headache", "cough", "fatigue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := lex.AllPhrases()
	if !sort.StringsAreSorted(all) {
		t.Errorf("expected sorted phrases, got %v", all)
	}
	if got := lex.Phrases(); got[0] != "headache" {
		t.Errorf("expected lexicon order to be preserved, got %v", got)
	}
	keys := lex.Keys()
	if len(keys) != 3 || keys[2] != "fatigue" {
		t.Errorf("expected distinct keys in first-seen order, got %v", keys)
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte(sampleYAML), []string{"unrelated"})
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestDefaultLexicon(t *testing.T) {
	lex, err := Default([]string{"headache", "cough", "throat_irritation", "high_fever"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e, ok := lex.Lookup("sore throat"); !ok || e.Key != "throat_irritation" {
		t.Errorf("expected synonym 'sore throat' to map to throat_irritation, got %+v", e)
	}
	if _, ok := lex.Lookup("itching"); ok {
		t.Error("itching is not a feature here and should be dropped")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lex.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("failed to write lexicon: %v", err)
	}
	lex, err := Load(path, []string{"cough"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lex.Len() != 1 {
		t.Errorf("expected 1 phrase, got %d", lex.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
