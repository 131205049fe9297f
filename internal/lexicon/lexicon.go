// Package lexicon maps natural-language symptom phrases onto classifier feature keys.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/util"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// ErrEmpty is returned when no entry survives validation.
var ErrEmpty = errors.New("lexicon has no usable entries")

// Entry maps one natural phrase to a feature key and the yes/no question for it.
type Entry struct {
	Phrase string `yaml:"phrase"`
	Key    string `yaml:"key"`
	Ask    string `yaml:"ask"`
}

// Lexicon is an immutable, validated set of entries. Safe for concurrent use.
type Lexicon struct {
	entries  []Entry
	byPhrase map[string]Entry
	askByKey map[string]string
	keys     []string
}

// Default builds the lexicon shipped with the binary, validated against featureKeys.
func Default(featureKeys []string) (*Lexicon, error) {
	return Parse(defaultLexicon, featureKeys)
}

// Load reads a YAML lexicon file, validated against featureKeys.
func Load(path string, featureKeys []string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return Parse(data, featureKeys)
}

// Parse decodes a YAML list of entries. Entries whose key is not in featureKeys,
// or that lack a phrase, are dropped and logged.
func Parse(data []byte, featureKeys []string) (*Lexicon, error) {
	var raw []Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}

	known := make(map[string]bool, len(featureKeys))
	for _, k := range featureKeys {
		known[util.NormalizeKey(k)] = true
	}

	lex := &Lexicon{
		byPhrase: make(map[string]Entry, len(raw)),
		askByKey: make(map[string]string),
	}
	dropped := 0
	for _, e := range raw {
		e.Phrase = strings.ToLower(strings.TrimSpace(e.Phrase))
		e.Key = util.NormalizeKey(e.Key)
		e.Ask = strings.TrimSpace(e.Ask)
		if e.Phrase == "" || e.Key == "" {
			slog.Warn("Lexicon.Parse: entry missing phrase or key, skipping", "phrase", e.Phrase, "key", e.Key)
			dropped++
			continue
		}
		if !known[e.Key] {
			slog.Warn("Lexicon.Parse: feature key not known to classifier, skipping", "phrase", e.Phrase, "key", e.Key)
			dropped++
			continue
		}
		if _, dup := lex.byPhrase[e.Phrase]; dup {
			slog.Warn("Lexicon.Parse: duplicate phrase, keeping first", "phrase", e.Phrase)
			dropped++
			continue
		}
		lex.entries = append(lex.entries, e)
		lex.byPhrase[e.Phrase] = e
		if _, seen := lex.askByKey[e.Key]; !seen {
			lex.keys = append(lex.keys, e.Key)
		}
		// The last phrase for a key supplies its question.
		if e.Ask != "" {
			lex.askByKey[e.Key] = e.Ask
		} else if _, ok := lex.askByKey[e.Key]; !ok {
			lex.askByKey[e.Key] = ""
		}
	}
	if len(lex.entries) == 0 {
		return nil, ErrEmpty
	}
	slog.Info("Lexicon.Parse: lexicon loaded", "phrases", len(lex.entries), "keys", len(lex.keys), "dropped", dropped)
	return lex, nil
}

// Lookup returns the entry for an exact natural phrase.
func (l *Lexicon) Lookup(phrase string) (Entry, bool) {
	e, ok := l.byPhrase[strings.ToLower(strings.TrimSpace(phrase))]
	return e, ok
}

// Phrases returns the natural phrases in lexicon order. Matching ties resolve by this order.
func (l *Lexicon) Phrases() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Phrase
	}
	return out
}

// AllPhrases returns the natural phrases sorted alphabetically.
func (l *Lexicon) AllPhrases() []string {
	out := l.Phrases()
	sort.Strings(out)
	return out
}

// Keys returns the distinct feature keys covered by the lexicon, in first-seen order.
func (l *Lexicon) Keys() []string {
	return append([]string(nil), l.keys...)
}

// PromptFor returns the yes/no question for key, or one generated from the key itself.
func (l *Lexicon) PromptFor(key string) string {
	if ask := l.askByKey[key]; ask != "" {
		return ask
	}
	return fmt.Sprintf("Are you experiencing %s?", util.Humanize(key))
}

// Len returns the number of phrases.
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// DefaultKeys returns every feature key named by the shipped lexicon, unvalidated, in first-seen order.
func DefaultKeys() []string {
	var raw []Entry
	if err := yaml.Unmarshal(defaultLexicon, &raw); err != nil {
		return nil
	}
	var keys []string
	seen := map[string]bool{}
	for _, e := range raw {
		k := util.NormalizeKey(e.Key)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
