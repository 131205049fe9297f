// Package extract turns free-text symptom descriptions into classifier feature keys.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/BTreeMap/TriagePipe/internal/fuzzy"
	"github.com/BTreeMap/TriagePipe/internal/lexicon"
)

// DefaultThreshold is the minimum token-set score for a fragment to count as a match.
const DefaultThreshold = 80

// minFragmentLen skips fragments too short to match meaningfully.
const minFragmentLen = 3

var separators = regexp.MustCompile(`,|\band\b|\bi feel\b|\bi have\b|\bexperiencing\b`)

// Interpreter is a secondary matcher consulted when fuzzy matching finds nothing.
// It must answer with members of phrases.
type Interpreter interface {
	InterpretSymptoms(ctx context.Context, text string, phrases []string) ([]string, error)
}

// Opts configures an Extractor.
type Opts struct {
	Threshold   int
	Interpreter Interpreter
}

// Option configures an Extractor.
type Option func(*Opts)

// WithThreshold sets the acceptance score, 0-100.
func WithThreshold(score int) Option {
	return func(o *Opts) { o.Threshold = score }
}

// WithInterpreter enables the fallback interpreter.
func WithInterpreter(i Interpreter) Option {
	return func(o *Opts) { o.Interpreter = i }
}

// Extractor matches text fragments against lexicon phrases. Safe for concurrent use.
type Extractor struct {
	lex         *lexicon.Lexicon
	phrases     []string
	threshold   int
	interpreter Interpreter
}

// New returns an Extractor over lex.
func New(lex *lexicon.Lexicon, opts ...Option) *Extractor {
	cfg := Opts{Threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 100 {
		slog.Warn("Extractor.New: threshold out of range, using default", "threshold", cfg.Threshold, "default", DefaultThreshold)
		cfg.Threshold = DefaultThreshold
	}
	return &Extractor{
		lex:         lex,
		phrases:     lex.Phrases(),
		threshold:   cfg.Threshold,
		interpreter: cfg.Interpreter,
	}
}

// Fragments splits lowercased text on the separator words.
// Text with no usable fragment is returned whole.
func Fragments(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, part := range separators.Split(lower, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && strings.TrimSpace(lower) != "" {
		out = append(out, lower)
	}
	return out
}

// Extract returns the distinct feature keys found in text, in order of first mention.
func (e *Extractor) Extract(ctx context.Context, text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var keys []string
	seen := map[string]bool{}
	add := func(phrase string) {
		entry, ok := e.lex.Lookup(phrase)
		if !ok || seen[entry.Key] {
			return
		}
		seen[entry.Key] = true
		keys = append(keys, entry.Key)
	}

	for _, frag := range Fragments(text) {
		if utf8.RuneCountInString(frag) < minFragmentLen {
			continue
		}
		m, ok := fuzzy.ExtractOne(frag, e.phrases)
		if !ok || m.Score < e.threshold {
			slog.Debug("Extractor.Extract: fragment below threshold", "fragment", frag, "best", m.Choice, "score", m.Score)
			continue
		}
		add(m.Choice)
	}

	if len(keys) == 0 && e.interpreter != nil {
		phrases, err := e.interpreter.InterpretSymptoms(ctx, text, e.phrases)
		if err != nil {
			slog.Warn("Extractor.Extract: interpreter fallback failed", "error", err)
		}
		for _, p := range phrases {
			add(p)
		}
		if len(keys) > 0 {
			slog.Info("Extractor.Extract: interpreter fallback matched", "keys", keys)
		}
	}

	slog.Debug("Extractor.Extract: extracted", "text", text, "keys", keys)
	return keys
}
