package classifier

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/util"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var artifactSchema string

// NaiveBayes is a Bernoulli naive Bayes model.
type NaiveBayes struct {
	Kind           string      `json:"kind"`
	FeatureNames   []string    `json:"features"`
	ClassNames     []string    `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"` // [class][feature] log P(x=1|class)

	// negLogProb caches log(1-P(x=1|class)).
	negLogProb [][]float64
}

// LoadFile reads and validates a model artifact from disk.
func LoadFile(path string) (*NaiveBayes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	return Load(data)
}

// Load validates a JSON model artifact against the embedded schema and checks its dimensions.
func Load(data []byte) (*NaiveBayes, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(artifactSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate model artifact: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid model artifact: %s", strings.Join(msgs, "; "))
	}

	var nb NaiveBayes
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := nb.init(); err != nil {
		return nil, err
	}
	slog.Info("NaiveBayes.Load: model loaded", "features", len(nb.FeatureNames), "classes", len(nb.ClassNames))
	return &nb, nil
}

// init normalizes feature names, checks dimensions and fills the cache.
func (nb *NaiveBayes) init() error {
	if nb.Kind == "" {
		nb.Kind = "bernoulli_nb"
	}
	nc, nf := len(nb.ClassNames), len(nb.FeatureNames)
	if len(nb.ClassLogPrior) != nc || len(nb.FeatureLogProb) != nc {
		return fmt.Errorf("%w: %d classes but %d priors and %d probability rows", ErrShapeMismatch, nc, len(nb.ClassLogPrior), len(nb.FeatureLogProb))
	}
	seen := make(map[string]bool, nf)
	for i, f := range nb.FeatureNames {
		key := util.NormalizeKey(f)
		if seen[key] {
			return fmt.Errorf("duplicate feature %q in model artifact", key)
		}
		seen[key] = true
		nb.FeatureNames[i] = key
	}
	nb.negLogProb = make([][]float64, nc)
	for c, row := range nb.FeatureLogProb {
		if len(row) != nf {
			return fmt.Errorf("%w: class %q has %d feature probabilities, want %d", ErrShapeMismatch, nb.ClassNames[c], len(row), nf)
		}
		nb.negLogProb[c] = make([]float64, nf)
		for f, lp := range row {
			nb.negLogProb[c][f] = math.Log1p(-math.Exp(lp))
		}
	}
	return nil
}

// Features implements Classifier.
func (nb *NaiveBayes) Features() []string { return nb.FeatureNames }

// Classes implements Classifier.
func (nb *NaiveBayes) Classes() []string { return nb.ClassNames }

// PredictProba implements Classifier.
func (nb *NaiveBayes) PredictProba(vector []float64) ([]float64, error) {
	if len(vector) != len(nb.FeatureNames) {
		return nil, fmt.Errorf("%w: got %d values, model expects %d", ErrShapeMismatch, len(vector), len(nb.FeatureNames))
	}
	jll := make([]float64, len(nb.ClassNames))
	for c := range nb.ClassNames {
		sum := nb.ClassLogPrior[c]
		for f, x := range vector {
			if x > 0 {
				sum += nb.FeatureLogProb[c][f]
			} else {
				sum += nb.negLogProb[c][f]
			}
		}
		jll[c] = sum
	}
	return softmax(jll), nil
}

// Importance scores each feature by how much P(x=1|class) varies across classes.
func (nb *NaiveBayes) Importance() map[string]float64 {
	out := make(map[string]float64, len(nb.FeatureNames))
	for f, name := range nb.FeatureNames {
		lo, hi := 1.0, 0.0
		for c := range nb.ClassNames {
			p := math.Exp(nb.FeatureLogProb[c][f])
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
		out[name] = hi - lo
	}
	return out
}

// Save writes the artifact as indented JSON.
func (nb *NaiveBayes) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nb); err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	return nil
}

func softmax(logits []float64) []float64 {
	maxv := math.Inf(-1)
	for _, v := range logits {
		maxv = math.Max(maxv, v)
	}
	out := make([]float64, len(logits))
	var total float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxv)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
