package flow

import (
	"sync"

	"github.com/BTreeMap/TriagePipe/internal/classifier"
	"github.com/BTreeMap/TriagePipe/internal/lexicon"
	"github.com/BTreeMap/TriagePipe/internal/models"
)

// testFeatures is the feature order of the mock classifier.
var testFeatures = []string{"itching", "skin_rash", "cough", "high_fever", "headache", "chills"}

const testLexiconYAML = `
- phrase: "itching"
  key: itching
  ask: "Are you experiencing any itching?"
- phrase: "skin rash"
  key: skin_rash
  ask: "Do you have a skin rash?"
- phrase: "cough"
  key: cough
  ask: "Do you have a cough?"
- phrase: "high fever"
  key: high_fever
  ask: "Do you have a high fever?"
- phrase: "headache"
  key: headache
  ask: "Do you have a headache?"
- phrase: "chills"
  key: chills
  ask: "Are you having chills?"
`

// NewTestLexicon returns a small lexicon over testFeatures.
func NewTestLexicon() *lexicon.Lexicon {
	lex, err := lexicon.Parse([]byte(testLexiconYAML), testFeatures)
	if err != nil {
		panic(err)
	}
	return lex
}

// MockClassifier returns fixed probabilities and counts predictions.
type MockClassifier struct {
	Labels []string
	Probs  []float64
	Err    error

	mu    sync.Mutex
	calls int
}

// NewMockClassifier predicts label with the given confidence.
func NewMockClassifier(label string, confidence float64) *MockClassifier {
	return &MockClassifier{
		Labels: []string{"Common Cold", label},
		Probs:  []float64{1 - confidence, confidence},
	}
}

func (m *MockClassifier) Features() []string { return testFeatures }

func (m *MockClassifier) Classes() []string { return m.Labels }

func (m *MockClassifier) PredictProba(vector []float64) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(vector) != len(testFeatures) {
		return nil, classifier.ErrShapeMismatch
	}
	return m.Probs, nil
}

// Calls returns how many predictions were made.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// orderedSelector proposes unconfirmed keys in a fixed order.
type orderedSelector struct {
	keys []string
}

func (s orderedSelector) Next(features models.FeatureVector, count int) []string {
	var out []string
	for _, k := range s.keys {
		if len(out) == count {
			break
		}
		if features[k] != 1 {
			out = append(out, k)
		}
	}
	return out
}
