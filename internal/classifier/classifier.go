// Package classifier loads the trained disease model and turns a symptom vector into a prediction.
package classifier

import (
	"errors"
	"fmt"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

var (
	// ErrShapeMismatch means the vector does not line up with the model's declared features.
	ErrShapeMismatch = errors.New("feature vector does not match model input shape")
	// ErrOffline is returned when no model is loaded.
	ErrOffline = errors.New("classifier offline")
)

// Classifier is a trained model over binary symptom features.
type Classifier interface {
	// Features returns the feature keys in the exact order PredictProba expects.
	Features() []string
	// Classes returns the labels indexed like the PredictProba output.
	Classes() []string
	// PredictProba returns one probability per class.
	PredictProba(vector []float64) ([]float64, error)
}

// Predict runs c on vector and returns the most probable class.
func Predict(c Classifier, vector []float64) (models.Prediction, error) {
	if c == nil {
		return models.Prediction{}, ErrOffline
	}
	probs, err := c.PredictProba(vector)
	if err != nil {
		return models.Prediction{}, err
	}
	classes := c.Classes()
	if len(probs) == 0 || len(probs) != len(classes) {
		return models.Prediction{}, fmt.Errorf("%w: %d probabilities for %d classes", ErrShapeMismatch, len(probs), len(classes))
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return models.Prediction{Label: classes[best], Confidence: probs[best]}, nil
}

// Vectorize lays out features in the classifier's declared order.
// Every declared feature must be present in features.
func Vectorize(c Classifier, features models.FeatureVector) ([]float64, error) {
	order := c.Features()
	if len(order) != len(features) {
		return nil, fmt.Errorf("%w: model has %d features, session has %d", ErrShapeMismatch, len(order), len(features))
	}
	vec := make([]float64, len(order))
	for i, key := range order {
		v, ok := features[key]
		if !ok {
			return nil, fmt.Errorf("%w: session is missing feature %q", ErrShapeMismatch, key)
		}
		vec[i] = float64(v)
	}
	return vec, nil
}
