package classifier

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

const trainingCSV = `itching,skin_rash,cough,high_fever,chills,prognosis,
1,1,0,0,0,Fungal infection,
1,1,0,0,0,Fungal infection,
1,0,0,0,0,Fungal infection,
0,0,1,1,0,Common Cold,
0,0,1,0,1,Common Cold,
0,0,0,1,1,Malaria,
0,0,0,1,1,Malaria,
`

func trainModel(t *testing.T) *NaiveBayes {
	t.Helper()
	nb, err := Train(strings.NewReader(trainingCSV))
	if err != nil {
		t.Fatalf("failed to train model: %v", err)
	}
	return nb
}

func TestTrainShape(t *testing.T) {
	nb := trainModel(t)
	if got := nb.Features(); len(got) != 5 || got[0] != "itching" || got[4] != "chills" {
		t.Errorf("unexpected features: %v", got)
	}
	want := []string{"Common Cold", "Fungal infection", "Malaria"}
	got := nb.Classes()
	if len(got) != len(want) {
		t.Fatalf("expected classes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("class %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPredict(t *testing.T) {
	nb := trainModel(t)
	tests := []struct {
		name   string
		vector []float64
		want   string
	}{
		{"skin symptoms", []float64{1, 1, 0, 0, 0}, "Fungal infection"},
		{"fever and chills", []float64{0, 0, 0, 1, 1}, "Malaria"},
		{"cough", []float64{0, 0, 1, 0, 0}, "Common Cold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Predict(nb, tt.vector)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Label != tt.want {
				t.Errorf("expected %q, got %q", tt.want, p.Label)
			}
			if p.Confidence <= 0 || p.Confidence > 1 {
				t.Errorf("confidence out of range: %v", p.Confidence)
			}
		})
	}
}

func TestPredictProbaSumsToOne(t *testing.T) {
	nb := trainModel(t)
	probs, err := nb.PredictProba([]float64{1, 0, 1, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("expected probabilities to sum to 1, got %v", sum)
	}
}

func TestShapeMismatch(t *testing.T) {
	nb := trainModel(t)
	if _, err := nb.PredictProba([]float64{1, 0}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}

	_, err := Vectorize(nb, models.FeatureVector{"itching": 1})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for short vector, got %v", err)
	}
	_, err = Vectorize(nb, models.FeatureVector{"itching": 1, "skin_rash": 0, "cough": 0, "high_fever": 0, "headache": 0})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for foreign key, got %v", err)
	}
}

func TestVectorizeFollowsModelOrder(t *testing.T) {
	nb := trainModel(t)
	vec, err := Vectorize(nb, models.FeatureVector{"chills": 1, "itching": 0, "skin_rash": 0, "cough": 1, "high_fever": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 0, 1, 0, 1}
	for i := range want {
		if vec[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, vec)
		}
	}
}

func TestPredictOffline(t *testing.T) {
	if _, err := Predict(nil, nil); !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	nb := trainModel(t)
	var buf bytes.Buffer
	if err := nb.Save(&buf); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	loaded, err := Load(buf.Bytes())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	p, err := Predict(loaded, []float64{1, 1, 0, 0, 0})
	if err != nil || p.Label != "Fungal infection" {
		t.Errorf("expected loaded model to predict Fungal infection, got %+v err=%v", p, err)
	}
}

func TestLoadRejectsInvalidArtifacts(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing fields", `{"features": ["a"]}`},
		{"positive log prob", `{"features":["a"],"classes":["x"],"class_log_prior":[0],"feature_log_prob":[[0.5]]}`},
		{"row length", `{"features":["a","b"],"classes":["x"],"class_log_prior":[0],"feature_log_prob":[[-0.5]]}`},
		{"duplicate feature", `{"features":["a","A"],"classes":["x"],"class_log_prior":[0],"feature_log_prob":[[-0.5,-0.5]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestImportance(t *testing.T) {
	nb := trainModel(t)
	imp := nb.Importance()
	if len(imp) != 5 {
		t.Fatalf("expected 5 scores, got %d", len(imp))
	}
	if imp["itching"] <= 0 {
		t.Errorf("expected itching to be discriminative, got %v", imp["itching"])
	}
}

func TestTrainRequiresLabel(t *testing.T) {
	if _, err := Train(strings.NewReader("a,b\n1,0\n")); err == nil {
		t.Error("expected error when prognosis column is missing")
	}
}
