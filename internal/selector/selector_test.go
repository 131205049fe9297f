package selector

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

var keys = []string{"cough", "headache", "high_fever", "chills", "fatigue"}

func vector(present ...string) models.FeatureVector {
	v := models.FeatureVector{}
	for _, k := range keys {
		v[k] = 0
	}
	for _, k := range present {
		v[k] = 1
	}
	return v
}

func TestRandomExcludesConfirmed(t *testing.T) {
	s := NewRandom(keys, rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 20; i++ {
		got := s.Next(vector("cough", "headache"), 2)
		if len(got) != 2 {
			t.Fatalf("expected 2 keys, got %v", got)
		}
		if got[0] == got[1] {
			t.Fatalf("expected distinct keys, got %v", got)
		}
		for _, k := range got {
			if k == "cough" || k == "headache" {
				t.Fatalf("confirmed key %q selected", k)
			}
		}
	}
}

func TestRandomSmallPool(t *testing.T) {
	s := NewRandom(keys, nil)
	got := s.Next(vector("cough", "headache", "high_fever", "chills"), 2)
	if len(got) != 1 || got[0] != "fatigue" {
		t.Errorf("expected only fatigue, got %v", got)
	}
	if got := s.Next(vector(keys...), 2); len(got) != 0 {
		t.Errorf("expected empty result when everything is confirmed, got %v", got)
	}
	if got := s.Next(vector(), 0); got != nil {
		t.Errorf("expected nil for zero count, got %v", got)
	}
}

func TestRandomReasksDenied(t *testing.T) {
	s := NewRandom([]string{"cough", "chills"}, nil)
	v := models.FeatureVector{"cough": 0, "chills": 1} // cough denied earlier
	got := s.Next(v, 2)
	if len(got) != 1 || got[0] != "cough" {
		t.Errorf("expected denied key to stay eligible, got %v", got)
	}
}

func TestRandomConcurrentUse(t *testing.T) {
	s := NewRandom(keys, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Next(vector(), 2)
			}
		}()
	}
	wg.Wait()
}

func TestImportanceRanking(t *testing.T) {
	weights := map[string]float64{"cough": 0.1, "headache": 0.9, "high_fever": 0.5, "chills": 0.5}
	s := NewImportance(keys, weights)

	got := s.Next(vector(), 3)
	want := []string{"headache", "high_fever", "chills"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	got = s.Next(vector("headache"), 1)
	if len(got) != 1 || got[0] != "high_fever" {
		t.Errorf("expected high_fever after headache confirmed, got %v", got)
	}
}
