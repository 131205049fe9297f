// Package selector decides which unresolved symptoms to ask about next.
package selector

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

// Selector picks up to count feature keys to ask about, given the current vector.
type Selector interface {
	Next(features models.FeatureVector, count int) []string
}

// candidates returns the keys from pool not confirmed present in features.
// Denied keys stay eligible; the vector does not tell them apart from unasked ones.
func candidates(pool []string, features models.FeatureVector) []string {
	out := make([]string, 0, len(pool))
	seen := make(map[string]bool, len(pool))
	for _, k := range pool {
		if seen[k] || features[k] == 1 {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Random shuffles the eligible pool.
type Random struct {
	keys []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random selector over keys. A nil rng uses a randomly seeded source.
func NewRandom(keys []string, rng *rand.Rand) *Random {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Random{keys: append([]string(nil), keys...), rng: rng}
}

// Next implements Selector.
func (r *Random) Next(features models.FeatureVector, count int) []string {
	pool := candidates(r.keys, features)
	if count <= 0 || len(pool) == 0 {
		return nil
	}
	r.mu.Lock()
	r.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	r.mu.Unlock()
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}

// Importance ranks the eligible pool by a per-feature weight, highest first.
// Ties keep pool order.
type Importance struct {
	keys    []string
	weights map[string]float64
}

// NewImportance returns an Importance selector over keys.
func NewImportance(keys []string, weights map[string]float64) *Importance {
	return &Importance{keys: append([]string(nil), keys...), weights: weights}
}

// Next implements Selector.
func (s *Importance) Next(features models.FeatureVector, count int) []string {
	pool := candidates(s.keys, features)
	if count <= 0 || len(pool) == 0 {
		return nil
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return s.weights[pool[i]] > s.weights[pool[j]]
	})
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}
