package filter

import (
	"math/rand/v2"
	"sync"
)

// Sampler draws the visible option subset for each category.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler backed by an unseeded source.
func NewSampler() *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSampler is deterministic; meant for tests.
func NewSeededSampler(seed1, seed2 uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Sample returns min(size, len(pool)) distinct elements of pool drawn without
// replacement. The order of the result is random.
func (s *Sampler) Sample(pool []string, size int) []string {
	n := min(size, len(pool))
	if n <= 0 {
		return []string{}
	}

	s.mu.Lock()
	perm := s.rng.Perm(len(pool))
	s.mu.Unlock()

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// SampleAll builds a fresh option set for every category in the catalog.
func (s *Sampler) SampleAll(c *Catalog) map[string][]string {
	options := make(map[string][]string, len(c.categories))
	for _, cat := range c.categories {
		options[cat.Key] = s.Sample(cat.Pool, cat.SampleSize)
	}
	return options
}
