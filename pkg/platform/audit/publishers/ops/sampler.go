package ops

import (
	"math/rand"
	"sync"
)

// Sampler decides which operational events are worth recording. Chatty
// actions (restores, token rotations) can be dialed down per action without
// touching the rate for everything else.
type Sampler struct {
	mu        sync.RWMutex
	fallback  float64
	perAction map[string]float64
}

// NewSampler returns a sampler that keeps events with the given probability.
// Rates are clamped to [0, 1].
func NewSampler(rate float64) *Sampler {
	return &Sampler{
		fallback:  clampRate(rate),
		perAction: make(map[string]float64),
	}
}

// ShouldSample reports whether an event with this action should be kept.
func (s *Sampler) ShouldSample(action string) bool {
	s.mu.RLock()
	rate, ok := s.perAction[action]
	if !ok {
		rate = s.fallback
	}
	s.mu.RUnlock()

	return rand.Float64() < rate //nolint:gosec // sampling needs no crypto rand
}

// SetRate overrides the keep probability for one action.
func (s *Sampler) SetRate(action string, rate float64) {
	s.mu.Lock()
	s.perAction[action] = clampRate(rate)
	s.mu.Unlock()
}

// SetDefaultRate changes the keep probability for actions with no override.
func (s *Sampler) SetDefaultRate(rate float64) {
	s.mu.Lock()
	s.fallback = clampRate(rate)
	s.mu.Unlock()
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	default:
		return rate
	}
}
