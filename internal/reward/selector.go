// Package reward picks a break activity to surface after a completed
// focus session.
package reward

import (
	"math/rand"

	"enfoque/internal/model"
)

// Selector draws pseudo-randomly from the user's activity pool, avoiding
// a visible repeat of the previous pick on consecutive re-rolls.
type Selector struct {
	rng    *rand.Rand
	lastID string
}

// NewSelector builds a selector. rng may be nil, in which case the shared
// package source is used; tests pass a seeded one.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Next picks one activity from pool, excluding the previously returned one
// whenever the pool has more than one entry. A nil/empty pool returns
// (nil, false); the caller shows a generic encouragement message instead.
func (s *Selector) Next(pool []model.Activity) (*model.Activity, bool) {
	if len(pool) == 0 {
		return nil, false
	}
	if len(pool) == 1 {
		s.lastID = pool[0].ID
		return &pool[0], true
	}

	candidates := make([]model.Activity, 0, len(pool))
	for _, a := range pool {
		if a.ID != s.lastID {
			candidates = append(candidates, a)
		}
	}
	pick := candidates[s.intn(len(candidates))]
	s.lastID = pick.ID
	return &pick, true
}

func (s *Selector) intn(n int) int {
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}
