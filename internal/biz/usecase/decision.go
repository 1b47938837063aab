package usecase

import "math/rand/v2"

// Decider flips the weighted coin for keyword hits
type Decider struct {
	intN func(n int) int
}

// NewDecider creates a decider. intN must return a uniform value in
// [0,n); nil uses math/rand/v2.
func NewDecider(intN func(n int) int) *Decider {
	if intN == nil {
		intN = rand.IntN
	}
	return &Decider{intN: intN}
}

// Decide draws from [1,100] and acts iff the draw is at most chance
func (d *Decider) Decide(chance int) bool {
	draw := d.intN(100) + 1
	return draw <= chance
}
