package game

import (
	"math"
	"math/rand/v2"
	"strconv"
)

// DefaultHitRadius is the click tolerance in normalized units, roughly 7% of
// the image size.
const DefaultHitRadius = 7.0

// Match returns the undiscovered difference hit by a click at p.
// A difference is hit when its distance to p is strictly less than radius.
// When several are hit the nearest wins; exact ties go to the lowest id.
func Match(p Point, diffs []Difference, radius float64) (Difference, bool) {
	var (
		best     Difference
		bestDist = math.Inf(1)
		hit      bool
	)
	for _, d := range diffs {
		if d.Found {
			continue
		}
		dist := math.Hypot(d.X-p.X, d.Y-p.Y)
		if dist >= radius {
			continue
		}
		if !hit || dist < bestDist || (dist == bestDist && lessID(d.ID, best.ID)) {
			best, bestDist, hit = d, dist, true
		}
	}
	return best, hit
}

// lessID orders ids numerically when both parse as integers, lexically otherwise.
func lessID(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// PickHint chooses a random undiscovered difference. It returns false when
// every difference has been found.
func PickHint(diffs []Difference, rng *rand.Rand) (Difference, bool) {
	var open []Difference
	for _, d := range diffs {
		if !d.Found {
			open = append(open, d)
		}
	}
	if len(open) == 0 {
		return Difference{}, false
	}
	if rng == nil {
		return open[rand.IntN(len(open))], true
	}
	return open[rng.IntN(len(open))], true
}
