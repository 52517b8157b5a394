package embedding

import (
	"math"

	"github.com/pathwise/pathwise-backend/internal/domain"
)

// Cosine returns the cosine similarity of a and b. Nil vectors, mismatched
// lengths, and zero magnitudes all resolve to 0 so that ranking degrades
// instead of failing on one bad candidate.
func Cosine(a, b domain.Vector) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IncrementalUpdate blends delta into current as an exponential moving
// average: decay*current[i] + weight*delta[i]. The result is not
// renormalized; magnitude is allowed to drift across many updates.
//
// A nil current returns delta as-is. A dimension mismatch also returns
// delta as-is; the second return is false in both cases so callers can
// log the mismatch without treating it as a failure.
func IncrementalUpdate(current, delta domain.Vector, weight, decay float64) (domain.Vector, bool) {
	if len(current) == 0 {
		return delta, false
	}
	if len(current) != len(delta) {
		return delta, false
	}
	out := make(domain.Vector, len(current))
	for i := range current {
		out[i] = float32(decay*float64(current[i]) + weight*float64(delta[i]))
	}
	return out, true
}
