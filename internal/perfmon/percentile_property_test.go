package perfmon

import (
	"math"
	"sort"
	"testing"

	"pgregory.net/rapid"
)

// For any sample, each percentile is the ceiling-indexed element of the
// sorted sample and percentiles never decrease with the level.
func TestProperty_PercentileFormula(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sample := rapid.SliceOfN(rapid.Float64Range(0, 60000), 1, 200).Draw(rt, "sample")
		sorted := append([]float64(nil), sample...)
		sort.Float64s(sorted)

		prev := math.Inf(-1)
		for _, p := range []float64{50, 75, 90, 95, 99} {
			got := Percentile(sorted, p)
			idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
			if idx < 0 {
				idx = 0
			}
			if got != sorted[idx] {
				rt.Fatalf("p%v = %v, want sorted[%d] = %v", p, got, idx, sorted[idx])
			}
			if got < prev {
				rt.Fatalf("p%v = %v decreased from %v", p, got, prev)
			}
			prev = got
		}
	})
}

func TestPercentile_Bounds(t *testing.T) {
	if got := Percentile(nil, 50); got != 0 {
		t.Fatalf("empty sample: got %v", got)
	}
	if got := Percentile([]float64{3}, 0); got != 3 {
		t.Fatalf("p0 clamps to first element: got %v", got)
	}
	if got := Percentile([]float64{1, 2}, 150); got != 2 {
		t.Fatalf("p150 clamps to last element: got %v", got)
	}
}
