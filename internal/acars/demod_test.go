package acars

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestDemodZeroInputIdempotent checks §8 invariant 5: feeding zeros
// never emits a nonzero bit decision, and two fresh demodulators fed
// the same zero-valued run reach identical state.
func TestDemodZeroInputIdempotent(t *testing.T) {
	var a, b demodState
	a.init()
	b.init()

	for i := 0; i < 5000; i++ {
		bitA, okA := a.step(0)
		bitB, okB := b.step(0)
		require.Equal(t, okA, okB)
		if okA {
			require.Zero(t, bitA)
			require.Zero(t, bitB)
		}
	}
	require.Equal(t, a, b)
}

// TestDemodNormalizationBound checks §8 invariant 6: the matched
// filter's bit decision is always drawn from a unit-normalized
// complex sample, so its magnitude can never exceed 1.
func TestDemodNormalizationBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var d demodState
		d.init()
		n := rapid.IntRange(1, 2000).Draw(t, "n")
		for i := 0; i < n; i++ {
			in := rapid.Float64Range(-4, 4).Draw(t, "in")
			bit, ok := d.step(in)
			if ok {
				require.LessOrEqual(t, math.Abs(bit), 1.0+1e-9)
			}
		}
	})
}

func TestMatchedFilterTapsNonNegative(t *testing.T) {
	for i, v := range matchedFilterTaps {
		require.GreaterOrEqual(t, v, 0.0, "tap %d", i)
	}
}
