package acars

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCenterFreqSingleChannel(t *testing.T) {
	freqs := []float64{131.55}
	require.Equal(t, quantizeChannelFreq(131.55), CenterFreqHz(freqs))
}

func TestCenterFreqMultiChannelAveragesExtremes(t *testing.T) {
	freqs := []float64{130.025, 130.45, 131.125, 131.55}
	got := CenterFreqHz(freqs)
	want := int64(math.Round((freqs[0]+freqs[len(freqs)-1])/2)) * 1e6
	require.Equal(t, want, got)
}

// TestSingleChannelWindowIsConstant covers the §8 boundary case: a
// lone channel centers on itself, so AMFreq is zero and every active
// window tap is identical.
func TestSingleChannelWindowIsConstant(t *testing.T) {
	const m = 160
	center := CenterFreqHz([]float64{131.55})
	ch := NewChannel(0, 131.55, center, m)

	require.Equal(t, ch.FreqHz, center)
	first := ch.Window[0]
	for i := 0; i < m; i++ {
		require.InDelta(t, real(first), real(ch.Window[i]), 1e-12)
		require.InDelta(t, imag(first), imag(ch.Window[i]), 1e-12)
	}
	for i := m; i < WindowLen; i++ {
		require.Equal(t, complex(0, 0), ch.Window[i])
	}
}

// TestWindowNormInvariant checks §8 invariant 2.
func TestWindowNormInvariant(t *testing.T) {
	for _, m := range []int{160, 192} {
		center := CenterFreqHz([]float64{130.025, 131.55})
		ch := NewChannel(0, 130.45, center, m)

		var sum float64
		for i := 0; i < WindowLen; i++ {
			mag := cmplx.Abs(ch.Window[i])
			sum += mag * mag
		}
		want := 1.0 / (float64(m) * 127.5 * 127.5)
		require.InDelta(t, want, sum, want*1e-9)
	}
}
