package acars

import (
	"math"
	"math/cmplx"
)

// WindowLen is the fixed allocation size for a channel's mixer window;
// only the first M entries are non-zero, per §3.
const WindowLen = 192

// Channel holds the per-ACARS-channel state that is single-owner to
// one device pipeline: the frequency-translation window, the magnitude
// ring buffer fed by the device pipeline, the MSK demodulator, and the
// frame assembler. Nothing here is shared across goroutines.
type Channel struct {
	Index     int
	FreqHz    int64   // quantized channel frequency, F_ch
	FreqMHz   float64 // original requested frequency, for message tagging
	M         int     // oversampling multiplier, window taps in use
	Window    [WindowLen]complex128
	dmBuffer  [RTLOUTBUFSZ]float32
	demod     demodState
	assembler assembler
	sink      func(AssembledMessage)
}

// NewChannel builds the mixer window and initializes the demodulator
// and frame assembler for one configured frequency, per §3 and §4.4.
//
//	F_ch = round(1e6*f / INTRATE) * INTRATE
//	AMFreq = (F_ch - F_c) * 2*pi / (INTRATE * M)
//	w[i] = exp(-j * AMFreq * i) / M / 127.5
func NewChannel(index int, freqMHz float64, centerHz int64, m int) *Channel {
	fch := quantizeChannelFreq(freqMHz)
	amFreq := float64(fch-centerHz) * 2 * math.Pi / (INTRATE * float64(m))

	ch := &Channel{
		Index:   index,
		FreqHz:  fch,
		FreqMHz: freqMHz,
		M:       m,
	}
	for i := 0; i < m; i++ {
		phase := amFreq * float64(i)
		ch.Window[i] = cmplx.Exp(complex(0, -phase)) / complex(float64(m)*127.5, 0)
	}
	ch.demod.init()
	ch.assembler.init(index, ch.demod.resetLevel, ch.demod.signalLevel, ch.demod.flipPhase)
	return ch
}

// quantizeChannelFreq rounds a frequency in MHz to the nearest INTRATE
// step, returning F_ch in Hz as specified by §3.
func quantizeChannelFreq(freqMHz float64) int64 {
	hz := freqMHz * 1e6
	steps := math.Round(hz / INTRATE)
	return int64(steps) * INTRATE
}

// CenterFreqHz computes F_c for a set of already-sorted, de-duplicated
// channel frequencies (in MHz), per §3: the single channel's own F_ch
// if there is only one, otherwise the rounded average of the extremes.
func CenterFreqHz(freqsMHz []float64) int64 {
	if len(freqsMHz) == 1 {
		return quantizeChannelFreq(freqsMHz[0])
	}
	avg := (freqsMHz[0] + freqsMHz[len(freqsMHz)-1]) / 2
	return int64(math.Round(avg)) * 1e6
}

// SetSink installs the callback used to deliver assembled messages.
// Called once at construction time from the device pipeline; never
// touched again from another goroutine (§5, per-channel state is
// single-owner).
func (c *Channel) SetSink(sink func(AssembledMessage)) {
	c.sink = sink
}

// StoreMagnitude records one channelizer output sample at position m
// of the channel's magnitude ring buffer, per §4.1 step 1b.
func (c *Channel) StoreMagnitude(m int, v float32) {
	c.dmBuffer[m] = v
}

// Demodulate runs the MSK demodulator and frame assembler over the
// first n magnitude samples buffered for this callback, per §4.1
// step 2. It must only be invoked once the buffer holds a complete
// RTLOUTBUFSZ chunk.
func (c *Channel) Demodulate(n int) {
	for i := 0; i < n; i++ {
		bit, ok := c.demod.step(float64(c.dmBuffer[i]))
		if !ok {
			continue
		}
		if msg, emit := c.assembler.pushBit(bit); emit {
			msg.FrequencyMHz = c.FreqMHz
			if c.sink != nil {
				c.sink(msg)
			}
		}
	}
}
