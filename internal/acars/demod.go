package acars

import "math"

// FLEN is the matched-filter input history length: the whole samples
// in one 1200-baud symbol period at INTRATE, plus one, per §3/§4.2.
const FLEN = INTRATE/1200 + 1

// MFLTOVER is the matched-filter oversampling factor used to build the
// tap table at finer-than-sample resolution.
const MFLTOVER = 12

// FLENO is the matched-filter tap table length.
const FLENO = FLEN*MFLTOVER + 1

// pllG and pllC are the PLL loop-filter gain and pole constants from
// §4.2; they are fixed, not configurable.
const (
	pllG = 3.8e-3
	pllC = 0.52
)

// matchedFilterTaps is the one-time half-sine matched-filter table,
// built in init() the way tables.go builds the CRC and popcount
// tables: computed once at program start, never reallocated per sample.
var matchedFilterTaps [FLENO]float64

func init() {
	mid := float64(FLENO-1) / 2
	k := 2 * math.Pi * 600 / INTRATE / MFLTOVER
	for i := range matchedFilterTaps {
		v := math.Cos(k * (float64(i) - mid))
		if v < 0 {
			v = 0
		}
		matchedFilterTaps[i] = v
	}
}

// demodState is the MSK demodulator for one ACARS channel: a
// PLL-tracked bit clock plus a matched filter over a rolling complex
// baseband history. Touched only by the device's pipeline goroutine.
type demodState struct {
	phi      float64 // VCO phase
	df       float64 // PLL frequency offset
	clk      float64 // bit-clock phase
	lvlSum   float64
	bitCount int
	s        uint32 // 4-phase bit-decision counter
	idx      int
	inb      [FLEN]complex128
}

func (d *demodState) init() {
	*d = demodState{}
}

// resetLevel clears the signal-level accumulators; the frame
// assembler calls this when a new message starts (SOH1 -> TXT).
func (d *demodState) resetLevel() {
	d.lvlSum = 0
	d.bitCount = 0
}

// signalLevel reports 10*log10(lvlSum/bitCount), the finalizer's
// signal_level per §4.3. Zero bit_count (no symbols decoded since the
// last reset) reports 0 rather than dividing by zero.
func (d *demodState) signalLevel() float64 {
	if d.bitCount == 0 {
		return 0
	}
	return 10 * math.Log10(d.lvlSum/float64(d.bitCount))
}

// flipPhase twists the I/Q decision phase; the frame assembler calls
// this on an inverted-SYN match (WAIT_SYN/SYN2 "s ^= 2" side effect).
func (d *demodState) flipPhase() {
	d.s ^= 2
}

// step runs the per-sample MSK demodulator update of §4.2. It returns
// a signed bit decision and ok=true on samples where the bit clock
// fires a matched-filter decision, and ok=false otherwise (most
// samples — the clock fires about 2400 times a second, roughly once
// every 5.2 samples at INTRATE).
func (d *demodState) step(in float64) (bit float64, ok bool) {
	sInc := 1800*2*math.Pi/INTRATE + d.df
	d.phi += sInc
	for d.phi >= 2*math.Pi {
		d.phi -= 2 * math.Pi
	}
	for d.phi < 0 {
		d.phi += 2 * math.Pi
	}

	d.inb[d.idx] = complex(in, 0) * expNegJ(d.phi)
	d.idx = (d.idx + 1) % FLEN

	d.clk += sInc
	if d.clk < 3*math.Pi/2-sInc/2 {
		return 0, false
	}
	d.clk -= 3 * math.Pi / 2

	o := int(MFLTOVER * (d.clk/sInc + 0.5))
	if o < 0 {
		o = 0
	}
	if o > MFLTOVER {
		o = MFLTOVER
	}

	var v complex128
	for j := 0; j < FLEN; j++ {
		tap := matchedFilterTaps[o+j*MFLTOVER]
		v += complex(tap, 0) * d.inb[(j+d.idx)%FLEN]
	}

	lvl := cabs(v)
	v /= complex(lvl+1e-8, 0)
	d.lvlSum += lvl * lvl / 4
	d.bitCount++

	var vo, dphi float64
	if d.s&1 != 0 {
		vo = imag(v)
		if vo >= 0 {
			dphi = -real(v)
		} else {
			dphi = real(v)
		}
	} else {
		vo = real(v)
		if vo >= 0 {
			dphi = imag(v)
		} else {
			dphi = -imag(v)
		}
	}

	bit = vo
	if d.s&2 != 0 {
		bit = -bit
	}
	d.s++

	d.df = pllC*d.df + (1-pllC)*pllG*dphi

	return bit, true
}

// expNegJ returns e^(-j*phi) without pulling in math/cmplx for a
// single sincos pair.
func expNegJ(phi float64) complex128 {
	sin, cos := math.Sincos(phi)
	return complex(cos, -sin)
}

func cabs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
