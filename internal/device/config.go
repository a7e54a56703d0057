// Package device validates per-dongle configuration and runs the
// device pipeline of §4.1: turning one USB sample buffer into
// per-channel magnitude sequences and driving each channel's
// demodulator.
package device

import (
	"sort"
)

// DecoderKind selects which protocol a channel decodes. Only ACARS is
// implemented; VDL2 and HFDL are enumerated but rejected at
// construction time, matching spec.md's non-goals.
type DecoderKind int

const (
	DecoderACARS DecoderKind = iota
	DecoderVDL2
	DecoderHFDL
)

func (k DecoderKind) String() string {
	switch k {
	case DecoderACARS:
		return "ACARS"
	case DecoderVDL2:
		return "VDL2"
	case DecoderHFDL:
		return "HFDL"
	default:
		return "unknown"
	}
}

const (
	minFreqMHz  = 108.0
	maxFreqMHz  = 137.0
	maxSpread   = 2.0
	defaultM    = 160
	defaultGain = 420 // tenths of dB; >500 means AGC
	agcSentinel = 500
)

// Config is the immutable-after-construction per-device configuration
// of §3.
type Config struct {
	Serial      string
	RemoteAddr  string // rtl_tcp host:port; empty means open the dongle directly over USB
	PPM         int32
	GainTenths  int32 // 0 means "use default"; >500 means AGC
	BiasTee     bool
	M           int // 160 or 192; 0 means "use default"
	Frequencies []float64
	Decoder     DecoderKind
}

// Validated returns a normalized copy of c: frequencies deduplicated
// and sorted ascending (§3 invariant), defaults applied, and bounds
// checked. Dedup happens before the spread check, matching
// oxide-rtlsdr's open_sdr ordering.
func (c Config) Validated() (Config, error) {
	out := c
	out.M = c.M
	if out.M == 0 {
		out.M = defaultM
	}
	if out.M != 160 && out.M != 192 {
		return Config{}, &ConfigError{Serial: c.Serial, Reason: "M must be 160 or 192"}
	}

	out.GainTenths = c.GainTenths
	if out.GainTenths == 0 {
		out.GainTenths = defaultGain
	}

	if len(c.Frequencies) == 0 {
		return Config{}, &NoFrequencyProvidedError{Serial: c.Serial}
	}
	if len(c.Frequencies) > 16 {
		return Config{}, &ConfigError{Serial: c.Serial, Reason: "at most 16 frequencies per device"}
	}

	freqs := dedupSorted(c.Frequencies)
	for _, f := range freqs {
		if f < minFreqMHz || f > maxFreqMHz {
			return Config{}, &ConfigError{Serial: c.Serial, Reason: "frequency outside airband [108.0,137.0]"}
		}
	}

	spread := freqs[len(freqs)-1] - freqs[0]
	if spread > maxSpread {
		return Config{}, &FrequencySpreadTooLargeError{Serial: c.Serial, Spread: spread}
	}
	out.Frequencies = freqs

	if out.Decoder != DecoderACARS {
		return Config{}, &ConfigError{Serial: c.Serial, Reason: "only ACARS decoding is implemented"}
	}

	return out, nil
}

// ConfigError is a catch-all for configuration problems that aren't
// one of the named fatal error types in §7.
type ConfigError struct {
	Serial string
	Reason string
}

func (e *ConfigError) Error() string {
	return "device " + e.Serial + ": " + e.Reason
}

func dedupSorted(freqs []float64) []float64 {
	sorted := append([]float64(nil), freqs...)
	sort.Float64s(sorted)

	out := sorted[:0:0]
	for i, f := range sorted {
		if i == 0 || f != sorted[i-1] {
			out = append(out, f)
		}
	}
	return out
}

// IsAGC reports whether gain tenths-of-dB selects automatic gain
// control rather than a fixed gain value, per §3's ">500" sentinel.
func (c Config) IsAGC() bool {
	return c.GainTenths > agcSentinel
}
