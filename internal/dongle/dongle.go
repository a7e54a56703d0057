// Package dongle abstracts the two ways acarsgo can pull raw I/Q bytes
// off an RTL-SDR: a direct USB connection (github.com/google/gousb) or
// a rtl_tcp server (github.com/bemasher/rtltcp). Both implementations
// satisfy Dongle so internal/scanner never cares which transport a
// given device configuration asked for.
package dongle

import (
	"context"
	"fmt"
)

// Dongle is the minimal control-and-stream surface internal/scanner
// needs from an RTL-SDR, regardless of transport.
type Dongle interface {
	Serial() string

	SetGain(tenthsDB int32) error
	SetGainAuto() error
	SetPPM(ppm int32) error
	SetCenterFreq(hz uint32) error
	SetSampleRate(hz uint32) error
	EnableBiasTee(on bool) error

	// GainTable returns the tuner's supported gains in tenths of dB,
	// ascending, for nearest-gain normalization. A nil/empty result
	// means the transport cannot report one.
	GainTable() []int32

	// ReadAsync streams fixed-size sample blocks to cb until ctx is
	// cancelled or a read fails. It blocks the calling goroutine, the
	// way rtl-sdr.h's rtlsdr_read_async does for the C library.
	ReadAsync(ctx context.Context, blockLen int, cb func([]byte)) error

	Close() error
}

// NearestGain snaps requested to the closest entry in table, returning
// requested unchanged if table is empty. This is acarsgo's gain-table
// normalization: acars-oxide's Rust core trusts the driver to clamp,
// but the plain rtl-sdr control protocol doesn't, so callers who ask
// for a gain the tuner doesn't support get silently rounded instead of
// rejected by the dongle.
func NearestGain(table []int32, requested int32) int32 {
	if len(table) == 0 {
		return requested
	}
	best := table[0]
	bestDist := abs32(requested - best)
	for _, g := range table[1:] {
		if d := abs32(requested - g); d < bestDist {
			best, bestDist = g, d
		}
	}
	return best
}

// NotFoundError is returned when no matching USB device is connected.
type NotFoundError struct {
	Serial string
}

func (e *NotFoundError) Error() string {
	if e.Serial == "" {
		return "no RTL-SDR USB device found"
	}
	return fmt.Sprintf("no RTL-SDR USB device with serial %q found", e.Serial)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
