// Package output implements the non-blocking output sinks of §5/§6:
// a console printer, a dated-file writer, and a discoverable TCP line
// broadcaster standing in for the never-implemented ZMQ path of the
// original acars-oxide source (see DESIGN.md).
package output

import (
	"fmt"
	"strings"

	"acarsgo/internal/acars"
)

// Sink receives assembled messages from every device's channels over
// a single multi-producer handle. Send must never block the caller —
// the demod goroutine that calls it must never stall on output (§5).
type Sink interface {
	Send(acars.AssembledMessage)
	Close() error
}

// formatMessage renders one assembled message as a single text line,
// the common shape every sink in this package writes.
func formatMessage(m acars.AssembledMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %.3fMHz %s %s", m.Channel, m.FrequencyMHz, m.Downlink, strings.TrimRight(m.Tail, " "))
	if m.Ack.Nack {
		fmt.Fprint(&b, " NACK")
	} else {
		fmt.Fprintf(&b, " ACK(%c)", m.Ack.BlockID)
	}
	fmt.Fprintf(&b, " %s %c", m.Label, m.BlockID)
	if m.Sublabel != "" {
		fmt.Fprintf(&b, " sub=%s", m.Sublabel)
	}
	if m.MFI != "" {
		fmt.Fprintf(&b, " mfi=%s", m.MFI)
	}
	if m.FlightID != "" {
		fmt.Fprintf(&b, " flight=%s", m.FlightID)
	}
	if m.MessageNumber != "" {
		fmt.Fprintf(&b, " msgnum=%s", m.MessageNumber)
	}
	if len(m.Text) > 0 {
		fmt.Fprintf(&b, " text=%q", string(m.Text))
	}
	fmt.Fprintf(&b, " perr=%d lvl=%.1fdB", m.ParityErrors, m.SignalLevelDB)
	return b.String()
}
