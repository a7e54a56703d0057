package output

import "acarsgo/internal/acars"

// Fanout distributes every message to a fixed set of sinks, the single
// handle cmd/acarsgo hands to internal/scanner so the scanner never
// needs to know how many output surfaces are actually enabled.
type Fanout struct {
	sinks []Sink
}

// NewFanout wraps zero or more sinks. Sending to an empty Fanout is a
// silent no-op, the way running with every output flag off just means
// messages are decoded and dropped.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Send(m acars.AssembledMessage) {
	for _, s := range f.sinks {
		s.Send(m)
	}
}

func (f *Fanout) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
