package output

import (
	"acarsgo/internal/acars"

	"github.com/charmbracelet/log"
)

// ConsoleSink logs every assembled message at Info level, the
// "output-to-console" surface of §6's configuration.
type ConsoleSink struct {
	q      *unboundedQueue
	logger *log.Logger
}

func NewConsoleSink(logger *log.Logger) *ConsoleSink {
	s := &ConsoleSink{q: newUnboundedQueue(), logger: logger}
	go s.run()
	return s
}

func (s *ConsoleSink) run() {
	for m := range s.q.out {
		if s.logger != nil {
			s.logger.Info(formatMessage(m))
		}
	}
}

func (s *ConsoleSink) Send(m acars.AssembledMessage) {
	s.q.Send(m)
}

func (s *ConsoleSink) Close() error {
	s.q.Close()
	return nil
}
