package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"acarsgo/internal/acars"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// FileSink writes one line per assembled message into a date-patterned
// log file, rolling to a new file whenever the formatted name changes
// — the same daily-log-name feature as the teacher's log.go, but
// driven by github.com/lestrrat-go/strftime instead of hand-rolled
// date formatting.
type FileSink struct {
	dir     string
	pattern *strftime.Strftime
	q       *unboundedQueue
	logger  *log.Logger

	currentName string
	currentFile *os.File
}

// NewFileSink creates a sink writing into dir, naming files by
// expanding pattern (e.g. "acars-%Y%m%d.log") against the current
// time on every write.
func NewFileSink(dir, pattern string, logger *log.Logger) (*FileSink, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}
	s := &FileSink{dir: dir, pattern: p, q: newUnboundedQueue(), logger: logger}
	go s.run()
	return s, nil
}

func (s *FileSink) run() {
	for m := range s.q.out {
		if err := s.writeLine(m); err != nil && s.logger != nil {
			s.logger.Warn("file sink write failed", "err", err)
		}
	}
}

func (s *FileSink) writeLine(m acars.AssembledMessage) error {
	name := s.pattern.FormatString(time.Now())
	if name != s.currentName {
		if s.currentFile != nil {
			s.currentFile.Close()
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			s.currentFile = nil
			s.currentName = ""
			return err
		}
		s.currentFile = f
		s.currentName = name
	}
	_, err := fmt.Fprintln(s.currentFile, formatMessage(m))
	return err
}

func (s *FileSink) Send(m acars.AssembledMessage) {
	s.q.Send(m)
}

func (s *FileSink) Close() error {
	s.q.Close()
	if s.currentFile != nil {
		return s.currentFile.Close()
	}
	return nil
}
