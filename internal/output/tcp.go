package output

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"

	"acarsgo/internal/acars"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// acarsServiceType is the DNS-SD service type advertised for the TCP
// line sink, mirroring the teacher's dns_sd.go announcing its own
// "_kiss-tnc._tcp" service for the same reason: let listeners on the
// LAN find the port without static configuration.
const acarsServiceType = "_acars-oxide._tcp"

// TCPSink broadcasts one text line per assembled message to every
// connected client. No ZeroMQ library exists anywhere in the example
// pack, and the Rust source this spec was distilled from never
// actually implemented its ZMQ output path either (see DESIGN.md) —
// this discoverable line sink is what stands in its place.
type TCPSink struct {
	q      *unboundedQueue
	ln     net.Listener
	logger *log.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	cancel context.CancelFunc
}

func NewTCPSink(addr, serviceName string, logger *log.Logger) (*TCPSink, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &TCPSink{
		q:      newUnboundedQueue(),
		ln:     ln,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}

	go s.acceptLoop()
	go s.run()

	if err := s.advertise(serviceName); err != nil && logger != nil {
		logger.Warn("dns-sd advertise failed", "err", err)
	}

	return s, nil
}

func (s *TCPSink) advertise(name string) error {
	_, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}

	sv, err := dnssd.NewService(dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: acarsServiceType,
		Port: port,
	})
	if err != nil {
		return err
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return err
	}
	if _, err := rp.Add(sv); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := rp.Respond(ctx); err != nil && s.logger != nil {
			s.logger.Warn("dns-sd responder stopped", "err", err)
		}
	}()
	return nil
}

func (s *TCPSink) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
	}
}

func (s *TCPSink) run() {
	for m := range s.q.out {
		s.broadcast(formatMessage(m) + "\n")
	}
}

func (s *TCPSink) broadcast(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		if _, err := io.WriteString(c, line); err != nil {
			c.Close()
			delete(s.conns, c)
		}
	}
}

func (s *TCPSink) Send(m acars.AssembledMessage) {
	s.q.Send(m)
}

func (s *TCPSink) Close() error {
	s.q.Close()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	return s.ln.Close()
}
