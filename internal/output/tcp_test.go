package output

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTCPSinkBroadcastsToConnectedClient(t *testing.T) {
	s, err := NewTCPSink("127.0.0.1:0", "test-acars", nil)
	require.NoError(t, err)
	defer s.Close()

	conn, err := net.Dial("tcp", s.ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Give acceptLoop a moment to register the connection before the
	// message is broadcast.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.conns) == 1
	}, time.Second, time.Millisecond)

	s.Send(testMessage())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "N534UW")
}
