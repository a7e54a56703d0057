package output

import (
	"bytes"
	"os"
	"testing"
	"time"

	"acarsgo/internal/acars"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func testMessage() acars.AssembledMessage {
	return acars.AssembledMessage{
		Channel:      3,
		FrequencyMHz: 131.55,
		Tail:         "N534UW ",
		Ack:          acars.AckStatus{Nack: true},
		Label:        "Q0",
		BlockID:      '6',
		Downlink:     acars.AirToGround,
	}
}

func TestConsoleSinkWritesLine(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})

	s := NewConsoleSink(logger)
	defer s.Close()

	s.Send(testMessage())

	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("N534UW"))
	}, time.Second, time.Millisecond)
}

func TestFileSinkWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(dir, "acars-%Y%m%d.log", nil)
	require.NoError(t, err)
	defer s.Close()

	s.Send(testMessage())

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) == 0 {
			return false
		}
		content, err := os.ReadFile(dir + "/" + entries[0].Name())
		return err == nil && bytes.Contains(content, []byte("N534UW"))
	}, time.Second, time.Millisecond)
}
