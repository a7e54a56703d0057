package output

import (
	"testing"
	"time"

	"acarsgo/internal/acars"

	"github.com/stretchr/testify/require"
)

func TestUnboundedQueueFIFO(t *testing.T) {
	q := newUnboundedQueue()
	defer q.Close()

	for i := 0; i < 50; i++ {
		q.Send(acars.AssembledMessage{Channel: i})
	}

	for i := 0; i < 50; i++ {
		select {
		case m := <-q.out:
			require.Equal(t, i, m.Channel)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestUnboundedQueueSendNeverBlocksAfterClose(t *testing.T) {
	q := newUnboundedQueue()
	q.Close()

	done := make(chan struct{})
	go func() {
		q.Send(acars.AssembledMessage{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked after Close")
	}
}
