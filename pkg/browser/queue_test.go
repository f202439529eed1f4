package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_PushNeverBlocks(t *testing.T) {
	q := newEventQueue()
	defer q.close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.push(NetworkEvent{Kind: EventLoadingFinished, RequestID: "r"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked without a consumer")
	}
}

func TestEventQueue_PreservesOrder(t *testing.T) {
	q := newEventQueue()
	defer q.close()

	ids := []string{"1", "2", "3", "4", "5"}
	for _, id := range ids {
		q.push(NetworkEvent{Kind: EventResponseReceived, RequestID: id})
	}

	for _, want := range ids {
		select {
		case ev := <-q.events():
			assert.Equal(t, want, ev.RequestID)
		case <-time.After(time.Second):
			t.Fatalf("event %s not delivered", want)
		}
	}
}

func TestEventQueue_CloseEndsEvents(t *testing.T) {
	q := newEventQueue()
	q.push(NetworkEvent{RequestID: "dropped"})
	q.close()
	q.close()

	// push after close is a no-op
	q.push(NetworkEvent{RequestID: "late"})

	deadline := time.After(time.Second)
	for {
		select {
		case ev, ok := <-q.events():
			if !ok {
				return
			}
			require.NotEqual(t, "late", ev.RequestID)
		case <-deadline:
			t.Fatal("events channel not closed")
		}
	}
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "Network.responseReceived", EventResponseReceived.String())
	assert.Equal(t, "Network.loadingFinished", EventLoadingFinished.String())
	assert.Equal(t, "EventKind(7)", EventKind(7).String())
}
