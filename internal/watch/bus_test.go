package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	b := NewBus()
	ch1, cancel1 := b.Subscribe(4)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(4)
	defer cancel2()

	b.Publish(Exit{Reason: "done"})

	select {
	case e := <-ch1:
		assert.Equal(t, Exit{Reason: "done"}, e)
	case <-time.After(time.Second):
		t.Fatal("ch1 never received the event")
	}
	select {
	case e := <-ch2:
		assert.Equal(t, Exit{Reason: "done"}, e)
	case <-time.After(time.Second):
		t.Fatal("ch2 never received the event")
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(4)
	cancel()

	b.Publish(Exit{Reason: "done"})

	select {
	case e, ok := <-ch:
		require.False(t, ok, "channel should be closed or empty, got %v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_FullBufferDropsRatherThanBlocks(t *testing.T) {
	b := NewBus()
	_, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Exit{Reason: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}
