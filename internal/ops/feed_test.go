package ops

import (
	"testing"
	"time"
)

func TestFeed_PublishReachesSubscriber(t *testing.T) {
	f := NewFeed()
	ch := f.subscribe()
	defer f.unsubscribe(ch)

	f.Publish("command", "/check @some_channel")

	select {
	case ev := <-ch:
		if ev.Kind != "command" {
			t.Errorf("Kind = %q, want command", ev.Kind)
		}
		if ev.Detail != "/check @some_channel" {
			t.Errorf("Detail = %q", ev.Detail)
		}
	case <-time.After(time.Second):
		t.Fatal("event never arrived")
	}
}

func TestFeed_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	f := NewFeed()
	ch := f.subscribe()
	defer f.unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		// Publish far more events than the queue holds; must not block.
		for i := 0; i < subscriberQueueSize*4; i++ {
			f.Publish("command", "burst")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestFeed_UnsubscribeStopsDelivery(t *testing.T) {
	f := NewFeed()
	ch := f.subscribe()
	f.unsubscribe(ch)

	if f.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0", f.SubscriberCount())
	}
}
