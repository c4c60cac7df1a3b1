package events

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestBus() *Bus {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewBus(logger)
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	sub := bus.Subscribe(4)
	bus.Publish(EventGateOpened, map[string]interface{}{"gateId": "g1"})

	select {
	case event := <-sub:
		if event.Type != EventGateOpened {
			t.Errorf("Expected %s, got %s", EventGateOpened, event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Error("Expected event timestamp to be set")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	first := bus.Subscribe(4)
	second := bus.Subscribe(4)

	bus.Publish(EventAccessGranted, nil)

	for i, sub := range []<-chan Event{first, second} {
		select {
		case event := <-sub:
			if event.Type != EventAccessGranted {
				t.Errorf("Subscriber %d got unexpected event %s", i, event.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d timed out", i)
		}
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	sub := bus.Subscribe(1)

	// The second publish must not block even though nobody is reading
	done := make(chan struct{})
	go func() {
		bus.Publish(EventGateOpened, nil)
		bus.Publish(EventGateClosed, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// Only the first event fit in the buffer
	event := <-sub
	if event.Type != EventGateOpened {
		t.Errorf("Expected first event retained, got %s", event.Type)
	}
	select {
	case event := <-sub:
		t.Errorf("Expected second event dropped, got %s", event.Type)
	default:
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := newTestBus()

	sub := bus.Subscribe(4)
	bus.Close()

	if _, ok := <-sub; ok {
		t.Error("Expected subscriber channel to be closed")
	}

	// Publishing after close must not panic
	bus.Publish(EventGateOpened, nil)

	// Subscribing after close returns a closed channel
	late := bus.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("Expected late subscription to be closed immediately")
	}
}
