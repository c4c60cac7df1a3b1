package events

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType identifies the kind of event published on the bus
type EventType string

const (
	EventAccessGranted EventType = "access.granted"
	EventAccessDenied  EventType = "access.denied"
	EventGateOpened    EventType = "gate.opened"
	EventGateClosed    EventType = "gate.closed"
	EventGateOverride  EventType = "gate.override"
)

// Event is one notification published on the bus
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Bus is an in-process fan-out of access and gate events. Delivery is
// best-effort: a subscriber that falls behind drops events rather than
// blocking publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	logger      *logrus.Logger
	closed      bool
}

// NewBus creates an event bus
func NewBus(logger *logrus.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a new subscriber with the given channel buffer
func (b *Bus) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch
	}

	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers an event to all subscribers without blocking
func (b *Bus) Publish(eventType EventType, data interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.WithField("event_type", eventType).Warn("Event dropped, subscriber buffer full")
		}
	}
}

// Close shuts down the bus and all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
