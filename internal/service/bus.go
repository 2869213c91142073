package service

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/style"
)

// EventKind distinguishes bus events.
type EventKind string

const (
	EventStyle EventKind = "style"
	EventPopup EventKind = "popup"
	EventScale EventKind = "scale"
	EventView  EventKind = "view"
)

// Event is a change the viewer should reflect. Session is empty for
// changes every viewer sees. A scale event carries the style of every
// ruled layer so a viewer that missed style events catches up.
type Event struct {
	Kind    EventKind
	Session string
	LayerID string
	Style   style.Style
	Scale   float64
	Styles  map[string]style.Style
	Target  orb.Point
	Zoom    float64
	Popup   *search.Popup
}

// EventBus is a fan-out pub/sub for map change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers without blocking. A subscriber
// with a full buffer misses the event.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of active subscribers.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// ScaleEvent builds the scale event for the result of an applied scale.
func ScaleEvent(scale float64, applied []style.Applied) Event {
	styles := make(map[string]style.Style, len(applied))
	for _, a := range applied {
		styles[a.LayerID] = a.Style
	}
	return Event{Kind: EventScale, Scale: scale, Styles: styles}
}
