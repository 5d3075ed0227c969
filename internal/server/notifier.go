package server

import (
	"sync"
	"time"
)

// Event tells subscribers the catalog was reloaded.
type Event struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
	// Error is set when the reload failed.
	Error string `json:"error,omitempty"`
}

// Event kinds.
const (
	EventReloaded     = "reloaded"
	EventReloadFailed = "reload_failed"
)

// notifier fans events out to subscribers. Slow subscribers miss events
// rather than block the publisher.
type notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[chan Event]struct{})}
}

// subscribe returns a channel receiving events. Call unsubscribe when done.
func (n *notifier) subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan Event) {
	n.mu.Lock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
	n.mu.Unlock()
}

func (n *notifier) publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (n *notifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
