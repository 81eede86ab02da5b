package api

import "sync"

// SeedEvent reports a table reloaded from a seed file.
type SeedEvent struct {
	Table     string `json:"table"`
	File      string `json:"file"`
	Documents int    `json:"documents"`
}

// seedEventBuffer bounds the events queued for a slow subscriber.
const seedEventBuffer = 16

// Notifier fans seed events out to subscribers. Events for a subscriber
// whose queue is full are dropped.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan SeedEvent]struct{}
}

// NewNotifier returns a notifier without subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan SeedEvent]struct{})}
}

// Subscribe registers a subscriber. Pass the channel to Unsubscribe when done.
func (n *Notifier) Subscribe() chan SeedEvent {
	ch := make(chan SeedEvent, seedEventBuffer)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe drops the subscriber and closes its channel.
func (n *Notifier) Unsubscribe(ch chan SeedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[ch]; ok {
		delete(n.subs, ch)
		close(ch)
	}
}

// Subscribers returns the number of registered subscribers.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Publish queues ev for every subscriber without blocking.
func (n *Notifier) Publish(ev SeedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
