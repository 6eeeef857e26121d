package session

import (
	"sync"
	"time"
)

// EventType names the kind of state change a Session just underwent
// (SPEC_FULL.md §C.4): every subscribed client sees every session's
// events, not just one session's.
type EventType string

const (
	EventCreated     EventType = "session.created"
	EventDestroyed   EventType = "session.destroyed"
	EventBuilt       EventType = "session.built"
	EventBuildFailed EventType = "session.build_failed"
)

// Event is broadcast to every subscribed websocket client.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Warnings  []string  `json:"warnings,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Broadcaster is the hub api/websocket.go's read/write pumps subscribe
// to, grounded on the teacher's api/broadcaster.go: Register hands out a
// per-client channel, Publish fans an event out to every registered
// client without letting a slow reader block the publisher.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan Event]struct{})}
}

// Register returns a channel that receives every future event and an
// unregister func the caller must invoke once (typically deferred) when
// the client disconnects.
func (b *Broadcaster) Register() (ch chan Event, unregister func()) {
	ch = make(chan Event, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.clients[ch]; ok {
				delete(b.clients, ch)
				close(ch)
			}
		})
	}
}

// Publish fans evt out to every registered client. A client whose
// channel is already full is dropped rather than blocking the
// publisher, matching the teacher's broadcaster backpressure policy.
func (b *Broadcaster) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- evt:
		default:
			delete(b.clients, ch)
			close(ch)
		}
	}
}
