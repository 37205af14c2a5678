package supabase

import (
	"sync"

	"linkvault/internal/domain/models"
)

// AuthEventType mirrors the onAuthStateChange event names of supabase-js.
type AuthEventType string

const (
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
)

// AuthEvent is a session change observed by the auth client.
type AuthEvent struct {
	Type    AuthEventType
	UserID  string
	Session *models.Session // nil for SIGNED_OUT
}

// subscriberBuffer bounds how far a slow subscriber can lag before events are dropped.
const subscriberBuffer = 16

// Broadcaster fans auth events out to any number of subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan AuthEvent
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan AuthEvent)}
}

// Subscribe returns a channel of future events and a function that cancels the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan AuthEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan AuthEvent, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (b *Broadcaster) Publish(ev AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
