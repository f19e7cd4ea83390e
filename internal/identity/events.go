package identity

import "sync"

// Event names an auth-state transition.
type Event string

const (
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
	EventUserUpdated      Event = "USER_UPDATED"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
)

// AuthChange is delivered to every listener. Session is nil for SignedOut.
type AuthChange struct {
	Event     Event
	UserID    string
	SessionID string
	Session   *Session
}

type Listener func(AuthChange)

// Broadcaster fans auth changes out to registered listeners. Listeners run
// on the emitting goroutine and must not call back into the emitter while
// holding their own locks.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a func that removes it. Calling the
// returned func more than once is safe.
func (b *Broadcaster) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broadcaster) Emit(change AuthChange) {
	b.mu.RLock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		snapshot = append(snapshot, l)
	}
	b.mu.RUnlock()

	for _, l := range snapshot {
		l(change)
	}
}

// Len reports the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
