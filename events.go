package featureflow

import "sync"

// Event names emitted by the client.
const (
	// EventInit is emitted when the client reaches its ready state.
	EventInit = "INIT"

	// EventLoaded is emitted when a feature set has been adopted, whether
	// from a fresh cache hit, a network fetch, or offline defaults.
	EventLoaded = "LOADED"

	// EventLoadedFromCache is emitted when cached features are adopted,
	// before any network refresh.
	EventLoadedFromCache = "LOADED_FROM_CACHE"

	// EventError is emitted when a fetch fails during initialization.
	EventError = "ERROR"

	// EventUpdated is emitted after UpdateUser successfully refreshes the
	// feature set for a new user context.
	EventUpdated = "UPDATED"
)

// Callback receives the payload associated with an emitted event: the
// evaluated feature map for the loaded events, or the error for EventError.
type Callback func(payload any)

// Subscription is the token returned by Client.On and accepted by
// Client.Off. Holding the token is the only way to remove a single
// listener, which avoids any reliance on callback identity.
type Subscription struct {
	event string
	fn    Callback
}

// emitter is a minimal named-event bus. Listener callbacks run on the
// emitting goroutine.
type emitter struct {
	mu   sync.RWMutex
	subs map[string][]*Subscription
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[string][]*Subscription)}
}

func (e *emitter) on(event string, fn Callback) *Subscription {
	sub := &Subscription{event: event, fn: fn}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[event] = append(e.subs[event], sub)
	return sub
}

func (e *emitter) off(sub *Subscription) {
	if sub == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	listeners := e.subs[sub.event]
	for i, s := range listeners {
		if s == sub {
			e.subs[sub.event] = append(listeners[:i:i], listeners[i+1:]...)
			return
		}
	}
}

func (e *emitter) offAll(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, event)
}

func (e *emitter) emit(event string, payload any) {
	e.mu.RLock()
	listeners := make([]*Subscription, len(e.subs[event]))
	copy(listeners, e.subs[event])
	e.mu.RUnlock()

	for _, sub := range listeners {
		sub.fn(payload)
	}
}

func (e *emitter) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.subs)
}
