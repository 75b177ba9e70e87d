package engine

import "sync"

// Emitter is a minimal synchronous event dispatcher shared by the in-memory collaborators.
// Listener invocation happens on the emitting goroutine, mirroring the single-threaded
// event-loop model of the host environment.
type Emitter struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]Listener
}

// On subscribes a listener to an event and returns a removal function. The removal function is
// idempotent.
func (e *Emitter) On(event string, fn Listener) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string]map[int]Listener)
	}
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[int]Listener)
	}

	e.nextID++
	id := e.nextID
	e.listeners[event][id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners[event], id)
	}
}

// Emit dispatches an event with its payload to every subscribed listener.
func (e *Emitter) Emit(event string, data any) {
	e.mu.Lock()
	fns := make([]Listener, 0, len(e.listeners[event]))
	for _, fn := range e.listeners[event] {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(event, data)
	}
}
