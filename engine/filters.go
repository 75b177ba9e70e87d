package engine

import (
	"sort"
	"sync"
)

// RequestType classifies outgoing engine requests for filtering purposes.
type RequestType int

const (
	RequestManifest RequestType = iota
	RequestSegment
	RequestLicense
)

// Request is an outgoing engine network request. Filters may mutate headers in place.
type Request struct {
	URI     string
	Headers map[string]string
}

// RequestFilter inspects and optionally mutates an outgoing request before it is issued.
type RequestFilter func(reqType RequestType, req *Request)

// FilterRegistry holds the registered request filters of one engine instance.
// Registration returns a handle used for exact unregistration; identical filter functions
// registered twice are tracked independently.
type FilterRegistry struct {
	mu      sync.Mutex
	nextID  int
	filters map[int]RequestFilter
}

// Register adds a request filter and returns its handle.
func (r *FilterRegistry) Register(f RequestFilter) (handle int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filters == nil {
		r.filters = make(map[int]RequestFilter)
	}
	r.nextID++
	r.filters[r.nextID] = f
	return r.nextID
}

// Unregister removes a previously registered filter. Unknown handles are ignored.
func (r *FilterRegistry) Unregister(handle int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.filters, handle)
}

// Apply runs every registered filter against a request, in registration order.
func (r *FilterRegistry) Apply(reqType RequestType, req *Request) {
	r.mu.Lock()
	handles := make([]int, 0, len(r.filters))
	for id := range r.filters {
		handles = append(handles, id)
	}
	sort.Ints(handles)
	fns := make([]RequestFilter, 0, len(handles))
	for _, id := range handles {
		fns = append(fns, r.filters[id])
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(reqType, req)
	}
}

// Len reports the number of registered filters.
func (r *FilterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filters)
}
