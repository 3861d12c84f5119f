package remote

import (
	"context"
	"maps"
	"net/http"
	"sync"
)

// Route is a scripted answer for one URL.
type Route struct {
	Status int
	Body   Body
	// Err, when set, simulates a transport failure.
	Err error
}

// Stub is a scripted Requester keyed by URL. It records every request it
// receives. Unknown URLs answer 404 with an error body.
type Stub struct {
	mu       sync.Mutex
	routes   map[string][]Route
	requests []Request
	gate     chan struct{}
}

// NewStub creates an empty stub.
func NewStub() *Stub {
	return &Stub{routes: make(map[string][]Route)}
}

// On appends a route for url. When a URL has several routes they are
// answered in order; the last one repeats.
func (s *Stub) On(url string, r Route) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[url] = append(s.routes[url], r)
	return s
}

// Respond is shorthand for On(url, Route{Status: status, Body: JSONBody(body)}).
func (s *Stub) Respond(url string, status int, body string) *Stub {
	return s.On(url, Route{Status: status, Body: JSONBody(body)})
}

// Fail scripts a transport failure for url.
func (s *Stub) Fail(url string, err error) *Stub {
	return s.On(url, Route{Err: err})
}

// Hold makes every request block until the returned release function is
// called. It lets tests observe pending state.
func (s *Stub) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Do answers from the script.
func (s *Stub) Do(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{URL: req.URL, Header: maps.Clone(req.Header)})
	gate := s.gate
	route, ok := s.next(req.URL)
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Response{}, &TransportError{URL: req.URL, Err: ctx.Err()}
		}
	}

	if !ok {
		return Response{Status: http.StatusNotFound, Body: JSONBody(`{"error":"not found"}`)}, nil
	}
	if route.Err != nil {
		return Response{}, &TransportError{URL: req.URL, Err: route.Err}
	}
	return Response{Status: route.Status, Body: route.Body}, nil
}

// next pops the route for url. Caller holds mu.
func (s *Stub) next(url string) (Route, bool) {
	routes := s.routes[url]
	if len(routes) == 0 {
		return Route{}, false
	}
	r := routes[0]
	if len(routes) > 1 {
		s.routes[url] = routes[1:]
	}
	return r, true
}

// Requests returns a copy of every request received, in order.
func (s *Stub) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
