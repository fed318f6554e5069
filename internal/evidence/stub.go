package evidence

import (
	"context"
	"sync"
)

// Stub serves bodies from a fixed URL map and records every request.
// Unknown URLs yield "". Safe for concurrent use.
type Stub struct {
	mu       sync.Mutex
	bodies   map[string]string
	requests []string
}

// NewStub returns a stub serving bodies.
func NewStub(bodies map[string]string) *Stub {
	cp := make(map[string]string, len(bodies))
	for k, v := range bodies {
		cp[k] = v
	}
	return &Stub{bodies: cp}
}

func (s *Stub) Get(_ context.Context, url string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, url)
	return s.bodies[url]
}

// Set adds or replaces the body for url.
func (s *Stub) Set(url, body string) {
	s.mu.Lock()
	s.bodies[url] = body
	s.mu.Unlock()
}

// Requests returns the requested URLs in call order.
func (s *Stub) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}
