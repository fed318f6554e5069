package detective

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo deduplicates fetches of the same URL within one run. Concurrent
// requests for a URL share a single upstream call. A memo must not outlive
// its run; the engine creates a fresh one every time Run is called.
//
// An empty body is memoized like any other result, except when the caller's
// context was already done: that absence says nothing about the URL. A
// caller that shared such a fetch while its own context is live fetches
// again.
type Memo struct {
	upstream EvidenceSource
	group    singleflight.Group

	mu     sync.RWMutex
	bodies map[string]string
	hits   int
}

// Memoize wraps upstream in a new, empty Memo.
func Memoize(upstream EvidenceSource) *Memo {
	return &Memo{upstream: upstream, bodies: make(map[string]string)}
}

func (m *Memo) Get(ctx context.Context, url string) string {
	m.mu.Lock()
	if body, ok := m.bodies[url]; ok {
		m.hits++
		m.mu.Unlock()
		return body
	}
	m.mu.Unlock()

	v, _, shared := m.group.Do(url, func() (any, error) {
		return m.fetch(ctx, url), nil
	})
	body := v.(string)
	if body == "" && shared && ctx.Err() == nil && !m.memoized(url) {
		// The shared call ran on a context that ended; ours is still live.
		return m.fetch(ctx, url)
	}
	return body
}

func (m *Memo) fetch(ctx context.Context, url string) string {
	body := m.upstream.Get(ctx, url)
	if body != "" || ctx.Err() == nil {
		m.mu.Lock()
		m.bodies[url] = body
		m.mu.Unlock()
	}
	return body
}

func (m *Memo) memoized(url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bodies[url]
	return ok
}

// Len returns the number of memoized URLs.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bodies)
}

// Hits returns how many Get calls were answered from the memo.
func (m *Memo) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}
