package cassette

import (
	"context"
	"sync"
	"time"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// Recorder passes fetches through to an upstream source and records the
// first non-empty body for each URL, in call order. Empty bodies are not
// recorded, so a replay of the same URL also yields no data.
type Recorder struct {
	upstream detective.EvidenceSource
	now      func() time.Time

	mu           sync.Mutex
	interactions []Interaction
	seen         map[string]bool
}

// NewRecorder wraps upstream.
func NewRecorder(upstream detective.EvidenceSource) *Recorder {
	return &Recorder{upstream: upstream, now: time.Now, seen: make(map[string]bool)}
}

func (r *Recorder) Get(ctx context.Context, url string) string {
	body := r.upstream.Get(ctx, url)
	if body == "" {
		return body
	}
	r.mu.Lock()
	if !r.seen[url] {
		r.seen[url] = true
		r.interactions = append(r.interactions, Interaction{URL: url, Body: body, RecordedAt: r.now().UTC()})
	}
	r.mu.Unlock()
	return body
}

// Cassette returns the recording so far under name.
func (r *Recorder) Cassette(name string) *Cassette {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Interaction, len(r.interactions))
	copy(out, r.interactions)
	return &Cassette{Name: name, Interactions: out}
}
