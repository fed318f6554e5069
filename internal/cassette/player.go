package cassette

import (
	"context"
	"sync/atomic"
)

// Player is an evidence source that replays a cassette. URLs not on the
// cassette yield "" and are counted as misses.
type Player struct {
	bodies map[string]string
	misses atomic.Int64
	served atomic.Int64
}

// NewPlayer returns a player for c.
func NewPlayer(c *Cassette) *Player {
	bodies := make(map[string]string, len(c.Interactions))
	for _, i := range c.Interactions {
		if _, dup := bodies[i.URL]; !dup {
			bodies[i.URL] = i.Body
		}
	}
	return &Player{bodies: bodies}
}

func (p *Player) Get(_ context.Context, url string) string {
	body, ok := p.bodies[url]
	if !ok {
		p.misses.Add(1)
		return ""
	}
	p.served.Add(1)
	return body
}

// Misses returns how many requests had no recorded interaction.
func (p *Player) Misses() int64 { return p.misses.Load() }

// Served returns how many requests were answered from the cassette.
func (p *Player) Served() int64 { return p.served.Load() }
