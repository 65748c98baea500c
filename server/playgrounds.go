package server

import (
	"sync"
	"time"

	"github.com/NextMind-AI/dashsync/chat"
	"github.com/google/uuid"
)

// playground is one open chat pane.
type playground struct {
	id           string
	channel      string
	synchronizer *chat.Synchronizer
	// lastSeen is guarded by playgrounds.mu.
	lastSeen time.Time
}

func (p *playground) response() PlaygroundResponse {
	return PlaygroundResponse{
		ID:       p.id,
		Channel:  p.channel,
		Snapshot: p.synchronizer.Snapshot(),
	}
}

type playgrounds struct {
	mu    sync.RWMutex
	items map[string]*playground
	now   func() time.Time
}

func newPlaygrounds() *playgrounds {
	return &playgrounds{items: make(map[string]*playground), now: time.Now}
}

func (p *playgrounds) add(channel string, s *chat.Synchronizer) *playground {
	pg := &playground{id: uuid.NewString(), channel: channel, synchronizer: s, lastSeen: p.now()}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[pg.id] = pg
	return pg
}

// get returns the playground and marks it as seen.
func (p *playgrounds) get(id string) (*playground, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pg, ok := p.items[id]
	if ok {
		pg.lastSeen = p.now()
	}
	return pg, ok
}

// closeIdle closes and removes playgrounds not seen for ttl, returning
// their ids.
func (p *playgrounds) closeIdle(ttl time.Duration) []string {
	p.mu.Lock()
	cutoff := p.now().Add(-ttl)
	var idle []*playground
	for id, pg := range p.items {
		if pg.lastSeen.Before(cutoff) {
			idle = append(idle, pg)
			delete(p.items, id)
		}
	}
	p.mu.Unlock()

	ids := make([]string, 0, len(idle))
	for _, pg := range idle {
		pg.synchronizer.Close()
		ids = append(ids, pg.id)
	}
	return ids
}

func (p *playgrounds) remove(id string) (*playground, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pg, ok := p.items[id]
	delete(p.items, id)
	return pg, ok
}

func (p *playgrounds) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

func (p *playgrounds) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pg := range p.items {
		pg.synchronizer.Close()
		delete(p.items, id)
	}
}
