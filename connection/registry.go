package connection

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns one poller per channel setting.
type Registry struct {
	endpoint Endpoint
	opts     Options

	mu      sync.Mutex
	pollers map[string]*Poller
}

func NewRegistry(endpoint Endpoint, opts Options) *Registry {
	return &Registry{
		endpoint: endpoint,
		opts:     opts.withDefaults(),
		pollers:  make(map[string]*Poller),
	}
}

// Get returns the poller for settingID, creating it on first use. A new
// poller starts from the last persisted snapshot when the store has one.
func (r *Registry) Get(ctx context.Context, settingID string) (*Poller, error) {
	settingID = strings.TrimSpace(settingID)
	if settingID == "" {
		return nil, ErrEmptySettingID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pollers[settingID]; ok {
		return p, nil
	}

	p := NewPoller(settingID, r.endpoint, r.opts)
	if r.opts.Store != nil {
		saved, found, err := r.opts.Store.Load(ctx, settingID)
		if err != nil {
			log.Warn().Err(err).Str("setting_id", settingID).Msg("Failed to load persisted connection session")
		} else if found {
			p.restore(saved)
		}
	}
	r.pollers[settingID] = p
	return p, nil
}

// Lookup returns an existing poller without creating one.
func (r *Registry) Lookup(settingID string) (*Poller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pollers[strings.TrimSpace(settingID)]
	return p, ok
}

// Remove cancels and forgets the poller for settingID.
func (r *Registry) Remove(settingID string) {
	r.mu.Lock()
	p, ok := r.pollers[settingID]
	delete(r.pollers, settingID)
	r.mu.Unlock()

	if ok {
		p.Cancel()
	}
}

// CancelAll stops every poll loop. Pollers stay registered.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	pollers := make([]*Poller, 0, len(r.pollers))
	for _, p := range r.pollers {
		pollers = append(pollers, p)
	}
	r.mu.Unlock()

	for _, p := range pollers {
		p.Cancel()
	}
	r.opts.Tasks.StopAll()
}

// ActiveLoops reports how many poll loops are running.
func (r *Registry) ActiveLoops() int {
	return r.opts.Tasks.Count()
}

func (r *Registry) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]Session, 0, len(r.pollers))
	for _, p := range r.pollers {
		sessions = append(sessions, p.Session())
	}
	return sessions
}
