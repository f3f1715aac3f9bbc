package clients

import (
	"sync"

	"sechub/pkg/driver"
	"sechub/pkg/errors"
	"sechub/pkg/protocol"
)

// AudiencePredicate selects which sessions receive a broadcast envelope.
type AudiencePredicate func(*Client) bool

// Registry owns the live session set and holds the single shared driver
// handle. Broadcast fan-out carries no ordering guarantee between
// sessions; each session's own frame order is FIFO through its queue.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	drv     driver.Driver
}

// NewRegistry creates a registry bound to the shared driver handle.
func NewRegistry(drv driver.Driver) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		drv:     drv,
	}
}

// Driver returns the shared driver handle.
func (r *Registry) Driver() driver.Driver { return r.drv }

// Add registers a session.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
}

// Remove forgets a session by id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, errors.ErrClientNotFound
	}
	return c, nil
}

// All returns a snapshot of the live session set.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends the envelope to every connected session the audience
// predicate admits. A nil predicate admits everyone.
func (r *Registry) Broadcast(event protocol.OutgoingEvent, audience AudiencePredicate) {
	for _, c := range r.All() {
		if !c.IsConnected() {
			continue
		}
		if audience != nil && !audience(c) {
			continue
		}
		c.SendEvent(event)
	}
}

// Sweep drops sessions whose transport has closed. Disconnected sessions
// are already excluded from every audience; this reclaims the entries.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, c := range r.clients {
		if !c.IsConnected() {
			delete(r.clients, id)
			removed++
		}
	}
	return removed
}
