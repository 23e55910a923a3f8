package realtime

import (
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned when registering a client that skipped the handshake
var ErrNotAuthenticated = errors.New("client is not authenticated")

// Registry maps live connections to their user and company delivery scopes.
//
// It starts empty, is filled only by connects and drained only by disconnects,
// and is never persisted: after a restart clients reconnect and the registry is
// rebuilt from those connections alone.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]map[*Client]struct{}
	byCompany map[string]map[*Client]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]map[*Client]struct{}),
		byCompany: make(map[string]map[*Client]struct{}),
	}
}

// Add joins an authenticated client to its user and company scopes and opens it
func (r *Registry) Add(c *Client) error {
	if c.State() != StateAuthenticated {
		return ErrNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := c.open(); err != nil {
		return err
	}
	join(r.byUser, c.UserID, c)
	join(r.byCompany, c.CompanyID, c)
	return nil
}

// Remove drops one connection and closes it. Other connections of the same user stay.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leave(r.byUser, c.UserID, c)
	leave(r.byCompany, c.CompanyID, c)
	c.close()
}

// UserClients returns a snapshot of the user's live connections
func (r *Registry) UserClients(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.byUser[userID])
}

// CompanyClients returns a snapshot of every live connection in a company
func (r *Registry) CompanyClients(companyID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.byCompany[companyID])
}

// IsOnline reports whether the user has at least one live connection
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, set := range r.byUser {
		n += len(set)
	}
	return n
}

// All returns a snapshot of every live connection
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Client
	for _, set := range r.byUser {
		out = append(out, snapshot(set)...)
	}
	return out
}

func join(index map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := index[key]
	if !ok {
		set = make(map[*Client]struct{})
		index[key] = set
	}
	set[c] = struct{}{}
}

func leave(index map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(index, key)
	}
}

func snapshot(set map[*Client]struct{}) []*Client {
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
