package websocket

import (
	"sync"
)

// Registry is the index from user id to that user's live authenticated
// connections. A connection appears here if and only if it has completed the
// auth handshake and has not yet closed; the hub is the only mutator.
//
// The interface exists so a clustered deployment can swap the in-memory
// implementation for one backed by a shared store without touching call
// sites.
type Registry interface {
	// Add inserts the connection into the user's set, creating the set if
	// absent. Adding the same connection twice is a no-op. Reports whether
	// the user went from zero connections to one, decided under the
	// registry lock so concurrent adds elect exactly one first.
	Add(userID string, c *Conn) (first bool)

	// Remove deletes the connection from the user's set and drops the user
	// key entirely when the set empties. Removing an absent connection is a
	// no-op so close/removal races are harmless. Reports whether this
	// removal emptied the user's set.
	Remove(userID string, c *Conn) (last bool)

	// Get returns a snapshot of the user's live connections, empty when the
	// user is offline.
	Get(userID string) []*Conn

	// Users returns the ids of all users with at least one live connection.
	Users() []string

	// Len returns the number of users with at least one live connection.
	Len() int
}

type memoryRegistry struct {
	mu    sync.RWMutex
	users map[string]map[*Conn]struct{}
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() Registry {
	return &memoryRegistry{
		users: make(map[string]map[*Conn]struct{}),
	}
}

func (r *memoryRegistry) Add(userID string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		conns = make(map[*Conn]struct{})
		r.users[userID] = conns
	}
	conns[c] = struct{}{}
	return !ok
}

func (r *memoryRegistry) Remove(userID string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		return false
	}
	if _, present := conns[c]; !present {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

func (r *memoryRegistry) Get(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.users[userID]
	if !ok {
		return nil
	}
	snapshot := make([]*Conn, 0, len(conns))
	for c := range conns {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

func (r *memoryRegistry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

func (r *memoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
