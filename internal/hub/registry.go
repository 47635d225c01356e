package hub

import "sync"

// Registry is the in-memory map of user ID to live connections. It is
// the only shared mutable state in the streaming core; every mutation
// and lookup goes through the mutex so that first-connection and
// became-empty transitions are detected atomically with the mutation
// itself, never as a separate check-then-act.
//
// Invariant: a user ID key exists iff its connection set is non-empty.
// Empty sets are pruned inside Deregister, which is what makes "last
// connection closed" observable for presence broadcasts.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]map[*Client]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[int64]map[*Client]struct{}),
	}
}

// Register adds a connection to the user's set and reports whether it
// is the user's first live connection.
func (r *Registry) Register(userID int64, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	return !ok
}

// Deregister removes a connection from the user's set and reports
// whether the set became empty as a result. Removing a connection that
// is not present is a no-op; duplicate teardown signals racing each
// other must not produce a second offline transition.
func (r *Registry) Deregister(userID int64, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

// ConnectionsFor returns a snapshot of the user's live connections.
// Unknown users yield an empty slice, never an error.
func (r *Registry) ConnectionsFor(userID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// UserIDs returns a snapshot of all user IDs with at least one live
// connection, for broadcast fan-out.
func (r *Registry) UserIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// ConnectionCount returns the total number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.conns {
		n += len(set)
	}
	return n
}
