// Package registry tracks the sessions currently holding a door-open claim.
//
// It is a plain ordered set: membership checks via a map, deterministic
// iteration via an insertion-ordered slice. The registry carries no locking
// of its own; it is owned exclusively by the door machine, which serializes
// all access.
package registry

import "slices"

// Registry is an insertion-ordered set of session identifiers.
type Registry struct {
	members map[string]struct{}
	order   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{members: make(map[string]struct{})}
}

// Add records a claim for the session. Adding an existing session is a no-op,
// so repeated opens from the same holder never duplicate it.
func (r *Registry) Add(session string) {
	if _, ok := r.members[session]; ok {
		return
	}
	r.members[session] = struct{}{}
	r.order = append(r.order, session)
}

// Remove drops the session's claim. Removing an absent session is a no-op.
func (r *Registry) Remove(session string) {
	if _, ok := r.members[session]; !ok {
		return
	}
	delete(r.members, session)
	i := slices.Index(r.order, session)
	r.order = slices.Delete(r.order, i, i+1)
}

// Contains reports whether the session holds a claim.
func (r *Registry) Contains(session string) bool {
	_, ok := r.members[session]
	return ok
}

// IsEmpty reports whether no claims are held.
func (r *Registry) IsEmpty() bool {
	return len(r.order) == 0
}

// Len returns the number of claims held.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the sessions in insertion order. The slice is a copy; callers
// may keep it across later mutations. Returns nil when empty.
func (r *Registry) All() []string {
	if len(r.order) == 0 {
		return nil
	}
	return slices.Clone(r.order)
}
