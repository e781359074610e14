// Package server tracks the display names claimed by connected sessions and
// enforces their uniqueness via the Registry type.
package server

// Registry is the set of currently claimed display names, kept in claim
// order. It is owned by the hub goroutine, which serializes all mutation,
// so it carries no locking of its own.
type Registry struct {
	names []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// TryClaim records name as claimed if it is currently free and returns true;
// it returns false when the name is already taken. Matching is exact and
// case-sensitive. The empty name is never claimable.
func (r *Registry) TryClaim(name string) bool {
	if name == "" {
		return false
	}
	for _, claimed := range r.names {
		if claimed == name {
			return false
		}
	}
	r.names = append(r.names, name)
	return true
}

// Release removes name from the claimed set. Releasing an absent or empty
// name is a no-op.
func (r *Registry) Release(name string) {
	if name == "" {
		return
	}
	for i, claimed := range r.names {
		if claimed == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			return
		}
	}
}

// Usernames returns a snapshot of all claimed names in claim order.
func (r *Registry) Usernames() []string {
	snapshot := make([]string, len(r.names))
	copy(snapshot, r.names)
	return snapshot
}

// Len reports the number of claimed names.
func (r *Registry) Len() int {
	return len(r.names)
}
