package identifier

import "sync"

// DisplayIndex caches displayId -> systemId mappings.
// Display ids are lossy and may collide; the most recent registration wins.
// Safe for concurrent use.
type DisplayIndex struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewDisplayIndex creates an empty index.
func NewDisplayIndex() *DisplayIndex {
	return &DisplayIndex{entries: make(map[string]string)}
}

// Register records that displayID currently refers to systemID.
func (x *DisplayIndex) Register(displayID, systemID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[displayID] = systemID
}

// Lookup returns the system id last registered for displayID.
func (x *DisplayIndex) Lookup(displayID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.entries[displayID]
	return id, ok
}

// Len returns the number of cached display ids.
func (x *DisplayIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Entries returns a copy of the cached mappings.
func (x *DisplayIndex) Entries() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string]string, len(x.entries))
	for k, v := range x.entries {
		out[k] = v
	}
	return out
}
