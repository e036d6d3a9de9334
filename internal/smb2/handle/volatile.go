package handle

import "sync"

// VolatileAllocator hands out small per-connection volatile IDs with a
// free-list so a connection that opens and closes many handles over its
// lifetime doesn't grow its ID space unboundedly. Grounded in shape on
// the incrementing atomic counter the teacher uses for its combined
// FileId, but split out here into its own reusable free-list so volatile
// IDs stay small integers the way the distilled allocator describes.
type VolatileAllocator struct {
	mu   sync.Mutex
	free []uint64
	next uint64
}

// NewVolatileAllocator returns an allocator whose first Allocate() call
// returns 1; 0 is reserved (an all-zero FileId is never valid) and
// LastHandleMarker is never handed out.
func NewVolatileAllocator() *VolatileAllocator {
	return &VolatileAllocator{next: 1}
}

// Allocate returns a free volatile ID, reusing a released one if
// available before minting a new one.
func (a *VolatileAllocator) Allocate() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}

	id := a.next
	a.next++
	if id == LastHandleMarker {
		// Vanishingly unlikely (2^64 allocations on one connection) but
		// skip the reserved marker rather than ever hand it out.
		id = a.next
		a.next++
	}
	return id
}

// Release returns a volatile ID to the free list for reuse.
func (a *VolatileAllocator) Release(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, id)
}

// Outstanding reports how many IDs are currently allocated and not yet
// released, for diagnostics.
func (a *VolatileAllocator) Outstanding() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return (a.next - 1) - uint64(len(a.free))
}
