package dispatch

import (
	"context"
	"sync"
)

// CancelRegistry maps a MessageID to the context.CancelFunc registered
// for it with Track, so a CANCEL request (which carries no body beyond
// the header) can cancel the request with that MessageID. Entries are
// keyed by MessageID only; AsyncId is not consulted. The Dispatcher
// does not call Track, so a CANCEL arriving through it finds no entry
// and leaves the named request to run to completion.
type CancelRegistry struct {
	mu      sync.Mutex
	byMsgID map[uint64]context.CancelFunc
}

// NewCancelRegistry builds an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{byMsgID: make(map[uint64]context.CancelFunc)}
}

// Track registers cancel under messageID and returns a function that
// removes the entry again, for the caller to run when the request
// completes (success, error, or already cancelled).
func (r *CancelRegistry) Track(messageID uint64, cancel context.CancelFunc) (untrack func()) {
	r.mu.Lock()
	r.byMsgID[messageID] = cancel
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.byMsgID, messageID)
		r.mu.Unlock()
	}
}

// Cancel invokes and removes the cancel function registered for
// messageID, if any is still outstanding. Returns false if the request
// already completed or was never tracked (a race the CANCEL handler
// treats as a no-op, never an error).
func (r *CancelRegistry) Cancel(messageID uint64) bool {
	r.mu.Lock()
	cancel, ok := r.byMsgID[messageID]
	if ok {
		delete(r.byMsgID, messageID)
	}
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}
