package oplock

// leaseState is the state for one lease key on one file. A lease is
// shared across every open (even across connections) that presents the
// same LeaseKey: same key never conflicts with itself, only a distinct
// key touching the same file does.
type leaseState struct {
	fileKey string
	key     [16]byte
	state   LeaseState
	epoch   uint16

	// holders maps each open currently attached to this lease, keyed by
	// holder.ID.Volatile, to the holder record. Multiple opens (even on
	// different connections) can share one lease as long as they quote
	// the same key.
	holders map[uint64]*Holder

	breaking     bool
	breakToState LeaseState
	waiter       *breakWaiter
}

// conflictsWith reports whether a second request for otherState (on the
// same file, presenting a different lease key) requires this lease to
// break. A breaking lease is evaluated against its in-flight
// BreakToState, since that's the caching level it is actually heading
// toward.
func (l *leaseState) conflictsWith(otherState LeaseState) bool {
	effective := l.state
	if l.breaking {
		effective = l.breakToState
	}
	if effective == LeaseStateNone || otherState == LeaseStateNone {
		return false
	}
	if effective.HasWrite() && (otherState.HasRead() || otherState.HasWrite()) {
		return true
	}
	if otherState.HasWrite() && (effective.HasRead() || effective.HasWrite()) {
		return true
	}
	return false
}

// leaseGroup is every lease (one per distinct LeaseKey) currently
// attached to a single file, so a new key can be checked for conflict
// against every other key already cached on that file.
type leaseGroup struct {
	byKey map[[16]byte]*leaseState
}

func newLeaseGroup() *leaseGroup {
	return &leaseGroup{byKey: make(map[[16]byte]*leaseState)}
}
