package oplock

import (
	"context"
	"sync"
	"time"
)

// DefaultBreakTimeout is the interval MS-SMB2 3.3.6.5 documents as the
// Windows default ("unresponsive client") before a break is force
// revoked instead of waited on.
const DefaultBreakTimeout = 35 * time.Second

// Manager owns every legacy oplock and every lease currently granted
// across the server, and runs the break-notify/break-ack state
// machine for both.
type Manager struct {
	mu    sync.Mutex
	files map[string]*fileState

	// leaseGroups tracks every lease key currently attached to a given
	// file, so a newly presented key can be conflict-checked against
	// every other key already cached on that same file.
	leaseGroups map[string]*leaseGroup
	// leaseIndex resolves a bare LeaseKey (as carried on a break ack,
	// which has no FileId) straight to its state without a file key.
	leaseIndex map[[16]byte]*leaseState

	notifier     Notifier
	breakTimeout time.Duration

	// Metrics records break counts for observability. Nil disables
	// recording; set directly after NewManager since it's an optional
	// ambient concern, not part of the break state machine itself.
	Metrics BreakRecorder
}

// BreakRecorder receives oplock/lease break counts for metrics export.
// internal/metrics.Collector implements this.
type BreakRecorder interface {
	RecordOplockBreak(breakType string)
}

// NewManager builds an empty Manager. notifier may be nil, in which
// case breaks are tracked but never delivered (tests, or a manager used
// purely to replay durable-handle state).
func NewManager(notifier Notifier, breakTimeout time.Duration) *Manager {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if breakTimeout <= 0 {
		breakTimeout = DefaultBreakTimeout
	}
	return &Manager{
		files:        make(map[string]*fileState),
		leaseGroups:  make(map[string]*leaseGroup),
		leaseIndex:   make(map[[16]byte]*leaseState),
		notifier:     notifier,
		breakTimeout: breakTimeout,
	}
}

// RequestOplock runs the grant policy for a CREATE asking for a legacy
// oplock on key (the backend's stable identity for the target file).
// Directories never get an oplock. An attribute-only open never
// triggers a break and is never itself granted caching, since it isn't
// looking at file data.
func (m *Manager) RequestOplock(ctx context.Context, key string, h Holder, requested Level, isDirectory, writeAccess, attributeOnly bool) Level {
	if isDirectory || requested == LevelNone {
		return LevelNone
	}
	if attributeOnly {
		return LevelNone
	}

	m.mu.Lock()
	st, ok := m.files[key]
	if !ok {
		st = &fileState{readers: make(map[uint64]*Holder)}
		m.files[key] = st
	}

	if st.exclusive == nil && len(st.readers) == 0 {
		m.grantFresh(st, h, requested)
		m.mu.Unlock()
		return requested
	}

	if st.exclusive != nil {
		existing := st.exclusive
		breakTo := LevelNone
		if !writeAccess {
			breakTo = LevelII
		}
		waiter := m.beginBreak(st, breakTo)
		m.mu.Unlock()

		m.notifier.NotifyOplockBreak(existing.SessionID, existing.ID, breakTo)
		m.waitForBreak(ctx, waiter)

		m.mu.Lock()
		defer m.mu.Unlock()
		if breakTo == LevelII {
			st.readers[h.ID.Volatile] = &h
			if requested == LevelNone {
				return LevelNone
			}
			return LevelII
		}
		m.grantFresh(st, h, requested)
		return requested
	}

	// Only LevelII readers hold the file.
	if writeAccess {
		waiter := m.beginBreak(st, LevelNone)
		existingReaders := make([]*Holder, 0, len(st.readers))
		for _, r := range st.readers {
			existingReaders = append(existingReaders, r)
		}
		m.mu.Unlock()

		for _, r := range existingReaders {
			m.notifier.NotifyOplockBreak(r.SessionID, r.ID, LevelNone)
		}
		m.waitForBreak(ctx, waiter)

		m.mu.Lock()
		defer m.mu.Unlock()
		st.readers = make(map[uint64]*Holder)
		m.grantFresh(st, h, requested)
		return requested
	}

	// Newcomer is read-only: shares the existing LevelII readers.
	defer m.mu.Unlock()
	if requested == LevelExclusive || requested == LevelBatch || requested == LevelII {
		st.readers[h.ID.Volatile] = &h
		return LevelII
	}
	return LevelNone
}

// grantFresh assigns requested to h on a file with no existing holder.
// Caller holds m.mu.
func (m *Manager) grantFresh(st *fileState, h Holder, requested Level) {
	switch requested {
	case LevelExclusive, LevelBatch:
		st.exclusive = &h
		st.exclLevel = requested
	case LevelII:
		st.readers[h.ID.Volatile] = &h
	}
}

// beginBreak marks st as breaking toward toLevel and returns the
// waiter callers should block on. Caller holds m.mu; the returned
// waiter is only safe to wait on after unlocking.
func (m *Manager) beginBreak(st *fileState, toLevel Level) *breakWaiter {
	st.breaking = true
	st.breakToLevel = toLevel
	st.waiter = newBreakWaiter(time.Now())
	if m.Metrics != nil {
		m.Metrics.RecordOplockBreak(toLevel.String())
	}
	return st.waiter
}

// waitForBreak blocks until the break is acknowledged (or force-revoked
// by the scanner), or ctx is done, whichever comes first. A context
// deadline does not itself revoke the break — the scanner owns that —
// it just stops this particular caller from blocking forever.
func (m *Manager) waitForBreak(ctx context.Context, w *breakWaiter) {
	select {
	case <-w.ackCh:
	case <-ctx.Done():
	case <-time.After(m.breakTimeout):
	}
}

// AcknowledgeOplockBreak applies a client's break-ack for key, moving
// the previous exclusive/batch holder's level down to newLevel (or
// dropping it from the reader set if newLevel is None) and waking
// anyone blocked in RequestOplock waiting on this break.
func (m *Manager) AcknowledgeOplockBreak(key string, volatileID uint64, newLevel Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.files[key]
	if !ok || !st.breaking {
		return ErrNotBreaking
	}
	if st.exclusive != nil && st.exclusive.ID.Volatile == volatileID {
		h := st.exclusive
		st.exclusive = nil
		if newLevel == LevelII {
			st.readers[h.ID.Volatile] = h
		}
	}
	st.breaking = false
	if st.waiter != nil {
		st.waiter.done()
		st.waiter = nil
	}
	return nil
}

// Detach removes a holder from a file's oplock state on CLOSE, without
// triggering any break.
func (m *Manager) Detach(key string, volatileID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.files[key]
	if !ok {
		return
	}
	if st.exclusive != nil && st.exclusive.ID.Volatile == volatileID {
		st.exclusive = nil
	}
	delete(st.readers, volatileID)
	if st.exclusive == nil && len(st.readers) == 0 && !st.breaking {
		delete(m.files, key)
	}
}

// CurrentOplockLevel reports the level granted to a specific holder, for
// diagnostics and for computing the level to report back on a durable
// reconnect.
func (m *Manager) CurrentOplockLevel(key string, volatileID uint64) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.files[key]
	if !ok {
		return LevelNone
	}
	if st.exclusive != nil && st.exclusive.ID.Volatile == volatileID {
		return st.exclLevel
	}
	if _, ok := st.readers[volatileID]; ok {
		return LevelII
	}
	return LevelNone
}

// DurableReconnectGrant is the oplock level [MS-SMB2] 3.3.5.9.8 hands a
// successful DHnQ/DHnC reconnect: unconditionally Batch, regardless of
// what any other open on the file is currently doing, since the
// reconnecting client is by definition the only one that was ever
// talking to this handle.
func DurableReconnectGrant() Level { return LevelBatch }
