package oplock

import (
	"context"
	"time"
)

// RequestLease runs the grant policy for a CREATE presenting a
// RqLs lease create context. key identifies the target file or
// directory; leaseKey is the client-generated 128-bit key from the
// request, shared across every open the client attaches to the same
// cached state.
//
// Requests for an invalid state (Write or Handle alone, or any Write
// bit on a directory) are downgraded to the nearest valid state rather
// than rejected outright, matching how Windows servers degrade grants
// instead of failing the open over a caching hint.
func (m *Manager) RequestLease(ctx context.Context, key string, leaseKey [16]byte, h Holder, requested LeaseState, isDirectory, writeAccess bool) (LeaseState, uint16) {
	requested = sanitizeLeaseState(requested, isDirectory)

	m.mu.Lock()
	grp, ok := m.leaseGroups[key]
	if !ok {
		grp = newLeaseGroup()
		m.leaseGroups[key] = grp
	}
	l, ok := grp.byKey[leaseKey]
	if !ok {
		l = &leaseState{fileKey: key, key: leaseKey, holders: make(map[uint64]*Holder)}
		grp.byKey[leaseKey] = l
		m.leaseIndex[leaseKey] = l
	}

	if len(l.holders) > 0 {
		// Same key re-open: widen this lease's own grant, no conflict
		// check needed since it already coexists with every other key
		// cached on this file.
		l.state = widenLeaseState(l.state, requested)
		l.holders[h.ID.Volatile] = &h
		epoch := l.epoch
		m.mu.Unlock()
		return l.state, epoch
	}

	var conflicting []*leaseState
	for otherKey, other := range grp.byKey {
		if otherKey == leaseKey {
			continue
		}
		if other.conflictsWith(requested) {
			conflicting = append(conflicting, other)
		}
	}

	if len(conflicting) == 0 {
		l.state = requested
		l.holders[h.ID.Volatile] = &h
		epoch := l.epoch
		m.mu.Unlock()
		return l.state, epoch
	}

	breakTo := LeaseStateNone
	if !writeAccess && requested == LeaseStateRead {
		breakTo = LeaseStateRead
	}
	waiters := make([]*breakWaiter, 0, len(conflicting))
	type pendingNotify struct {
		holders  []*Holder
		oldState LeaseState
	}
	notifies := make([]pendingNotify, 0, len(conflicting))
	for _, other := range conflicting {
		waiters = append(waiters, m.beginLeaseBreak(other, breakTo))
		hs := make([]*Holder, 0, len(other.holders))
		for _, hh := range other.holders {
			hs = append(hs, hh)
		}
		notifies = append(notifies, pendingNotify{holders: hs, oldState: other.state})
	}
	m.mu.Unlock()

	for _, n := range notifies {
		for _, hh := range n.holders {
			m.notifier.NotifyLeaseBreak(hh.SessionID, leaseKey, n.oldState, breakTo)
		}
	}
	for _, w := range waiters {
		m.waitForBreak(ctx, w)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l.state = requested
	l.holders[h.ID.Volatile] = &h
	return l.state, l.epoch
}

func (m *Manager) beginLeaseBreak(l *leaseState, toState LeaseState) *breakWaiter {
	l.breaking = true
	l.breakToState = toState
	l.waiter = newBreakWaiter(time.Now())
	return l.waiter
}

// AcknowledgeLeaseBreak applies a client's lease-break-ack, finalizing
// the lease at newState and waking anyone blocked in RequestLease.
func (m *Manager) AcknowledgeLeaseBreak(leaseKey [16]byte, newState LeaseState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leaseIndex[leaseKey]
	if !ok || !l.breaking {
		return ErrNotBreaking
	}
	l.state = newState
	l.breaking = false
	l.epoch++
	if newState == LeaseStateNone {
		l.holders = make(map[uint64]*Holder)
		m.pruneLeaseLocked(l)
	}
	if l.waiter != nil {
		l.waiter.done()
		l.waiter = nil
	}
	return nil
}

// DetachLease removes one holder from a lease on CLOSE. The lease
// itself (and its cached state) survives as long as at least one
// holder remains attached; [MS-SMB2] leases outlive any single handle.
func (m *Manager) DetachLease(leaseKey [16]byte, volatileID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaseIndex[leaseKey]
	if !ok {
		return
	}
	delete(l.holders, volatileID)
	if len(l.holders) == 0 && !l.breaking {
		m.pruneLeaseLocked(l)
	}
}

// pruneLeaseLocked drops an empty, non-breaking lease from both the
// per-file group and the global index. Caller holds m.mu.
func (m *Manager) pruneLeaseLocked(l *leaseState) {
	delete(m.leaseIndex, l.key)
	if grp, ok := m.leaseGroups[l.fileKey]; ok {
		delete(grp.byKey, l.key)
		if len(grp.byKey) == 0 {
			delete(m.leaseGroups, l.fileKey)
		}
	}
}

// CurrentLeaseState reports a lease key's granted state, for
// diagnostics and FileId-less lease lookups.
func (m *Manager) CurrentLeaseState(leaseKey [16]byte) (LeaseState, uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaseIndex[leaseKey]
	if !ok {
		return LeaseStateNone, 0, false
	}
	return l.state, l.epoch, true
}

func sanitizeLeaseState(requested LeaseState, isDirectory bool) LeaseState {
	if isDirectory {
		if requested.HasWrite() {
			requested &^= LeaseStateWrite
		}
		if IsValidDirectoryLeaseState(requested) {
			return requested
		}
		return LeaseStateNone
	}
	if IsValidFileLeaseState(requested) {
		return requested
	}
	// Write or Handle alone isn't meaningful without Read; drop to the
	// nearest valid combination instead of rejecting the open.
	if requested.HasRead() {
		return LeaseStateRead
	}
	return LeaseStateNone
}

// widenLeaseState combines two non-conflicting lease requests on the
// same key into the state both ends are entitled to cache.
func widenLeaseState(existing, requested LeaseState) LeaseState {
	return existing | requested
}
