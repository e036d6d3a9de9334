package handle

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownHandle is returned when an ID does not identify an open
// file; callers translate this to STATUS_FILE_CLOSED.
var ErrUnknownHandle = errors.New("handle: unknown or closed file handle")

// Table is the per-connection open-file table: it owns the
// connection's volatile ID space and looks entries up by volatile ID
// in O(1), while persistent IDs are minted from (and, on durable
// teardown, handed to) process-wide collaborators shared across every
// connection.
type Table struct {
	volatiles *VolatileAllocator
	persist   *PersistentAllocator
	durable   *DurableTable

	mu   sync.RWMutex
	open map[uint64]*OpenFile // keyed by volatile ID
}

// NewTable builds a per-connection Table. persist and durable are
// process-wide and shared across every connection's Table.
func NewTable(persist *PersistentAllocator, durable *DurableTable) *Table {
	return &Table{
		volatiles: NewVolatileAllocator(),
		persist:   persist,
		durable:   durable,
		open:      make(map[uint64]*OpenFile),
	}
}

// Insert allocates a fresh volatile/persistent ID pair for a CREATE,
// stores the OpenFile under it, and returns the assigned ID.
func (t *Table) Insert(of *OpenFile) ID {
	id := ID{
		Persistent: t.persist.Next(),
		Volatile:   t.volatiles.Allocate(),
	}
	of.ID = id

	t.mu.Lock()
	t.open[id.Volatile] = of
	t.mu.Unlock()
	return id
}

// Reconnect re-inserts an OpenFile recovered from the durable table
// under a freshly allocated volatile ID on the new connection, keeping
// its original persistent ID so the client's handle reference stays
// valid across the reconnect.
func (t *Table) Reconnect(of *OpenFile, persistentID uint64) ID {
	id := ID{
		Persistent: persistentID,
		Volatile:   t.volatiles.Allocate(),
	}
	of.ID = id

	t.mu.Lock()
	t.open[id.Volatile] = of
	t.mu.Unlock()
	return id
}

// Lookup finds the OpenFile for a volatile ID.
func (t *Table) Lookup(volatileID uint64) (*OpenFile, error) {
	t.mu.RLock()
	of, ok := t.open[volatileID]
	t.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownHandle
	}
	return of, nil
}

// Close removes a handle by volatile ID (CLOSE). The persistent ID is
// released back to the process-wide allocator only when the handle was
// not granted durability; a durable handle's persistent ID stays live
// until the durable table reclaims it after its reconnect window
// expires.
func (t *Table) Close(volatileID uint64) (*OpenFile, error) {
	t.mu.Lock()
	of, ok := t.open[volatileID]
	if ok {
		delete(t.open, volatileID)
	}
	t.mu.Unlock()
	if !ok {
		return nil, ErrUnknownHandle
	}

	t.volatiles.Release(volatileID)
	if !of.Durable && !of.Resilient && !of.Persistent {
		t.persist.Reclaim(of.ID.Persistent)
	}
	return of, nil
}

// Teardown runs on connection close: every open handle with durability
// or resilience requested is parked in the process-wide durable table
// (keyed by its persistent ID, surviving the connection); everything
// else is discarded outright and its persistent ID reclaimed
// immediately. Volatile IDs are not released to the allocator here.
func (t *Table) Teardown(now time.Time) []*OpenFile {
	t.mu.Lock()
	all := make([]*OpenFile, 0, len(t.open))
	for _, of := range t.open {
		all = append(all, of)
	}
	t.open = make(map[uint64]*OpenFile)
	t.mu.Unlock()

	parked := make([]*OpenFile, 0, len(all))
	for _, of := range all {
		if of.Durable || of.Resilient || of.Persistent {
			if t.durable != nil {
				if err := t.durable.Park(of, now); err == nil {
					parked = append(parked, of)
					continue
				}
			}
		}
		t.persist.Reclaim(of.ID.Persistent)
	}
	return parked
}

// All returns every handle currently open on this connection, for
// TREE_DISCONNECT and LOGOFF to sweep by tree or session ID.
func (t *Table) All() []*OpenFile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	all := make([]*OpenFile, 0, len(t.open))
	for _, of := range t.open {
		all = append(all, of)
	}
	return all
}

// Count reports the number of handles currently open on this
// connection, for diagnostics.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.open)
}
