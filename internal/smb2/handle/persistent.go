package handle

import (
	"sync"
	"sync/atomic"
	"time"
)

// PersistentAllocator mints 64-bit persistent IDs from a process-wide
// counter, shared by every connection. Per §4.C, an ID is recycled once
// it is reclaimed: Table.Close and Table.Teardown reclaim the ID of a
// handle with no durability, resilience or persistence, and the durable
// table reclaims a parked entry's ID once its timeout has expired.
type PersistentAllocator struct {
	counter atomic.Uint64
	mu      sync.Mutex
	free    []uint64
}

// NewPersistentAllocator returns an allocator whose first Next() call
// returns 1.
func NewPersistentAllocator() *PersistentAllocator {
	return &PersistentAllocator{}
}

// Next mints a persistent ID, reusing a reclaimed one if one is
// available.
func (a *PersistentAllocator) Next() uint64 {
	a.mu.Lock()
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.mu.Unlock()
		return id
	}
	a.mu.Unlock()
	return a.counter.Add(1)
}

// Reclaim returns a persistent ID to the free list. Table.Close and
// Table.Teardown call it for non-durable handles; a durable, resilient
// or persistent handle's ID is reclaimed only by the durable table,
// when its record has expired, since until then it may still be
// reachable from a reconnect.
func (a *PersistentAllocator) Reclaim(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, id)
}

// DurableRecord is what survives a connection teardown for a handle
// that was created with durability, resilience, or persistent-handle
// semantics, keyed by its persistent ID.
type DurableRecord struct {
	PersistentID uint64
	SessionID    uint64
	TreeID       uint32
	Path         string
	IsDirectory  bool
	OplockLevel  uint8
	ExpiresAt    time.Time
}

// Expired reports whether the record's reconnect window has elapsed.
func (r DurableRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// DurableStore is the process-wide collaborator a DurableTable persists
// through. The default is an in-memory map (§6 "Persisted state: None
// required"); a process restart loses durable handles under that
// default, same as dropping the TCP connection would. An optional
// badger-backed implementation lets a deployment survive a restart
// within the reconnect window instead.
type DurableStore interface {
	Put(rec DurableRecord) error
	Get(persistentID uint64) (DurableRecord, bool, error)
	Delete(persistentID uint64) error
	All() ([]DurableRecord, error)
}

// memDurableStore is the default, in-process DurableStore.
type memDurableStore struct {
	mu      sync.RWMutex
	records map[uint64]DurableRecord
}

// NewMemDurableStore returns the default in-memory DurableStore.
func NewMemDurableStore() DurableStore {
	return &memDurableStore{records: make(map[uint64]DurableRecord)}
}

func (s *memDurableStore) Put(rec DurableRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.PersistentID] = rec
	return nil
}

func (s *memDurableStore) Get(persistentID uint64) (DurableRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[persistentID]
	return rec, ok, nil
}

func (s *memDurableStore) Delete(persistentID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, persistentID)
	return nil
}

func (s *memDurableStore) All() ([]DurableRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DurableRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

// DurableTable is the process-wide home for handles that outlive the
// connection that created them. A connection teardown moves a durable
// OpenFile here instead of discarding it; CREATE with a reconnect
// context (DHnQ/DHnC) looks it up by persistent ID.
type DurableTable struct {
	store   DurableStore
	persist *PersistentAllocator
}

// NewDurableTable wires a DurableTable to its backing store and the
// shared persistent ID allocator used to reclaim expired entries.
func NewDurableTable(store DurableStore, persist *PersistentAllocator) *DurableTable {
	if store == nil {
		store = NewMemDurableStore()
	}
	return &DurableTable{store: store, persist: persist}
}

// Park records a durable handle, called on connection teardown for any
// OpenFile with Durable, Resilient, or Persistent set.
func (t *DurableTable) Park(of *OpenFile, now time.Time) error {
	return t.store.Put(DurableRecord{
		PersistentID: of.ID.Persistent,
		SessionID:    of.SessionID,
		TreeID:       of.TreeID,
		Path:         of.Path,
		IsDirectory:  of.IsDirectory,
		OplockLevel:  of.OplockLevel,
		ExpiresAt:    now.Add(of.Timeout),
	})
}

// Reclaim looks up a persistent ID for a DHnQ/DHnC reconnect. A record
// past its ExpiresAt is treated as gone and its persistent ID is handed
// back to the allocator.
func (t *DurableTable) Reclaim(persistentID uint64, now time.Time) (DurableRecord, bool) {
	rec, ok, err := t.store.Get(persistentID)
	if err != nil || !ok {
		return DurableRecord{}, false
	}
	if rec.Expired(now) {
		_ = t.store.Delete(persistentID)
		if t.persist != nil {
			t.persist.Reclaim(persistentID)
		}
		return DurableRecord{}, false
	}
	_ = t.store.Delete(persistentID)
	return rec, true
}

// Sweep removes every expired record, reclaiming their persistent IDs.
// Meant for a periodic background janitor.
func (t *DurableTable) Sweep(now time.Time) int {
	all, err := t.store.All()
	if err != nil {
		return 0
	}
	dropped := 0
	for _, rec := range all {
		if rec.Expired(now) {
			_ = t.store.Delete(rec.PersistentID)
			if t.persist != nil {
				t.persist.Reclaim(rec.PersistentID)
			}
			dropped++
		}
	}
	return dropped
}
