package handle

import (
	"testing"
	"time"
)

func TestIDBytesRoundTrip(t *testing.T) {
	id := ID{Persistent: 0x0102030405060708, Volatile: 0x1112131415161718}
	b := id.Bytes()
	got := ParseID(b)
	if got != id {
		t.Errorf("round trip = %+v, want %+v", got, id)
	}
}

func TestIDIsLastHandle(t *testing.T) {
	id := ID{Volatile: LastHandleMarker}
	if !id.IsLastHandle() {
		t.Error("expected IsLastHandle to be true for the reserved marker")
	}
	if (ID{Volatile: 5}).IsLastHandle() {
		t.Error("ordinary volatile ID should not report as last-handle")
	}
}

func TestVolatileAllocatorReusesReleased(t *testing.T) {
	a := NewVolatileAllocator()
	first := a.Allocate()
	second := a.Allocate()
	if first == second {
		t.Fatal("two live allocations should not collide")
	}

	a.Release(first)
	third := a.Allocate()
	if third != first {
		t.Errorf("expected reuse of released ID %d, got %d", first, third)
	}
}

func TestVolatileAllocatorNeverHandsOutZeroOrMarker(t *testing.T) {
	a := NewVolatileAllocator()
	for i := 0; i < 100; i++ {
		id := a.Allocate()
		if id == 0 || id == LastHandleMarker {
			t.Fatalf("allocated reserved ID %d", id)
		}
	}
}

func TestPersistentAllocatorMonotonicUntilReclaimed(t *testing.T) {
	a := NewPersistentAllocator()
	first := a.Next()
	second := a.Next()
	if second <= first {
		t.Fatal("persistent IDs should be monotonically increasing")
	}

	a.Reclaim(first)
	third := a.Next()
	if third != first {
		t.Errorf("expected reclaimed ID %d to be reused, got %d", first, third)
	}
}

func TestTableInsertLookupClose(t *testing.T) {
	persist := NewPersistentAllocator()
	durable := NewDurableTable(nil, persist)
	table := NewTable(persist, durable)

	of := &OpenFile{Path: `\share\file.txt`, OpenedAt: time.Now()}
	id := table.Insert(of)

	got, err := table.Lookup(id.Volatile)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Path != of.Path {
		t.Error("looked up handle has wrong path")
	}

	if _, err := table.Close(id.Volatile); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := table.Lookup(id.Volatile); err != ErrUnknownHandle {
		t.Errorf("Lookup after Close = %v, want ErrUnknownHandle", err)
	}
}

func TestTableLookupUnknownHandle(t *testing.T) {
	persist := NewPersistentAllocator()
	table := NewTable(persist, NewDurableTable(nil, persist))
	if _, err := table.Lookup(999); err != ErrUnknownHandle {
		t.Errorf("Lookup(unknown) = %v, want ErrUnknownHandle", err)
	}
}

func TestTableCloseReclaimsPersistentIDForNonDurableHandle(t *testing.T) {
	persist := NewPersistentAllocator()
	table := NewTable(persist, NewDurableTable(nil, persist))

	of := &OpenFile{Path: "a"}
	id := table.Insert(of)
	table.Close(id.Volatile)

	// A fresh allocation should reuse the reclaimed persistent ID since
	// nothing else has been minted in between.
	of2 := &OpenFile{Path: "b"}
	id2 := table.Insert(of2)
	if id2.Persistent != id.Persistent {
		t.Errorf("expected persistent ID %d to be reclaimed, got %d", id.Persistent, id2.Persistent)
	}
}

func TestTableTeardownParksDurableHandles(t *testing.T) {
	persist := NewPersistentAllocator()
	durable := NewDurableTable(nil, persist)
	table := NewTable(persist, durable)

	durableOpen := &OpenFile{Path: "durable.txt", Durable: true, Timeout: time.Minute}
	volatileOpen := &OpenFile{Path: "volatile.txt"}

	durableID := table.Insert(durableOpen)
	table.Insert(volatileOpen)

	parked := table.Teardown(time.Now())
	if len(parked) != 1 || parked[0].Path != "durable.txt" {
		t.Fatalf("expected exactly the durable handle to be parked, got %+v", parked)
	}
	if table.Count() != 0 {
		t.Error("table should be empty after teardown")
	}

	rec, ok := durable.Reclaim(durableID.Persistent, time.Now())
	if !ok {
		t.Fatal("expected to reclaim the parked durable handle")
	}
	if rec.Path != "durable.txt" {
		t.Errorf("reclaimed record path = %q, want durable.txt", rec.Path)
	}
}

func TestDurableTableReclaimExpired(t *testing.T) {
	persist := NewPersistentAllocator()
	store := NewMemDurableStore()
	durable := NewDurableTable(store, persist)

	pid := persist.Next()
	store.Put(DurableRecord{PersistentID: pid, Path: "x", ExpiresAt: time.Now().Add(-time.Second)})

	if _, ok := durable.Reclaim(pid, time.Now()); ok {
		t.Error("expired durable record should not be reclaimable")
	}
}

func TestDurableTableSweep(t *testing.T) {
	persist := NewPersistentAllocator()
	store := NewMemDurableStore()
	durable := NewDurableTable(store, persist)

	now := time.Now()
	store.Put(DurableRecord{PersistentID: 1, ExpiresAt: now.Add(-time.Second)})
	store.Put(DurableRecord{PersistentID: 2, ExpiresAt: now.Add(time.Minute)})

	dropped := durable.Sweep(now)
	if dropped != 1 {
		t.Errorf("Sweep dropped %d, want 1", dropped)
	}
	if _, ok, _ := store.Get(1); ok {
		t.Error("expired record should have been removed")
	}
	if _, ok, _ := store.Get(2); !ok {
		t.Error("live record should remain")
	}
}

func TestTableReconnectPreservesPersistentID(t *testing.T) {
	persist := NewPersistentAllocator()
	table := NewTable(persist, NewDurableTable(nil, persist))

	of := &OpenFile{Path: "reconnected.txt"}
	id := table.Reconnect(of, 777)
	if id.Persistent != 777 {
		t.Errorf("persistent ID = %d, want 777", id.Persistent)
	}

	got, err := table.Lookup(id.Volatile)
	if err != nil || got.Path != "reconnected.txt" {
		t.Fatal("reconnected handle should be looked up by its new volatile ID")
	}
}
