package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func lockRequestBody(id [16]byte, elems ...wire.LockElement) []byte {
	body := make([]byte, 24+24*len(elems))
	binary.LittleEndian.PutUint16(body[0:2], 48)
	binary.LittleEndian.PutUint16(body[2:4], uint16(len(elems)))
	copy(body[8:24], id[:])
	off := 24
	for _, e := range elems {
		binary.LittleEndian.PutUint64(body[off:off+8], e.Offset)
		binary.LittleEndian.PutUint64(body[off+8:off+16], e.Length)
		binary.LittleEndian.PutUint32(body[off+16:off+20], uint32(e.Flags))
		off += 24
	}
	return body
}

func TestLockExclusiveThenConflict(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "locked.bin"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id1 := openHandle(conn, backend, "locked.bin", false, uint32(wire.FileReadData|wire.FileWriteData))

	body := lockRequestBody(id1.Bytes(), wire.LockElement{Offset: 0, Length: 10, Flags: wire.LockFlagExclusive})
	if _, status := d.Lock(context.Background(), rc, body); status != wire.StatusSuccess {
		t.Fatalf("first Lock status = %v, want success", status)
	}

	_, id2 := openHandle(conn, backend, "locked.bin", false, uint32(wire.FileReadData|wire.FileWriteData))
	conflictBody := lockRequestBody(id2.Bytes(), wire.LockElement{Offset: 5, Length: 5, Flags: wire.LockFlagExclusive})
	if _, status := d.Lock(context.Background(), rc, conflictBody); status != wire.StatusFileLockConflict {
		t.Errorf("conflicting Lock status = %v, want StatusFileLockConflict", status)
	}

	failFastBody := lockRequestBody(id2.Bytes(), wire.LockElement{Offset: 5, Length: 5, Flags: wire.LockFlagExclusive | wire.LockFlagFailImmediately})
	if _, status := d.Lock(context.Background(), rc, failFastBody); status != wire.StatusLockNotGranted {
		t.Errorf("fail-immediately Lock status = %v, want StatusLockNotGranted", status)
	}
}

func TestLockUnlockRoundTrip(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "unlocked.bin"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "unlocked.bin", false, uint32(wire.FileReadData|wire.FileWriteData))

	lockBody := lockRequestBody(id.Bytes(), wire.LockElement{Offset: 0, Length: 20, Flags: wire.LockFlagExclusive})
	if _, status := d.Lock(context.Background(), rc, lockBody); status != wire.StatusSuccess {
		t.Fatalf("Lock status = %v, want success", status)
	}

	unlockBody := lockRequestBody(id.Bytes(), wire.LockElement{Offset: 0, Length: 20, Flags: wire.LockFlagUnlock})
	if _, status := d.Lock(context.Background(), rc, unlockBody); status != wire.StatusSuccess {
		t.Fatalf("Unlock status = %v, want success", status)
	}

	if _, status := d.Lock(context.Background(), rc, unlockBody); status != wire.StatusRangeNotLocked {
		t.Errorf("re-Unlock status = %v, want StatusRangeNotLocked", status)
	}
}

func TestLockRollsBackOnPartialFailure(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "partial.bin"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, holder := openHandle(conn, backend, "partial.bin", false, uint32(wire.FileReadData|wire.FileWriteData))
	heldBody := lockRequestBody(holder.Bytes(), wire.LockElement{Offset: 100, Length: 10, Flags: wire.LockFlagExclusive})
	if _, status := d.Lock(context.Background(), rc, heldBody); status != wire.StatusSuccess {
		t.Fatalf("setup Lock status = %v, want success", status)
	}

	_, id := openHandle(conn, backend, "partial.bin", false, uint32(wire.FileReadData|wire.FileWriteData))
	body := lockRequestBody(id.Bytes(),
		wire.LockElement{Offset: 0, Length: 10, Flags: wire.LockFlagExclusive},
		wire.LockElement{Offset: 100, Length: 10, Flags: wire.LockFlagExclusive},
	)
	if _, status := d.Lock(context.Background(), rc, body); status != wire.StatusFileLockConflict {
		t.Fatalf("Lock status = %v, want StatusFileLockConflict", status)
	}

	// The first element must have been rolled back: a fresh attempt at
	// the same range by a different owner should succeed.
	_, id3 := openHandle(conn, backend, "partial.bin", false, uint32(wire.FileReadData|wire.FileWriteData))
	retryBody := lockRequestBody(id3.Bytes(), wire.LockElement{Offset: 0, Length: 10, Flags: wire.LockFlagExclusive})
	if _, status := d.Lock(context.Background(), rc, retryBody); status != wire.StatusSuccess {
		t.Errorf("retry Lock status = %v, want success (rollback should have freed range)", status)
	}
}
