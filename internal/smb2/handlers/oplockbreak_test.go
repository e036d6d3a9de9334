package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/oplock"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func oplockBreakAckBody(id [16]byte, level wire.OplockLevel) []byte {
	body := make([]byte, 24)
	binary.LittleEndian.PutUint16(body[0:2], 24)
	body[2] = byte(level)
	copy(body[8:24], id[:])
	return body
}

func TestOplockBreakAckSettlesLevel(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "oplocked.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "oplocked.txt", false, uint32(wire.FileReadData))

	holder := oplock.Holder{ID: id, SessionID: 1}
	granted := d.Oplocks.RequestOplock(context.Background(), of.Path, holder, oplock.LevelBatch, false, true, false)
	of.OplockLevel = uint8(granted)

	body := oplockBreakAckBody(id.Bytes(), wire.OplockLevel(oplock.LevelII))
	resp, status := d.OplockBreak(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("OplockBreak status = %v, want success", status)
	}
	if len(resp) != 24 {
		t.Errorf("OplockBreak response length = %d, want 24", len(resp))
	}
	if of.OplockLevel != uint8(oplock.LevelII) {
		t.Errorf("of.OplockLevel = %d, want %d", of.OplockLevel, oplock.LevelII)
	}
}

func TestOplockBreakUnknownHandle(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	var bogus [16]byte
	binary.LittleEndian.PutUint64(bogus[8:16], 777)
	body := oplockBreakAckBody(bogus, wire.OplockLevel(oplock.LevelII))
	if _, status := d.OplockBreak(context.Background(), rc, body); status != wire.StatusFileClosed {
		t.Errorf("OplockBreak(unknown) status = %v, want StatusFileClosed", status)
	}
}

func leaseBreakAckBody(key [16]byte, state wire.LeaseState) []byte {
	body := make([]byte, 36)
	binary.LittleEndian.PutUint16(body[0:2], 36)
	copy(body[8:24], key[:])
	binary.LittleEndian.PutUint32(body[24:28], uint32(state))
	return body
}

func TestLeaseBreakAckDispatchesByStructureSize(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "leased.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "leased.txt", false, uint32(wire.FileReadData))

	var leaseKey [16]byte
	leaseKey[0] = 7
	holder := oplock.Holder{ID: id, SessionID: 1}
	requested := oplock.LeaseStateRead | oplock.LeaseStateWrite | oplock.LeaseStateHandle
	d.Oplocks.RequestLease(context.Background(), of.Path, leaseKey, holder, requested, false, true)

	body := leaseBreakAckBody(leaseKey, wire.LeaseReadCaching|wire.LeaseHandleCaching)
	resp, status := d.OplockBreak(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("OplockBreak(lease) status = %v, want success", status)
	}
	if len(resp) != 36 {
		t.Errorf("LeaseBreak response length = %d, want 36", len(resp))
	}
}
