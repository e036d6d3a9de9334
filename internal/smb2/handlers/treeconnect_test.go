package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/registry"
	"github.com/smbdfs/smbd/internal/registry/memory"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func treeConnectRequestBody(path string) []byte {
	pathBytes := wire.EncodeUTF16LE(path)
	body := make([]byte, 8+len(pathBytes))
	binary.LittleEndian.PutUint16(body[0:2], 9)
	binary.LittleEndian.PutUint16(body[4:6], uint16(wire.HeaderSize+8))
	binary.LittleEndian.PutUint16(body[6:8], uint16(len(pathBytes)))
	copy(body[8:], pathBytes)
	return body
}

func TestTreeConnectSucceedsForAllowedUser(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "data", Path: "/", Backend: backend, ReadList: []string{"alice"}})

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, false, "alice", "DOMAIN")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	body := treeConnectRequestBody(`\\testsrv\data`)
	resp, status := d.TreeConnect(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("TreeConnect status = %v, want success", status)
	}
	if len(resp) == 0 {
		t.Fatal("TreeConnect returned no response body")
	}
	if rc.Header.TreeID == 0 {
		t.Error("TreeConnect should assign a non-zero tree ID")
	}
}

func TestTreeConnectUnknownShareRejected(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, true, "guest", "")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	body := treeConnectRequestBody(`\\testsrv\nosuch`)
	if _, status := d.TreeConnect(context.Background(), rc, body); status == wire.StatusSuccess {
		t.Error("TreeConnect(unknown share) should not succeed")
	}
}

func TestTreeConnectGuestRejectedWithoutAllowGuest(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "private", Path: "/", Backend: backend, AllowGuest: false})

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, true, "guest", "")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	body := treeConnectRequestBody(`\\testsrv\private`)
	if _, status := d.TreeConnect(context.Background(), rc, body); status == wire.StatusSuccess {
		t.Error("TreeConnect(guest, !AllowGuest) should not succeed")
	}
}

func TestTreeDisconnectClosesAttachedHandles(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "data", Path: "/", Backend: backend, ReadList: []string{"alice"}})

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, false, "alice", "DOMAIN")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	connectBody := treeConnectRequestBody(`\\testsrv\data`)
	if _, status := d.TreeConnect(context.Background(), rc, connectBody); status != wire.StatusSuccess {
		t.Fatalf("TreeConnect status = %v, want success", status)
	}
	treeID := rc.Header.TreeID
	rc.TreeID = treeID

	if _, err := backend.CreateFile(context.Background(), "open.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "open.txt", false, uint32(wire.FileReadData))
	h, _ := conn.Handles.Lookup(id.Volatile)
	h.TreeID = treeID
	h.SessionID = sess.SessionID

	disconnectBody := make([]byte, 4)
	binary.LittleEndian.PutUint16(disconnectBody[0:2], 4)
	if _, status := d.TreeDisconnect(context.Background(), rc, disconnectBody); status != wire.StatusSuccess {
		t.Fatalf("TreeDisconnect status = %v, want success", status)
	}

	if _, err := conn.Handles.Lookup(id.Volatile); err == nil {
		t.Error("handle attached to the disconnected tree should be closed")
	}
}
