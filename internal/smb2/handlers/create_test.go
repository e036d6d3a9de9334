package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/registry"
	"github.com/smbdfs/smbd/internal/registry/memory"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func createRequestBody(accessMask wire.AccessMask, disposition wire.CreateDisposition, options wire.CreateOptions, path string) []byte {
	pathBytes := wire.EncodeUTF16LE(path)
	body := make([]byte, 56+len(pathBytes))
	binary.LittleEndian.PutUint16(body[0:2], 57)
	binary.LittleEndian.PutUint32(body[24:28], uint32(accessMask))
	binary.LittleEndian.PutUint32(body[32:36], 0x00000007) // FILE_SHARE_READ|WRITE|DELETE
	binary.LittleEndian.PutUint32(body[36:40], uint32(disposition))
	binary.LittleEndian.PutUint32(body[40:44], uint32(options))
	binary.LittleEndian.PutUint16(body[44:46], uint16(wire.HeaderSize+56))
	binary.LittleEndian.PutUint16(body[46:48], uint16(len(pathBytes)))
	copy(body[56:], pathBytes)
	return body
}

func TestCreateNewFileReportsCreatedAndInsertsHandle(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "data", Path: "/", Backend: backend, ReadList: []string{"alice"}, WriteList: []string{"alice"}})

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, false, "alice", "DOMAIN")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	connectBody := treeConnectRequestBody(`\\testsrv\data`)
	if _, status := d.TreeConnect(context.Background(), rc, connectBody); status != wire.StatusSuccess {
		t.Fatalf("TreeConnect status = %v, want success", status)
	}
	rc.TreeID = rc.Header.TreeID

	body := createRequestBody(wire.FileReadData|wire.FileWriteData, wire.FileCreate, 0, "fresh.txt")
	resp, status := d.Create(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("Create status = %v, want success", status)
	}
	if len(resp) < 89 {
		t.Fatalf("Create response too short: %d bytes", len(resp))
	}
	action := binary.LittleEndian.Uint32(resp[4:8])
	if wire.CreateAction(action) != wire.FileCreated {
		t.Errorf("CreateAction = %v, want FileCreated", action)
	}

	if _, err := backend.Stat(context.Background(), "fresh.txt"); err != nil {
		t.Errorf("Stat(fresh.txt) after Create: %v", err)
	}

	var fileID [16]byte
	copy(fileID[:], resp[64:80])
	id := handle.ParseID(fileID)
	if _, err := conn.Handles.Lookup(id.Volatile); err != nil {
		t.Errorf("handle table should contain the new open: %v", err)
	}
}

func TestCreateExistingFileFailsWithFileCreateDisposition(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "data", Path: "/", Backend: backend, ReadList: []string{"alice"}, WriteList: []string{"alice"}})
	if _, err := backend.CreateFile(context.Background(), "already.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, false, "alice", "DOMAIN")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	connectBody := treeConnectRequestBody(`\\testsrv\data`)
	if _, status := d.TreeConnect(context.Background(), rc, connectBody); status != wire.StatusSuccess {
		t.Fatalf("TreeConnect status = %v, want success", status)
	}
	rc.TreeID = rc.Header.TreeID

	body := createRequestBody(wire.FileReadData, wire.FileCreate, 0, "already.txt")
	if _, status := d.Create(context.Background(), rc, body); status != wire.StatusObjectNameCollision {
		t.Errorf("Create(existing, FILE_CREATE) status = %v, want StatusObjectNameCollision", status)
	}
}

func TestCreateOpenMissingFileFails(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "data", Path: "/", Backend: backend, ReadList: []string{"alice"}, WriteList: []string{"alice"}})

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, false, "alice", "DOMAIN")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	connectBody := treeConnectRequestBody(`\\testsrv\data`)
	if _, status := d.TreeConnect(context.Background(), rc, connectBody); status != wire.StatusSuccess {
		t.Fatalf("TreeConnect status = %v, want success", status)
	}
	rc.TreeID = rc.Header.TreeID

	body := createRequestBody(wire.FileReadData, wire.FileOpen, 0, "nope.txt")
	if _, status := d.Create(context.Background(), rc, body); status != wire.StatusObjectNameNotFound {
		t.Errorf("Create(missing, FILE_OPEN) status = %v, want StatusObjectNameNotFound", status)
	}
}

func TestCreateWriteRejectedOnReadOnlyTree(t *testing.T) {
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
	rc.TreeID = rc.Header.TreeID

	body := createRequestBody(wire.FileReadData|wire.FileWriteData, wire.FileCreate, 0, "denied.txt")
	if _, status := d.Create(context.Background(), rc, body); status != wire.StatusAccessDenied {
		t.Errorf("Create(write, read-only tree) status = %v, want StatusAccessDenied", status)
	}
}

func TestCreateDirectoryDispositionOpensADirectory(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	reg := d.Registry.(*memory.Registry)
	reg.PutShare(&registry.Share{Name: "data", Path: "/", Backend: backend, ReadList: []string{"alice"}, WriteList: []string{"alice"}})

	conn := newTestConn()
	sess := d.Sessions.CreateSession(conn.RemoteAddr, false, "alice", "DOMAIN")
	rc := newRequestContext(conn)
	rc.Header.SessionID = sess.SessionID
	rc.SessionID = sess.SessionID

	connectBody := treeConnectRequestBody(`\\testsrv\data`)
	if _, status := d.TreeConnect(context.Background(), rc, connectBody); status != wire.StatusSuccess {
		t.Fatalf("TreeConnect status = %v, want success", status)
	}
	rc.TreeID = rc.Header.TreeID

	body := createRequestBody(wire.FileReadData, wire.FileCreate, wire.FileDirectoryFile, "newdir")
	resp, status := d.Create(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("Create(directory) status = %v, want success", status)
	}
	attrs := wire.FileAttributes(binary.LittleEndian.Uint32(resp[56:60]))
	if attrs&wire.FileAttributeDirectory == 0 {
		t.Error("Create(directory) response should report FILE_ATTRIBUTE_DIRECTORY")
	}
	if info, err := backend.Stat(context.Background(), "newdir"); err != nil || !info.IsDirectory {
		t.Errorf("Stat(newdir) = %+v, %v; want a directory", info, err)
	}
}
