package handlers

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func closeRequestBody(id [16]byte, flags wire.CloseFlags) []byte {
	body := make([]byte, 24)
	binary.LittleEndian.PutUint16(body[0:2], 24)
	binary.LittleEndian.PutUint16(body[2:4], uint16(flags))
	copy(body[8:24], id[:])
	return body
}

func TestCloseReleasesHandleAndReportsAttributes(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	f, err := backend.CreateFile(context.Background(), "report.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "report.txt", false, uint32(wire.FileReadData))
	of.File = f

	body := closeRequestBody(id.Bytes(), wire.ClosePostQueryAttrib)
	data, status := d.Close(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("Close status = %v, want success", status)
	}
	if len(data) != 60 {
		t.Fatalf("Close response length = %d, want 60", len(data))
	}
	if data[2] != byte(wire.ClosePostQueryAttrib) {
		t.Errorf("response flags = %x, want ClosePostQueryAttrib", data[2])
	}

	if _, lookupErr := conn.Handles.Lookup(id.Volatile); lookupErr == nil {
		t.Error("handle still present in table after Close")
	}
}

func TestCloseHonorsDeletePending(t *testing.T) {
	d, backend, root := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	f, err := backend.CreateFile(context.Background(), "doomed.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "doomed.txt", false, uint32(wire.FileReadData))
	of.File = f
	of.DeletePending = true

	body := closeRequestBody(id.Bytes(), 0)
	if _, status := d.Close(context.Background(), rc, body); status != wire.StatusSuccess {
		t.Fatalf("Close status = %v, want success", status)
	}

	if _, statErr := os.Stat(filepath.Join(root, "doomed.txt")); !os.IsNotExist(statErr) {
		t.Error("file still exists after delete-pending close")
	}
}

func TestCloseUnknownHandle(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	var bogus [16]byte
	binary.LittleEndian.PutUint64(bogus[8:16], 999)
	body := closeRequestBody(bogus, 0)
	if _, status := d.Close(context.Background(), rc, body); status != wire.StatusFileClosed {
		t.Errorf("Close(unknown) status = %v, want StatusFileClosed", status)
	}
}
