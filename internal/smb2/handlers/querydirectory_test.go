package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func queryDirectoryRequestBody(id [16]byte, class wire.FileInfoClass, flags wire.QueryDirectoryFlags, pattern string) []byte {
	patBytes := wire.EncodeUTF16LE(pattern)
	body := make([]byte, 32+len(patBytes))
	binary.LittleEndian.PutUint16(body[0:2], 33)
	body[2] = byte(class)
	body[3] = byte(flags)
	copy(body[8:24], id[:])
	binary.LittleEndian.PutUint16(body[24:26], uint16(wire.HeaderSize+32))
	binary.LittleEndian.PutUint16(body[26:28], uint16(len(patBytes)))
	binary.LittleEndian.PutUint32(body[28:32], 1<<20)
	copy(body[32:], patBytes)
	return body
}

func TestQueryDirectoryListsAndExhausts(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if err := backend.Mkdir(context.Background(), "listing"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	for _, name := range []string{"listing/a.txt", "listing/b.txt"} {
		if _, err := backend.CreateFile(context.Background(), name); err != nil {
			t.Fatalf("CreateFile(%s): %v", name, err)
		}
	}
	_, id := openHandle(conn, backend, "listing", true, uint32(wire.FileReadData))

	body := queryDirectoryRequestBody(id.Bytes(), wire.FileIdBothDirectoryInformation, 0, "*")
	resp, status := d.QueryDirectory(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("QueryDirectory status = %v, want success", status)
	}
	if len(resp) == 0 {
		t.Fatal("QueryDirectory returned no data on first call")
	}

	// Enumeration is exhausted on this connection's handle once every
	// matching entry has been returned in a single large-enough buffer.
	again := queryDirectoryRequestBody(id.Bytes(), wire.FileIdBothDirectoryInformation, 0, "*")
	if _, status := d.QueryDirectory(context.Background(), rc, again); status != wire.StatusNoMoreFiles {
		t.Errorf("second QueryDirectory status = %v, want StatusNoMoreFiles", status)
	}
}

func TestQueryDirectoryRestartScans(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if err := backend.Mkdir(context.Background(), "again"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := backend.CreateFile(context.Background(), "again/only.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "again", true, uint32(wire.FileReadData))

	first := queryDirectoryRequestBody(id.Bytes(), wire.FileIdBothDirectoryInformation, 0, "*")
	if _, status := d.QueryDirectory(context.Background(), rc, first); status != wire.StatusSuccess {
		t.Fatalf("first QueryDirectory status = %v, want success", status)
	}
	if _, status := d.QueryDirectory(context.Background(), rc, first); status != wire.StatusNoMoreFiles {
		t.Fatalf("repeat QueryDirectory status = %v, want StatusNoMoreFiles", status)
	}

	restart := queryDirectoryRequestBody(id.Bytes(), wire.FileIdBothDirectoryInformation, wire.FlagRestartScans, "*")
	if _, status := d.QueryDirectory(context.Background(), rc, restart); status != wire.StatusSuccess {
		t.Errorf("restarted QueryDirectory status = %v, want success", status)
	}
}

func TestQueryDirectoryRejectsNonDirectoryHandle(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "plain.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "plain.txt", false, uint32(wire.FileReadData))

	body := queryDirectoryRequestBody(id.Bytes(), wire.FileIdBothDirectoryInformation, 0, "*")
	if _, status := d.QueryDirectory(context.Background(), rc, body); status != wire.StatusInvalidDeviceRequest {
		t.Errorf("QueryDirectory(file) status = %v, want StatusInvalidDeviceRequest", status)
	}
}
