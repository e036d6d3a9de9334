package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func readRequestBody(id [16]byte, offset uint64, length uint32) []byte {
	body := make([]byte, 49)
	binary.LittleEndian.PutUint16(body[0:2], 49)
	binary.LittleEndian.PutUint32(body[4:8], length)
	binary.LittleEndian.PutUint64(body[8:16], offset)
	copy(body[16:32], id[:])
	return body
}

func writeRequestBody(id [16]byte, offset uint64, data []byte) []byte {
	body := make([]byte, 48+len(data))
	binary.LittleEndian.PutUint16(body[0:2], 49)
	binary.LittleEndian.PutUint16(body[2:4], uint16(wire.HeaderSize+48))
	binary.LittleEndian.PutUint32(body[4:8], uint32(len(data)))
	binary.LittleEndian.PutUint64(body[8:16], offset)
	copy(body[16:32], id[:])
	copy(body[48:], data)
	return body
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	f, err := backend.CreateFile(context.Background(), "data.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "data.bin", false, uint32(wire.FileReadData|wire.FileWriteData))
	of.File = f

	payload := []byte("hello smb2")
	wbody := writeRequestBody(id.Bytes(), 0, payload)
	wresp, status := d.Write(context.Background(), rc, wbody)
	if status != wire.StatusSuccess {
		t.Fatalf("Write status = %v, want success", status)
	}
	if len(wresp) != 16 {
		t.Fatalf("Write response length = %d, want 16", len(wresp))
	}
	if n := binary.LittleEndian.Uint32(wresp[4:8]); int(n) != len(payload) {
		t.Errorf("Write count = %d, want %d", n, len(payload))
	}

	rbody := readRequestBody(id.Bytes(), 0, uint32(len(payload)))
	rresp, status := d.Read(context.Background(), rc, rbody)
	if status != wire.StatusSuccess {
		t.Fatalf("Read status = %v, want success", status)
	}
	dataLen := binary.LittleEndian.Uint32(rresp[4:8])
	got := rresp[16 : 16+dataLen]
	if string(got) != string(payload) {
		t.Errorf("Read data = %q, want %q", got, payload)
	}
}

func TestWriteRejectedWithoutWriteAccess(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	f, err := backend.CreateFile(context.Background(), "readonly.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "readonly.bin", false, uint32(wire.FileReadData))
	of.File = f

	body := writeRequestBody(id.Bytes(), 0, []byte("nope"))
	if _, status := d.Write(context.Background(), rc, body); status != wire.StatusAccessDenied {
		t.Errorf("Write status = %v, want StatusAccessDenied", status)
	}
}

func TestReadRejectsOversizeLength(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	f, err := backend.CreateFile(context.Background(), "big.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "big.bin", false, uint32(wire.FileReadData))
	of.File = f

	body := readRequestBody(id.Bytes(), 0, d.MaxReadSize+1)
	if _, status := d.Read(context.Background(), rc, body); status != wire.StatusInvalidParameter {
		t.Errorf("Read(oversize) status = %v, want StatusInvalidParameter", status)
	}
}

func TestReadDirectoryHandleRejected(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if err := backend.Mkdir(context.Background(), "adir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	_, id := openHandle(conn, backend, "adir", true, uint32(wire.FileReadData))

	body := readRequestBody(id.Bytes(), 0, 16)
	if _, status := d.Read(context.Background(), rc, body); status != wire.StatusInvalidDeviceRequest {
		t.Errorf("Read(directory) status = %v, want StatusInvalidDeviceRequest", status)
	}
}
