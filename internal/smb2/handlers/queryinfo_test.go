package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func queryInfoRequestBody(id [16]byte, infoType wire.InfoType, class wire.FileInfoClass, outLen uint32) []byte {
	body := make([]byte, 40)
	binary.LittleEndian.PutUint16(body[0:2], 41)
	body[2] = byte(infoType)
	body[3] = byte(class)
	binary.LittleEndian.PutUint32(body[4:8], outLen)
	copy(body[24:40], id[:])
	return body
}

func TestQueryInfoBasicInformation(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "info.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "info.txt", false, uint32(wire.FileReadData))

	body := queryInfoRequestBody(id.Bytes(), wire.InfoTypeFile, wire.FileBasicInformation, 4096)
	resp, status := d.QueryInfo(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("QueryInfo status = %v, want success", status)
	}
	dataLen := binary.LittleEndian.Uint32(resp[4:8])
	if dataLen != 40 {
		t.Errorf("FileBasicInformation payload length = %d, want 40", dataLen)
	}
}

func TestQueryInfoBufferTooSmall(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "small.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "small.txt", false, uint32(wire.FileReadData))

	body := queryInfoRequestBody(id.Bytes(), wire.InfoTypeFile, wire.FileBasicInformation, 4)
	if _, status := d.QueryInfo(context.Background(), rc, body); status != wire.StatusBufferTooSmall {
		t.Errorf("QueryInfo status = %v, want StatusBufferTooSmall", status)
	}
}

func TestQueryInfoFilesystemSize(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "fs.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "fs.txt", false, uint32(wire.FileReadData))

	body := queryInfoRequestBody(id.Bytes(), wire.InfoTypeFilesystem, wire.FileInfoClass(wire.FileFsSizeInformation), 4096)
	resp, status := d.QueryInfo(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("QueryInfo(filesystem) status = %v, want success", status)
	}
	dataLen := binary.LittleEndian.Uint32(resp[4:8])
	if dataLen != 24 {
		t.Errorf("FileFsSizeInformation payload length = %d, want 24", dataLen)
	}
}

func TestQueryInfoUnknownHandle(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	var bogus [16]byte
	binary.LittleEndian.PutUint64(bogus[8:16], 42)
	body := queryInfoRequestBody(bogus, wire.InfoTypeFile, wire.FileBasicInformation, 4096)
	if _, status := d.QueryInfo(context.Background(), rc, body); status != wire.StatusFileClosed {
		t.Errorf("QueryInfo(unknown) status = %v, want StatusFileClosed", status)
	}
}
