package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func TestEchoRoundTrip(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], 4)
	resp, status := d.Echo(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("Echo status = %v, want success", status)
	}
	if len(resp) != 4 {
		t.Errorf("Echo response length = %d, want 4", len(resp))
	}
}

func TestCancelUnknownMessageIsNoop(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)
	rc.Header.MessageID = 12345

	if _, status := d.Cancel(context.Background(), rc, nil); status != wire.StatusSuccess {
		t.Errorf("Cancel status = %v, want success even with nothing tracked", status)
	}
}

func TestIoctlUnsupportedFsctlRefused(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	body := make([]byte, 56)
	binary.LittleEndian.PutUint16(body[0:2], 57)
	binary.LittleEndian.PutUint32(body[4:8], 0xDEADBEEF)
	if _, status := d.Ioctl(context.Background(), rc, body); status != wire.StatusNotSupported {
		t.Errorf("Ioctl(unknown fsctl) status = %v, want StatusNotSupported", status)
	}
}

func TestIoctlValidateNegotiateInfo(t *testing.T) {
	d, _, _ := newTestDeps(t)
	conn := newTestConn()
	conn.SetDialect(wire.Dialect(0x0311))
	rc := newRequestContext(conn)

	body := make([]byte, 56+24)
	binary.LittleEndian.PutUint16(body[0:2], 57)
	binary.LittleEndian.PutUint32(body[4:8], uint32(wire.FsctlValidateNegotiateInfo))
	binary.LittleEndian.PutUint32(body[24:28], uint32(wire.HeaderSize+56)) // InputOffset
	binary.LittleEndian.PutUint32(body[28:32], 24)                        // InputCount

	resp, status := d.Ioctl(context.Background(), rc, body)
	if status != wire.StatusSuccess {
		t.Fatalf("Ioctl(VALIDATE_NEGOTIATE_INFO) status = %v, want success", status)
	}
	if len(resp) < 48+24 {
		t.Fatalf("Ioctl response too short: %d bytes", len(resp))
	}
}
