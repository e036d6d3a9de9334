package handlers

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func setInfoRequestBody(id [16]byte, class wire.FileInfoClass, buf []byte) []byte {
	body := make([]byte, 32+len(buf))
	binary.LittleEndian.PutUint16(body[0:2], 33)
	body[2] = byte(wire.InfoTypeFile)
	body[3] = byte(class)
	binary.LittleEndian.PutUint32(body[4:8], uint32(len(buf)))
	binary.LittleEndian.PutUint16(body[8:10], uint16(wire.HeaderSize+32))
	copy(body[16:32], id[:])
	copy(body[32:], buf)
	return body
}

func fileEndOfFileBuffer(size uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, size)
	return buf
}

func TestSetInfoEndOfFileTruncates(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	f, err := backend.CreateFile(context.Background(), "trunc.bin")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := f.WriteAt([]byte("0123456789"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	of, id := openHandle(conn, backend, "trunc.bin", false, uint32(wire.FileWriteData))
	of.File = f

	body := setInfoRequestBody(id.Bytes(), wire.FileEndOfFileInformation, fileEndOfFileBuffer(4))
	if _, status := d.SetInfo(context.Background(), rc, body); status != wire.StatusSuccess {
		t.Fatalf("SetInfo status = %v, want success", status)
	}

	info, statErr := backend.Stat(context.Background(), "trunc.bin")
	if statErr != nil {
		t.Fatalf("Stat: %v", statErr)
	}
	if info.Size != 4 {
		t.Errorf("size after truncate = %d, want 4", info.Size)
	}
}

func TestSetInfoRenameUpdatesOpenFilePath(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if _, err := backend.CreateFile(context.Background(), "old.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	of, id := openHandle(conn, backend, "old.txt", false, uint32(wire.FileWriteData))

	nameBytes := wire.EncodeUTF16LE("new.txt")
	renameBuf := make([]byte, 20+len(nameBytes))
	binary.LittleEndian.PutUint32(renameBuf[16:20], uint32(len(nameBytes)))
	copy(renameBuf[20:], nameBytes)

	body := setInfoRequestBody(id.Bytes(), wire.FileRenameInformation, renameBuf)
	if _, status := d.SetInfo(context.Background(), rc, body); status != wire.StatusSuccess {
		t.Fatalf("SetInfo(rename) status = %v, want success", status)
	}
	if of.Path != "new.txt" {
		t.Errorf("of.Path = %q, want %q", of.Path, "new.txt")
	}
	if _, statErr := backend.Stat(context.Background(), "new.txt"); statErr != nil {
		t.Errorf("Stat(new.txt): %v", statErr)
	}
}

func TestSetInfoDispositionRejectsNonEmptyDirectory(t *testing.T) {
	d, backend, _ := newTestDeps(t)
	conn := newTestConn()
	rc := newRequestContext(conn)

	if err := backend.Mkdir(context.Background(), "nonempty"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := backend.CreateFile(context.Background(), "nonempty/child.txt"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, id := openHandle(conn, backend, "nonempty", true, uint32(wire.FileReadData))

	body := setInfoRequestBody(id.Bytes(), wire.FileDispositionInformation, []byte{1})
	if _, status := d.SetInfo(context.Background(), rc, body); status != wire.StatusDirectoryNotEmpty {
		t.Errorf("SetInfo(disposition) status = %v, want StatusDirectoryNotEmpty", status)
	}
}
