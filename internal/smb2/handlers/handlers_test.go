package handlers

import (
	"testing"
	"time"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/fsbackend/local"
	"github.com/smbdfs/smbd/internal/ntlmssp"
	"github.com/smbdfs/smbd/internal/pipe"
	"github.com/smbdfs/smbd/internal/registry/memory"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/oplock"
	"github.com/smbdfs/smbd/internal/smb2/session"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// newTestDeps builds a Deps with a real local-disk backend rooted at a
// fresh temp directory, for handler tests that exercise actual file
// I/O rather than a mock. It returns the temp directory too, so a test
// can assert directly on the host filesystem.
func newTestDeps(t *testing.T) (*Deps, fsbackend.Backend, string) {
	t.Helper()
	root := t.TempDir()
	backend, err := local.New(local.DefaultConfig(root))
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	persist := handle.NewPersistentAllocator()
	reg := memory.New()
	d := &Deps{
		Sessions:        session.NewDefaultManager(),
		Oplocks:         oplock.NewManager(nil, oplock.DefaultBreakTimeout),
		Pending:         ntlmssp.NewTracker(0),
		Registry:        reg,
		Persist:         persist,
		Durable:         handle.NewDurableTable(handle.NewMemDurableStore(), persist),
		Locks:           newLockManager(),
		Pipes:           pipe.NewManager("TESTSRV", listSharesFor(reg)),
		ServerName:      "TESTSRV",
		StartTime:       time.Now(),
		MaxTransactSize: 1 << 20,
		MaxReadSize:     1 << 20,
		MaxWriteSize:    1 << 20,
	}
	return d, backend, root
}

// newTestConn builds a fresh per-connection handle table.
func newTestConn() *dispatch.Conn {
	persist := handle.NewPersistentAllocator()
	durable := handle.NewDurableTable(handle.NewMemDurableStore(), persist)
	return dispatch.NewConn("127.0.0.1:1234", persist, durable)
}

// openHandle inserts an OpenFile for path into conn's table, bypassing
// CREATE, and returns the handle and its assigned ID.
func openHandle(conn *dispatch.Conn, backend fsbackend.Backend, path string, isDir bool, access uint32) (*handle.OpenFile, handle.ID) {
	of := &handle.OpenFile{
		TreeID:        1,
		SessionID:     1,
		Path:          path,
		IsDirectory:   isDir,
		Backend:       backend,
		OpenedAt:      time.Now(),
		DesiredAccess: access,
	}
	id := conn.Handles.Insert(of)
	return of, id
}

func newRequestContext(conn *dispatch.Conn) *dispatch.RequestContext {
	return &dispatch.RequestContext{
		Header:    &wire.Header{SessionID: 1, TreeID: 1},
		Conn:      conn,
		SessionID: 1,
		TreeID:    1,
	}
}
