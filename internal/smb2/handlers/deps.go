// Package handlers wires every SMB2 command to the collaborators built
// elsewhere in this module: session/credit bookkeeping, the open-handle
// table, the oplock/lease engine, NTLM authentication, and the storage
// backend a tree connect resolves paths against. RegisterAll populates a
// dispatch.Table once at server startup; everything below is a
// dispatch.HandlerFunc closed over a shared *Deps.
package handlers

import (
	"context"
	"time"

	"github.com/smbdfs/smbd/internal/ntlmssp"
	"github.com/smbdfs/smbd/internal/pipe"
	"github.com/smbdfs/smbd/internal/registry"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/oplock"
	"github.com/smbdfs/smbd/internal/smb2/session"
)

// Deps bundles every process-wide collaborator a command handler needs.
// One Deps is built at server startup and shared across every
// connection; nothing in it is connection-specific (that state lives on
// dispatch.Conn instead).
type Deps struct {
	Sessions *session.Manager
	Oplocks  *oplock.Manager
	Pending  *ntlmssp.Tracker
	Registry registry.Registry

	Persist *handle.PersistentAllocator
	Durable *handle.DurableTable
	Locks   *lockManager
	Pipes   *pipe.Manager

	ServerGUID [16]byte
	ServerName string
	StartTime  time.Time

	MaxTransactSize uint32
	MaxReadSize     uint32
	MaxWriteSize    uint32
}

// NewDeps builds a Deps with the process-wide collaborators a server
// needs to start accepting connections. The session manager, oplock
// manager and pending-auth tracker are always fresh default instances.
func NewDeps(reg registry.Registry, serverName string, guid [16]byte) *Deps {
	persist := handle.NewPersistentAllocator()
	return &Deps{
		Sessions:   session.NewDefaultManager(),
		Oplocks:    oplock.NewManager(nil, oplock.DefaultBreakTimeout),
		Pending:    ntlmssp.NewTracker(0),
		Registry:   reg,
		Persist:    persist,
		Durable:    handle.NewDurableTable(handle.NewMemDurableStore(), persist),
		Locks:      newLockManager(),
		Pipes:      pipe.NewManager(serverName, listSharesFor(reg)),
		ServerGUID: guid,
		ServerName: serverName,
		StartTime:  time.Now(),

		MaxTransactSize: 1 << 20,
		MaxReadSize:     1 << 20,
		MaxWriteSize:    1 << 20,
	}
}

// listSharesFor adapts a registry.Registry to the closure
// pipe.NewManager needs to answer NetrShareEnum: srvsvc's HandleBind
// and HandleRequest are synchronous and carry no context, so the
// snapshot is taken eagerly against a background context rather than
// threading one down from the CREATE that opens \srvsvc.
func listSharesFor(reg registry.Registry) func() []pipe.ShareInfo1 {
	return func() []pipe.ShareInfo1 {
		shares, err := reg.ListShares(context.Background())
		if err != nil {
			return nil
		}
		out := make([]pipe.ShareInfo1, 0, len(shares))
		for _, s := range shares {
			typ := pipe.STypeDiskTree
			if s.Pipe {
				typ = pipe.STypeIPC | pipe.STypeSpecial
			}
			out = append(out, pipe.ShareInfo1{Name: s.Name, Type: typ, Comment: ""})
		}
		return out
	}
}

// windowsTimestamp converts t to an [MS-DTYP] FILETIME: 100ns ticks
// since 1601-01-01, the form every SMB2 timestamp field carries.
func windowsTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	const epochDiff = 116444736000000000
	return t.UnixNano()/100 + epochDiff
}

// fromWindowsTimestamp is windowsTimestamp's inverse, used when a
// SET_INFO request carries a FILETIME the backend needs as a
// time.Time. A zero value means "leave this field unchanged" per
// [MS-FSCC] 2.4.7 and is passed through unchanged.
func fromWindowsTimestamp(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	const epochDiff = 116444736000000000
	return time.Unix(0, (ts-epochDiff)*100)
}
