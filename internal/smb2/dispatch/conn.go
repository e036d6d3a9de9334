package dispatch

import (
	"sync"

	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Conn is the per-TCP-connection state the dispatcher threads through
// every request on that connection: its open-handle table, negotiated
// dialect, and in-flight-request bookkeeping for CANCEL. One Conn per
// accepted socket, for the life of the socket.
type Conn struct {
	RemoteAddr string

	mu      sync.RWMutex
	dialect wire.Dialect

	Handles *handle.Table

	cancel *CancelRegistry
}

// NewConn builds a fresh per-connection dispatch state. persist/durable
// are the process-wide allocators shared by every connection's handle
// table.
func NewConn(remoteAddr string, persist *handle.PersistentAllocator, durable *handle.DurableTable) *Conn {
	return &Conn{
		RemoteAddr: remoteAddr,
		Handles:    handle.NewTable(persist, durable),
		cancel:     NewCancelRegistry(),
	}
}

func (c *Conn) SetDialect(d wire.Dialect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialect = d
}

func (c *Conn) Dialect() wire.Dialect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dialect
}

// Cancel cancels the in-flight request tracked under messageID, if
// any, for the CANCEL command handler.
func (c *Conn) Cancel(messageID uint64) bool {
	return c.cancel.Cancel(messageID)
}

// RequestContext is the per-command view the dispatcher builds before
// invoking a handler: the request's header plus whatever session/tree
// state the command's Entry declared it needs, and the inherited FileId
// when this is a related compound operation.
type RequestContext struct {
	Header *wire.Header
	Conn   *Conn

	SessionID uint64
	TreeID    uint32

	// InheritedFileID is the prior compound command's FileId, valid
	// only when Related is true. [MS-SMB2] 3.2.4.1.4.
	InheritedFileID [16]byte
	Related         bool

	// CreatedFileID is set by the CREATE handler when it opens a new
	// file, so a subsequent related compound command can inherit it.
	CreatedFileID    [16]byte
	HasCreatedFileID bool
}
