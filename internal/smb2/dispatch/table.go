// Package dispatch implements the SMB2 command dispatcher: the
// per-command registry, compounding (NextCommand walk and related-
// operation FileId carry-forward), credit-charge accounting, and
// CANCEL bookkeeping that sit between the connection's read loop and
// the individual command handlers.
package dispatch

import (
	"context"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// HandlerFunc is the signature every registered command implements. It
// receives the already-session/tree-resolved request context and the
// command's body (header stripped), and returns the body of the
// response plus the status to report in the response header.
//
// A handler that needs to keep the connection open past this return
// (an async QUERY_DIRECTORY wait, a CHANGE_NOTIFY subscription) reports
// wire.StatusPending and arranges for the eventual result to be
// delivered out of band through rc.Conn; the dispatcher only handles
// the synchronous half of the exchange.
type HandlerFunc func(ctx context.Context, rc *RequestContext, body []byte) ([]byte, wire.Status)

// Entry is one command's dispatch metadata.
type Entry struct {
	Name         string
	Handler      HandlerFunc
	NeedsSession bool // STATUS_USER_SESSION_DELETED if SessionID doesn't resolve
	NeedsTree    bool // STATUS_NETWORK_NAME_DELETED if TreeID doesn't resolve
}

// Table maps a command code to its dispatch metadata. A server builds
// exactly one Table at startup (internal/smb2/handlers populates it)
// and shares it across every connection.
type Table struct {
	entries map[wire.Command]*Entry
}

// NewTable builds an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[wire.Command]*Entry)}
}

// Register adds or replaces a command's dispatch entry.
func (t *Table) Register(cmd wire.Command, entry Entry) {
	e := entry
	t.entries[cmd] = &e
}

// Lookup finds a command's dispatch entry.
func (t *Table) Lookup(cmd wire.Command) (*Entry, bool) {
	e, ok := t.entries[cmd]
	return e, ok
}
