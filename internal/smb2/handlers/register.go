package handlers

import (
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// RegisterAll populates table with every SMB2 command this server
// answers, closed over d. Call once at server startup before accepting
// any connection.
func RegisterAll(table *dispatch.Table, d *Deps) {
	table.Register(wire.CommandNegotiate, dispatch.Entry{
		Name:    "NEGOTIATE",
		Handler: d.Negotiate,
	})
	table.Register(wire.CommandSessionSetup, dispatch.Entry{
		Name:    "SESSION_SETUP",
		Handler: d.SessionSetup,
	})
	table.Register(wire.CommandLogoff, dispatch.Entry{
		Name:         "LOGOFF",
		Handler:      d.Logoff,
		NeedsSession: true,
	})
	table.Register(wire.CommandTreeConnect, dispatch.Entry{
		Name:         "TREE_CONNECT",
		Handler:      d.TreeConnect,
		NeedsSession: true,
	})
	table.Register(wire.CommandTreeDisconnect, dispatch.Entry{
		Name:         "TREE_DISCONNECT",
		Handler:      d.TreeDisconnect,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandCreate, dispatch.Entry{
		Name:         "CREATE",
		Handler:      d.Create,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandClose, dispatch.Entry{
		Name:         "CLOSE",
		Handler:      d.Close,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandFlush, dispatch.Entry{
		Name:         "FLUSH",
		Handler:      d.Flush,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandRead, dispatch.Entry{
		Name:         "READ",
		Handler:      d.Read,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandWrite, dispatch.Entry{
		Name:         "WRITE",
		Handler:      d.Write,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandLock, dispatch.Entry{
		Name:         "LOCK",
		Handler:      d.Lock,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandIoctl, dispatch.Entry{
		Name:         "IOCTL",
		Handler:      d.Ioctl,
		NeedsSession: true,
	})
	table.Register(wire.CommandCancel, dispatch.Entry{
		Name:    "CANCEL",
		Handler: d.Cancel,
	})
	table.Register(wire.CommandEcho, dispatch.Entry{
		Name:    "ECHO",
		Handler: d.Echo,
	})
	table.Register(wire.CommandQueryDirectory, dispatch.Entry{
		Name:         "QUERY_DIRECTORY",
		Handler:      d.QueryDirectory,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandChangeNotify, dispatch.Entry{
		Name:         "CHANGE_NOTIFY",
		Handler:      d.ChangeNotify,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandQueryInfo, dispatch.Entry{
		Name:         "QUERY_INFO",
		Handler:      d.QueryInfo,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandSetInfo, dispatch.Entry{
		Name:         "SET_INFO",
		Handler:      d.SetInfo,
		NeedsSession: true,
		NeedsTree:    true,
	})
	table.Register(wire.CommandOplockBreak, dispatch.Entry{
		Name:         "OPLOCK_BREAK",
		Handler:      d.OplockBreak,
		NeedsSession: true,
	})
}
