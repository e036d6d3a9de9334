package logx

import "log/slog"

// Standard field keys, kept consistent across every log statement in this
// server so log aggregation can filter and group on them.
const (
	KeyTraceID = "trace_id"

	KeyCommand    = "command"
	KeyShare      = "share"
	KeyTreeID     = "tree_id"
	KeyStatus     = "status"
	KeyStatusMsg  = "status_msg"

	KeyPath     = "path"
	KeyFilename = "filename"
	KeyOldPath  = "old_path"
	KeyNewPath  = "new_path"

	KeyOffset       = "offset"
	KeyCount        = "count"
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"

	KeyClientIP     = "client_ip"
	KeyClientPort   = "client_port"
	KeyUsername     = "username"
	KeyDomain       = "domain"

	KeySessionID    = "session_id"
	KeyConnectionID = "connection_id"
	KeyMessageID    = "message_id"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"

	KeyFileID      = "file_id"
	KeyOplockLevel = "oplock_level"
	KeyLeaseKey    = "lease_key"

	KeyLockOffset = "lock_offset"
	KeyLockLength = "lock_length"
	KeyLockOwner  = "lock_owner"

	KeyEntries = "entries"
	KeyPattern = "pattern"
)

func TraceID(id string) slog.Attr     { return slog.String(KeyTraceID, id) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Share(name string) slog.Attr     { return slog.String(KeyShare, name) }
func TreeID(id uint32) slog.Attr      { return slog.Any(KeyTreeID, id) }
func Status(name string) slog.Attr    { return slog.String(KeyStatus, name) }

func Path(p string) slog.Attr     { return slog.String(KeyPath, p) }
func Filename(n string) slog.Attr { return slog.String(KeyFilename, n) }
func OldPath(p string) slog.Attr  { return slog.String(KeyOldPath, p) }
func NewPath(p string) slog.Attr  { return slog.String(KeyNewPath, p) }

func Offset(off uint64) slog.Attr       { return slog.Uint64(KeyOffset, off) }
func Count(c uint32) slog.Attr          { return slog.Any(KeyCount, c) }
func BytesRead(n int) slog.Attr         { return slog.Int(KeyBytesRead, n) }
func BytesWritten(n int) slog.Attr      { return slog.Int(KeyBytesWritten, n) }

func ClientIP(addr string) slog.Attr { return slog.String(KeyClientIP, addr) }
func Username(name string) slog.Attr { return slog.String(KeyUsername, name) }
func Domain(name string) slog.Attr   { return slog.String(KeyDomain, name) }

func SessionID(id uint64) slog.Attr    { return slog.Uint64(KeySessionID, id) }
func ConnectionID(id string) slog.Attr { return slog.String(KeyConnectionID, id) }
func MessageID(id uint64) slog.Attr    { return slog.Uint64(KeyMessageID, id) }

func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

func FileID(id string) slog.Attr      { return slog.String(KeyFileID, id) }
func OplockLevel(level string) slog.Attr { return slog.String(KeyOplockLevel, level) }
func LeaseKey(key string) slog.Attr   { return slog.String(KeyLeaseKey, key) }

func LockOffset(off uint64) slog.Attr { return slog.Uint64(KeyLockOffset, off) }
func LockLength(n uint64) slog.Attr   { return slog.Uint64(KeyLockLength, n) }
func LockOwner(owner string) slog.Attr { return slog.String(KeyLockOwner, owner) }

func Entries(n int) slog.Attr  { return slog.Int(KeyEntries, n) }
func Pattern(p string) slog.Attr { return slog.String(KeyPattern, p) }
