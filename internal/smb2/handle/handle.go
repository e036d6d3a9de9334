// Package handle implements the SMB2 file handle ID space: a per-
// connection volatile ID allocator, a process-wide persistent ID
// allocator, and the open-file object lifecycle CREATE/CLOSE drive.
//
// [MS-SMB2] 2.2.14.1 splits a FileId into two 8-byte halves. The
// volatile half is only meaningful for the lifetime of the TCP
// connection that created it; the persistent half survives a
// disconnect/reconnect for handles granted durability or resilience,
// and is the key under which a DurableTable entry is found again.
package handle

import (
	"encoding/binary"
	"time"

	"github.com/smbdfs/smbd/internal/fsbackend"
)

// LastHandleMarker is the reserved volatile ID meaning "the FileId
// produced by the previous operation in this compound request" ([MS-SMB2]
// 2.2.1.1, "Unspecified FileId").
const LastHandleMarker uint64 = 0xFFFFFFFFFFFFFFFF

// ID is a FileId split into its persistent and volatile halves.
type ID struct {
	Persistent uint64
	Volatile   uint64
}

// Bytes encodes the ID as the 16-byte little-endian FileId wire layout:
// persistent half first, volatile half second.
func (id ID) Bytes() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], id.Persistent)
	binary.LittleEndian.PutUint64(b[8:16], id.Volatile)
	return b
}

// ParseID decodes a 16-byte wire FileId into its two halves.
func ParseID(b [16]byte) ID {
	return ID{
		Persistent: binary.LittleEndian.Uint64(b[0:8]),
		Volatile:   binary.LittleEndian.Uint64(b[8:16]),
	}
}

// IsLastHandle reports whether the volatile half is the reserved
// "use the handle from the last operation in this compound" marker.
func (id ID) IsLastHandle() bool {
	return id.Volatile == LastHandleMarker
}

// OpenFile is the object a CREATE allocates and a CLOSE discards. It
// links the FileId to everything the rest of the server needs to find
// about an open: which tree/session owns it, its path, its oplock
// state, and directory enumeration progress.
type OpenFile struct {
	ID        ID
	TreeID    uint32
	SessionID uint64

	Path        string
	IsDirectory bool
	IsPipe      bool
	PipeName    string

	// Backend and File are the storage collaborator and the open
	// handle a CREATE obtained from it. File is nil for an IsDirectory
	// open, which carries no fsbackend.File (directory enumeration reads
	// Backend directly by path on each QUERY_DIRECTORY).
	Backend fsbackend.Backend
	File    fsbackend.File

	OpenedAt      time.Time
	DesiredAccess uint32
	CreateOptions uint32

	// OplockLevel and LeaseKey describe whatever caching the oplock
	// engine (internal/smb2/oplock) granted at CREATE time.
	OplockLevel uint8
	LeaseKey    [16]byte
	HasLease    bool

	// DeletePending marks the handle for delete-on-close; ParentPath and
	// Name identify it for the unlink performed when the last handle
	// on the file closes.
	DeletePending bool
	ParentPath    string
	Name          string

	// Directory enumeration cursor, valid only when IsDirectory.
	EnumerationCookie  []byte
	EnumerationPattern string
	EnumerationDone    bool

	// Durability/resilience requested at CREATE time. A zero Timeout
	// with Durable/Resilient/Persistent all false means the handle is
	// purely volatile and is discarded outright on disconnect.
	Durable    bool
	Resilient  bool
	Persistent bool
	Timeout    time.Duration
}
