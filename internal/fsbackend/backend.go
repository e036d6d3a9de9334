// Package fsbackend defines the storage abstraction the SMB2 command
// handlers operate against: a filesystem-shaped interface a share can
// be mounted onto, independent of where the bytes actually live.
package fsbackend

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotExist    = errors.New("fsbackend: path does not exist")
	ErrExist       = errors.New("fsbackend: path already exists")
	ErrNotEmpty    = errors.New("fsbackend: directory not empty")
	ErrIsDirectory = errors.New("fsbackend: path is a directory")
	ErrNotDirectory = errors.New("fsbackend: path is not a directory")
)

// Info is the backend's view of one filesystem entry, independent of
// any SMB2 wire representation.
type Info struct {
	Name           string
	Size           int64
	IsDirectory    bool
	ReadOnly       bool
	Hidden         bool
	System         bool
	CreationTime   time.Time
	LastAccessTime time.Time
	LastWriteTime  time.Time
	ChangeTime     time.Time
	// FileIndex is a stable identifier for the entry within the
	// backend, used for FileInternalInformation and QUERY_DIRECTORY's
	// FileId-carrying info classes.
	FileIndex uint64
}

// File is an open handle to regular file content. Handlers obtain one
// from Backend.OpenFile and hold it for the life of the SMB2 handle.
type File interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Sync() error
	Stat() (Info, error)
	Close() error
}

// Backend is the storage contract a share mounts onto. Implementations
// live in subpackages (local disk, S3-backed) and are selected by
// registry share configuration.
//
// Paths are always slash-separated and relative to the share root;
// the backend is responsible for mapping them onto its own storage.
type Backend interface {
	// Stat returns Info for path, or ErrNotExist.
	Stat(ctx context.Context, path string) (Info, error)

	// OpenFile opens an existing regular file for read/write.
	OpenFile(ctx context.Context, path string) (File, error)

	// CreateFile creates a new regular file (ErrExist if it is already
	// there) and opens it.
	CreateFile(ctx context.Context, path string) (File, error)

	// Mkdir creates a new directory. ErrExist if it is already there.
	Mkdir(ctx context.Context, path string) error

	// ReadDir lists the immediate children of a directory.
	ReadDir(ctx context.Context, path string) ([]Info, error)

	// Remove deletes a regular file.
	Remove(ctx context.Context, path string) error

	// Rmdir deletes an empty directory. ErrNotEmpty otherwise.
	Rmdir(ctx context.Context, path string) error

	// Rename moves oldPath to newPath, replacing any existing file at
	// newPath only when replaceIfExists is set.
	Rename(ctx context.Context, oldPath, newPath string, replaceIfExists bool) error

	// SetTimes updates the timestamps recorded for path; a zero
	// time.Time leaves the corresponding field unchanged.
	SetTimes(ctx context.Context, path string, creation, lastAccess, lastWrite, change time.Time) error

	// SetAttributes updates the readonly/hidden/system bits for path.
	SetAttributes(ctx context.Context, path string, readOnly, hidden, system bool) error

	// StatFS reports aggregate space usage for the share's backing
	// store, used by FileFsSizeInformation-class QUERY_INFO requests.
	StatFS(ctx context.Context) (FSInfo, error)
}

// FSInfo is coarse filesystem-level space accounting.
type FSInfo struct {
	TotalBytes int64
	FreeBytes  int64
	BlockSize  uint32
}
