// Package local implements fsbackend.Backend over the host filesystem.
package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smbdfs/smbd/internal/fsbackend"
)

// Backend is a filesystem-backed fsbackend.Backend rooted at BasePath.
// Every path it's given is relative to that root and is cleaned and
// confined to it before touching the host filesystem.
type Backend struct {
	mu       sync.RWMutex
	basePath string
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Config configures a local Backend.
type Config struct {
	BasePath string

	// CreateDir creates BasePath if it doesn't exist. Default: true.
	CreateDir bool

	// DirMode/FileMode are the permission bits for newly created
	// directories/files. Defaults: 0755/0644.
	DirMode  os.FileMode
	FileMode os.FileMode
}

func DefaultConfig(basePath string) Config {
	return Config{BasePath: basePath, CreateDir: true, DirMode: 0755, FileMode: 0644}
}

func New(cfg Config) (*Backend, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("local: base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}
	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, err
		}
	}
	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("local: base path is not a directory")
	}
	return &Backend{basePath: cfg.BasePath, dirMode: cfg.DirMode, fileMode: cfg.FileMode}, nil
}

// resolve maps a share-relative path onto the host filesystem, refusing
// to let ".." components escape BasePath.
func (b *Backend) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(b.basePath, clean)
	if !strings.HasPrefix(full, b.basePath) {
		return "", fsbackend.ErrNotExist
	}
	return full, nil
}

func toInfo(name string, fi fs.FileInfo) fsbackend.Info {
	st, _ := fi.Sys().(*syscall.Stat_t)
	info := fsbackend.Info{
		Name:        name,
		Size:        fi.Size(),
		IsDirectory: fi.IsDir(),
		ReadOnly:    fi.Mode()&0200 == 0,
		LastWriteTime: fi.ModTime(),
		ChangeTime:    fi.ModTime(),
		CreationTime:  fi.ModTime(),
		LastAccessTime: fi.ModTime(),
	}
	if st != nil {
		info.FileIndex = st.Ino
		info.LastAccessTime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		info.ChangeTime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info
}

func (b *Backend) Stat(ctx context.Context, path string) (fsbackend.Info, error) {
	full, err := b.resolve(path)
	if err != nil {
		return fsbackend.Info{}, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fsbackend.Info{}, fsbackend.ErrNotExist
		}
		return fsbackend.Info{}, err
	}
	return toInfo(filepath.Base(full), fi), nil
}

func (b *Backend) OpenFile(ctx context.Context, path string) (fsbackend.File, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(full, os.O_RDWR, b.fileMode)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsbackend.ErrNotExist
		}
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (b *Backend) CreateFile(ctx context.Context, path string) (fsbackend.File, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), b.dirMode); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE|os.O_EXCL, b.fileMode)
	if err != nil {
		if os.IsExist(err) {
			return nil, fsbackend.ErrExist
		}
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Mkdir(full, b.dirMode); err != nil {
		if os.IsExist(err) {
			return fsbackend.ErrExist
		}
		return err
	}
	return nil
}

func (b *Backend) ReadDir(ctx context.Context, path string) ([]fsbackend.Info, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsbackend.ErrNotExist
		}
		return nil, err
	}

	out := make([]fsbackend.Info, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, toInfo(e.Name(), fi))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if fi, statErr := os.Stat(full); statErr == nil && fi.IsDir() {
		return fsbackend.ErrIsDirectory
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return fsbackend.ErrNotExist
		}
		return err
	}
	return nil
}

func (b *Backend) Rmdir(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fsbackend.ErrNotExist
		}
		return err
	}
	if len(entries) > 0 {
		return fsbackend.ErrNotEmpty
	}
	return os.Remove(full)
}

func (b *Backend) Rename(ctx context.Context, oldPath, newPath string, replaceIfExists bool) error {
	oldFull, err := b.resolve(oldPath)
	if err != nil {
		return err
	}
	newFull, err := b.resolve(newPath)
	if err != nil {
		return err
	}
	if !replaceIfExists {
		if _, err := os.Stat(newFull); err == nil {
			return fsbackend.ErrExist
		}
	}
	if err := os.MkdirAll(filepath.Dir(newFull), b.dirMode); err != nil {
		return err
	}
	if err := os.Rename(oldFull, newFull); err != nil {
		if os.IsNotExist(err) {
			return fsbackend.ErrNotExist
		}
		return err
	}
	return nil
}

func (b *Backend) SetTimes(ctx context.Context, path string, creation, lastAccess, lastWrite, change time.Time) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fsbackend.ErrNotExist
		}
		return err
	}
	atime, mtime := lastAccess, lastWrite
	if atime.IsZero() {
		atime = fi.ModTime()
		if st, ok := fi.Sys().(*syscall.Stat_t); ok {
			atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		}
	}
	if mtime.IsZero() {
		mtime = fi.ModTime()
	}
	return os.Chtimes(full, atime, mtime)
}

func (b *Backend) SetAttributes(ctx context.Context, path string, readOnly, hidden, system bool) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fsbackend.ErrNotExist
		}
		return err
	}
	mode := fi.Mode().Perm()
	if readOnly {
		mode &^= 0222
	} else {
		mode |= 0200
	}
	return os.Chmod(full, mode)
}

func (b *Backend) StatFS(ctx context.Context) (fsbackend.FSInfo, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(b.basePath, &st); err != nil {
		return fsbackend.FSInfo{}, err
	}
	return fsbackend.FSInfo{
		TotalBytes: int64(st.Blocks) * int64(st.Bsize),
		FreeBytes:  int64(st.Bavail) * int64(st.Bsize),
		BlockSize:  uint32(st.Bsize),
	}, nil
}

type osFile struct {
	f *os.File
}

func (o *osFile) ReadAt(p []byte, off int64) (int, error)  { return o.f.ReadAt(p, off) }
func (o *osFile) WriteAt(p []byte, off int64) (int, error) { return o.f.WriteAt(p, off) }
func (o *osFile) Truncate(size int64) error                { return o.f.Truncate(size) }
func (o *osFile) Sync() error                               { return o.f.Sync() }
func (o *osFile) Close() error                               { return o.f.Close() }

func (o *osFile) Stat() (fsbackend.Info, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return fsbackend.Info{}, err
	}
	return toInfo(fi.Name(), fi), nil
}

var _ fsbackend.Backend = (*Backend)(nil)
