// Package s3backend implements fsbackend.Backend over an S3 bucket.
// Objects are addressed by the share-relative path with a configurable
// key prefix; directories are synthetic (derived from key prefixes,
// like most S3-backed filesystems) and marked by a zero-byte
// "<dir>/.smbdfs_dir" marker object so an empty directory still exists.
package s3backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/smbdfs/smbd/internal/fsbackend"
)

const dirMarkerSuffix = "/.smbdfs_dir"

// Config configures a Backend.
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	KeyPrefix      string
	ForcePathStyle bool
}

// Backend is an S3-backed fsbackend.Backend. Because S3 has no
// in-place byte-range write, an open File buffers its writes in memory
// and uploads the whole object on Sync/Close — acceptable for the
// CORE's target workloads (small-to-medium shared files), not for
// multi-gigabyte randomly-written files.
type Backend struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

func New(client *s3.Client, cfg Config) *Backend {
	return &Backend{client: client, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}
}

func NewFromConfig(ctx context.Context, cfg Config) (*Backend, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3backend: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(client, cfg), nil
}

func (b *Backend) key(path string) string {
	return b.keyPrefix + strings.TrimPrefix(path, "/")
}

func (b *Backend) Stat(ctx context.Context, path string) (fsbackend.Info, error) {
	key := b.key(path)
	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err == nil {
		return fsbackend.Info{
			Name:          pathBase(path),
			Size:          aws.ToInt64(head.ContentLength),
			LastWriteTime: aws.ToTime(head.LastModified),
			ChangeTime:    aws.ToTime(head.LastModified),
		}, nil
	}
	if !isNotFound(err) {
		return fsbackend.Info{}, err
	}

	// Not an object; treat as a directory if anything exists under its prefix.
	prefix := key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket), Prefix: aws.String(prefix), MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fsbackend.Info{}, err
	}
	if len(out.Contents) == 0 && len(out.CommonPrefixes) == 0 {
		return fsbackend.Info{}, fsbackend.ErrNotExist
	}
	return fsbackend.Info{Name: pathBase(path), IsDirectory: true}, nil
}

func (b *Backend) OpenFile(ctx context.Context, path string) (fsbackend.File, error) {
	key := b.key(path)
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, fsbackend.ErrNotExist
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return &object{backend: b, key: key, data: data}, nil
}

func (b *Backend) CreateFile(ctx context.Context, path string) (fsbackend.File, error) {
	key := b.key(path)
	if _, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)}); err == nil {
		return nil, fsbackend.ErrExist
	}
	obj := &object{backend: b, key: key, dirty: true}
	if err := obj.flush(ctx); err != nil {
		return nil, err
	}
	return obj, nil
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	key := b.key(path) + dirMarkerSuffix
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key), Body: bytes.NewReader(nil)})
	return err
}

func (b *Backend) ReadDir(ctx context.Context, path string) ([]fsbackend.Info, error) {
	prefix := b.key(path)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket), Prefix: aws.String(prefix), Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, err
	}

	var entries []fsbackend.Info
	for _, p := range out.CommonPrefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), prefix), "/")
		if name == "" {
			continue
		}
		entries = append(entries, fsbackend.Info{Name: name, IsDirectory: true})
	}
	for _, o := range out.Contents {
		name := strings.TrimPrefix(aws.ToString(o.Key), prefix)
		if name == "" || name == strings.TrimPrefix(dirMarkerSuffix, "/") {
			continue
		}
		entries = append(entries, fsbackend.Info{
			Name: name, Size: aws.ToInt64(o.Size), LastWriteTime: aws.ToTime(o.LastModified),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(b.key(path))})
	return err
}

func (b *Backend) Rmdir(ctx context.Context, path string) error {
	entries, err := b.ReadDir(ctx, path)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fsbackend.ErrNotEmpty
	}
	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(b.key(path) + dirMarkerSuffix)})
	return err
}

func (b *Backend) Rename(ctx context.Context, oldPath, newPath string, replaceIfExists bool) error {
	oldKey, newKey := b.key(oldPath), b.key(newPath)
	if !replaceIfExists {
		if _, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(newKey)}); err == nil {
			return fsbackend.ErrExist
		}
	}
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(newKey),
		CopySource: aws.String(b.bucket + "/" + oldKey),
	})
	if err != nil {
		return err
	}
	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(oldKey)})
	return err
}

func (b *Backend) SetTimes(ctx context.Context, path string, creation, lastAccess, lastWrite, change time.Time) error {
	// S3 objects carry only LastModified, which the service itself
	// manages; there is no user-settable timestamp to update.
	return nil
}

func (b *Backend) SetAttributes(ctx context.Context, path string, readOnly, hidden, system bool) error {
	// No DOS attribute bits in S3 object metadata for this backend;
	// accepted as a no-op so SET_INFO still succeeds.
	return nil
}

func (b *Backend) StatFS(ctx context.Context) (fsbackend.FSInfo, error) {
	// S3 has no fixed capacity; report a large nominal size so clients
	// don't treat the share as full.
	return fsbackend.FSInfo{TotalBytes: 1 << 50, FreeBytes: 1 << 50, BlockSize: 4096}, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nk *types.NoSuchKey
	if errors.As(err, &nk) {
		return true
	}
	return strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey")
}

func pathBase(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// object is a buffered S3 file: reads/writes operate on an in-memory
// copy, uploaded back to S3 whole on Sync or Close.
type object struct {
	mu      sync.Mutex
	backend *Backend
	key     string
	data    []byte
	dirty   bool
}

func (o *object) ReadAt(p []byte, off int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if off >= int64(len(o.data)) {
		return 0, io.EOF
	}
	n := copy(p, o.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (o *object) WriteAt(p []byte, off int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(o.data)) {
		grown := make([]byte, end)
		copy(grown, o.data)
		o.data = grown
	}
	copy(o.data[off:end], p)
	o.dirty = true
	return len(p), nil
}

func (o *object) Truncate(size int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if size <= int64(len(o.data)) {
		o.data = o.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, o.data)
		o.data = grown
	}
	o.dirty = true
	return nil
}

func (o *object) Sync() error {
	return o.flush(context.Background())
}

func (o *object) Close() error {
	return o.flush(context.Background())
}

func (o *object) flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.dirty {
		return nil
	}
	_, err := o.backend.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(o.backend.bucket),
		Key:    aws.String(o.key),
		Body:   bytes.NewReader(o.data),
	})
	if err == nil {
		o.dirty = false
	}
	return err
}

func (o *object) Stat() (fsbackend.Info, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fsbackend.Info{Name: pathBase(o.key), Size: int64(len(o.data))}, nil
}

var _ fsbackend.Backend = (*Backend)(nil)
