package handlers

import (
	"context"
	"encoding/binary"
	"path"
	"strings"
	"time"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/pipe"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/oplock"
	"github.com/smbdfs/smbd/internal/smb2/session"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// defaultDurableTimeout is the timeout given to every durable handle
// granted through a DHnQ or DHnC context; no timeout is read from the
// request. [MS-SMB2] 3.3.5.9.7
const defaultDurableTimeout = 2 * time.Minute

// Create implements SMB2_CREATE: resolves a path against the tree's
// backend, applies the disposition (open/create/overwrite), grants
// whatever oplock or lease the caching engine allows, and honors any
// durable-handle request or reconnect context. [MS-SMB2] 3.3.5.9
func (d *Deps) Create(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseCreateRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	sess, ok := d.Sessions.GetSession(rc.SessionID)
	if !ok {
		return nil, wire.StatusUserSessionDeleted
	}
	tree, ok := sess.GetTree(rc.TreeID)
	if !ok {
		return nil, wire.StatusNetworkNameDeleted
	}

	if reconnect, found := wire.FindCreateContext(req.Contexts, wire.CtxDurableHandleReconnect); found {
		return d.createReconnect(ctx, rc, tree, reconnect)
	}

	if tree.ShareType == session.ShareTypePipe {
		return d.createPipe(rc, req.Path)
	}

	if tree.Backend == nil {
		return nil, wire.StatusAccessDenied
	}

	cleanPath := path.Clean("/" + req.Path)
	cleanPath = strings.TrimPrefix(cleanPath, "/")

	wantsDir := req.CreateOptions&wire.FileDirectoryFile != 0
	wantsWrite := req.DesiredAccess.WantsWrite()
	if tree.ReadOnly && wantsWrite {
		return nil, wire.StatusAccessDenied
	}

	info, statErr := tree.Backend.Stat(ctx, cleanPath)
	exists := statErr == nil

	if exists && info.IsDirectory && req.CreateOptions&wire.FileNonDirectoryFile != 0 {
		return nil, wire.StatusFileIsADirectory
	}
	if exists && !info.IsDirectory && wantsDir {
		return nil, wire.StatusNotADirectory
	}

	var action wire.CreateAction
	var f fsbackend.File
	isDir := wantsDir || (exists && info.IsDirectory)

	switch req.Disposition {
	case wire.FileOpen:
		if !exists {
			return nil, wire.StatusObjectNameNotFound
		}
		action = wire.FileOpened
	case wire.FileCreate:
		if exists {
			return nil, wire.StatusObjectNameCollision
		}
		action = wire.FileCreated
	case wire.FileOpenIf:
		if exists {
			action = wire.FileOpened
		} else {
			action = wire.FileCreated
		}
	case wire.FileOverwrite:
		if !exists {
			return nil, wire.StatusObjectNameNotFound
		}
		action = wire.FileOverwritten
	case wire.FileOverwriteIf:
		if exists {
			action = wire.FileOverwritten
		} else {
			action = wire.FileCreated
		}
	case wire.FileSupersede:
		if exists {
			action = wire.FileSuperseded
		} else {
			action = wire.FileCreated
		}
	default:
		return nil, wire.StatusInvalidParameter
	}

	if isDir {
		if action == wire.FileCreated {
			if err := tree.Backend.Mkdir(ctx, cleanPath); err != nil {
				return nil, mapBackendError(err)
			}
		}
	} else {
		switch action {
		case wire.FileCreated:
			f, err = tree.Backend.CreateFile(ctx, cleanPath)
		case wire.FileOverwritten, wire.FileSuperseded:
			f, err = tree.Backend.OpenFile(ctx, cleanPath)
			if err == nil && (req.Disposition == wire.FileOverwrite || req.Disposition == wire.FileOverwriteIf) {
				err = f.Truncate(0)
			}
		default:
			f, err = tree.Backend.OpenFile(ctx, cleanPath)
		}
		if err != nil {
			return nil, mapBackendError(err)
		}
	}

	info, _ = tree.Backend.Stat(ctx, cleanPath)

	parentPath, name := path.Split(cleanPath)
	of := &handle.OpenFile{
		TreeID:        rc.TreeID,
		SessionID:     rc.SessionID,
		Path:          cleanPath,
		IsDirectory:   isDir,
		Backend:       tree.Backend,
		File:          f,
		OpenedAt:      time.Now(),
		DesiredAccess: uint32(req.DesiredAccess),
		CreateOptions: uint32(req.CreateOptions),
		DeletePending: req.CreateOptions&wire.FileDeleteOnClose != 0,
		ParentPath:    strings.TrimSuffix(parentPath, "/"),
		Name:          name,
	}

	durableTimeout := defaultDurableTimeout
	if _, found := wire.FindCreateContext(req.Contexts, wire.CtxDurableHandleRequest); found {
		of.Durable = true
		of.Timeout = durableTimeout
	}

	id := rc.Conn.Handles.Insert(of)
	of.ID = id

	attributeOnly := oplock.IsAttributeOnlyAccess(uint32(req.DesiredAccess))

	var leaseState oplock.LeaseState
	var leaseKey [16]byte
	var grantedLease bool
	var oplockLevel wire.OplockLevel

	if leaseCtx, found := wire.FindCreateContext(req.Contexts, wire.CtxRequestLease); found {
		key, requested, ok := parseLeaseRequest(leaseCtx.Data)
		if ok {
			copy(leaseKey[:], key[:])
			granted, _ := d.Oplocks.RequestLease(ctx, cleanPath, leaseKey, oplock.Holder{ID: id, SessionID: rc.SessionID}, requested, isDir, wantsWrite)
			leaseState = granted
			grantedLease = true
			of.HasLease = true
			of.LeaseKey = leaseKey
		}
	} else if !isDir {
		requestedLevel := legacyOplockLevel(body)
		granted := d.Oplocks.RequestOplock(ctx, cleanPath, oplock.Holder{ID: id, SessionID: rc.SessionID}, requestedLevel, isDir, wantsWrite, attributeOnly)
		oplockLevel = wire.OplockLevel(granted)
		of.OplockLevel = uint8(granted)
	}

	logx.InfoCtx(ctx, "create", "path", cleanPath, "action", action, logx.ClientIP(rc.Conn.RemoteAddr))

	rc.CreatedFileID = id.Bytes()
	rc.HasCreatedFileID = true

	resp := &wire.CreateResponse{
		OplockLevel:    oplockLevel,
		CreateAction:   action,
		CreationTime:   windowsTimestamp(info.CreationTime),
		LastAccessTime: windowsTimestamp(info.LastAccessTime),
		LastWriteTime:  windowsTimestamp(info.LastWriteTime),
		ChangeTime:     windowsTimestamp(info.ChangeTime),
		AllocationSize: uint64(info.Size),
		EndOfFile:      uint64(info.Size),
		FileAttributes: attributesFor(info),
		FileID:         id.Bytes(),
	}

	var contexts []wire.CreateContext
	if _, found := wire.FindCreateContext(req.Contexts, wire.CtxMaximalAccess); found {
		contexts = append(contexts, wire.CreateContext{Name: wire.CtxMaximalAccess, Data: wire.EncodeMxAcContext(wire.AccessMask(tree.MaximalAccess))})
	}
	if _, found := wire.FindCreateContext(req.Contexts, wire.CtxQueryOnDiskID); found {
		contexts = append(contexts, wire.CreateContext{Name: wire.CtxQueryOnDiskID, Data: wire.EncodeQFidContext(info.FileIndex)})
	}
	if of.Durable {
		contexts = append(contexts, wire.CreateContext{Name: wire.CtxDurableHandleRequest, Data: wire.EncodeDurableResponseContext()})
	}
	if grantedLease {
		contexts = append(contexts, wire.CreateContext{Name: wire.CtxRequestLease, Data: encodeLeaseResponse(leaseKey, leaseState)})
	}
	resp.Contexts = contexts

	return resp.Encode(), wire.StatusSuccess
}

// createPipe implements CREATE against an IPC$ tree: rather than
// resolving reqPath against a filesystem backend, it opens a named
// pipe handle if the name is one this server answers (srvsvc), so a
// client's share-enumeration dialog and `net view \\server` both
// work. [MS-SRVS] 3.1.4.8 via internal/pipe.
func (d *Deps) createPipe(rc *dispatch.RequestContext, reqPath string) ([]byte, wire.Status) {
	name := strings.TrimPrefix(strings.ReplaceAll(reqPath, "/", `\`), `\`)
	if !pipe.IsSupportedPipe(name) {
		return nil, wire.StatusObjectNameNotFound
	}

	of := &handle.OpenFile{
		TreeID:    rc.TreeID,
		SessionID: rc.SessionID,
		IsPipe:    true,
		PipeName:  name,
		OpenedAt:  time.Now(),
	}
	id := rc.Conn.Handles.Insert(of)
	of.ID = id
	d.Pipes.Open(id.Volatile, name)

	rc.CreatedFileID = id.Bytes()
	rc.HasCreatedFileID = true

	resp := &wire.CreateResponse{
		CreateAction:   wire.FileOpened,
		FileAttributes: wire.FileAttributeNormal,
		FileID:         id.Bytes(),
	}
	return resp.Encode(), wire.StatusSuccess
}

// createReconnect implements the DHnC path: recovers a durable handle
// parked under its persistent ID and re-inserts it under a fresh
// volatile ID on this connection. [MS-SMB2] 3.3.5.9.7
func (d *Deps) createReconnect(ctx context.Context, rc *dispatch.RequestContext, tree *session.TreeConnect, reconnect wire.CreateContext) ([]byte, wire.Status) {
	if len(reconnect.Data) < 16 {
		return nil, wire.StatusInvalidParameter
	}
	persistentID := binary.LittleEndian.Uint64(reconnect.Data[0:8])

	rec, ok := d.Durable.Reclaim(persistentID, time.Now())
	if !ok {
		return nil, wire.StatusObjectNameNotFound
	}
	if rec.TreeID != rc.TreeID || rec.SessionID != rc.SessionID {
		return nil, wire.StatusAccessDenied
	}

	var f fsbackend.File
	var err error
	if !rec.IsDirectory {
		f, err = tree.Backend.OpenFile(ctx, rec.Path)
		if err != nil {
			return nil, mapBackendError(err)
		}
	}

	parentPath, name := path.Split(rec.Path)
	of := &handle.OpenFile{
		TreeID:      rc.TreeID,
		SessionID:   rc.SessionID,
		Path:        rec.Path,
		IsDirectory: rec.IsDirectory,
		Backend:     tree.Backend,
		File:        f,
		OpenedAt:    time.Now(),
		OplockLevel: rec.OplockLevel,
		Durable:     true,
		Timeout:     defaultDurableTimeout,
		ParentPath:  strings.TrimSuffix(parentPath, "/"),
		Name:        name,
	}
	id := rc.Conn.Handles.Reconnect(of, persistentID)

	granted := oplock.DurableReconnectGrant()
	d.Oplocks.RequestOplock(ctx, rec.Path, oplock.Holder{ID: id, SessionID: rc.SessionID}, granted, rec.IsDirectory, false, false)

	info, _ := tree.Backend.Stat(ctx, rec.Path)

	rc.CreatedFileID = id.Bytes()
	rc.HasCreatedFileID = true

	resp := &wire.CreateResponse{
		OplockLevel:    wire.OplockLevel(granted),
		CreateAction:   wire.FileOpened,
		CreationTime:   windowsTimestamp(info.CreationTime),
		LastAccessTime: windowsTimestamp(info.LastAccessTime),
		LastWriteTime:  windowsTimestamp(info.LastWriteTime),
		ChangeTime:     windowsTimestamp(info.ChangeTime),
		AllocationSize: uint64(info.Size),
		EndOfFile:      uint64(info.Size),
		FileAttributes: attributesFor(info),
		FileID:         id.Bytes(),
		Contexts: []wire.CreateContext{
			{Name: wire.CtxDurableHandleReconnect, Data: wire.EncodeDurableResponseContext()},
		},
	}
	return resp.Encode(), wire.StatusSuccess
}

// legacyOplockLevel reads the pre-lease oplock level a CREATE request
// carries at fixed body offset 2, a field wire.CreateRequest does not
// surface since SMB2.1+ clients request caching via the RqLs context
// instead. [MS-SMB2] 2.2.13.
func legacyOplockLevel(body []byte) oplock.Level {
	if len(body) < 3 {
		return oplock.LevelNone
	}
	switch wire.OplockLevel(body[2]) {
	case wire.OplockLevel(oplock.LevelII):
		return oplock.LevelII
	case wire.OplockLevel(oplock.LevelExclusive):
		return oplock.LevelExclusive
	case wire.OplockLevel(oplock.LevelBatch):
		return oplock.LevelBatch
	default:
		return oplock.LevelNone
	}
}

// parseLeaseRequest decodes the fixed portion of an
// SMB2_CREATE_REQUEST_LEASE context: a 16-byte lease key followed by
// the requested caching state. [MS-SMB2] 2.2.13.2.8.
func parseLeaseRequest(data []byte) (key [16]byte, state oplock.LeaseState, ok bool) {
	if len(data) < 20 {
		return key, state, false
	}
	copy(key[:], data[0:16])
	state = oplock.LeaseState(binary.LittleEndian.Uint32(data[16:20]))
	return key, state, true
}

// encodeLeaseResponse builds the SMB2_CREATE_RESPONSE_LEASE payload:
// lease key, granted state, flags, and a zero lease duration.
func encodeLeaseResponse(key [16]byte, state oplock.LeaseState) []byte {
	buf := make([]byte, 32)
	copy(buf[0:16], key[:])
	binary.LittleEndian.PutUint32(buf[16:20], uint32(state))
	return buf
}

// attributesFor derives the FileAttributes a CREATE response reports
// from the backend's Info.
func attributesFor(info fsbackend.Info) wire.FileAttributes {
	var attrs wire.FileAttributes
	if info.IsDirectory {
		attrs |= wire.FileAttributeDirectory
	}
	if info.ReadOnly {
		attrs |= wire.FileAttributeReadonly
	}
	if info.Hidden {
		attrs |= wire.FileAttributeHidden
	}
	if info.System {
		attrs |= wire.FileAttributeSystem
	}
	if attrs == 0 {
		attrs = wire.FileAttributeNormal
	}
	return attrs
}

// mapBackendError translates a fsbackend sentinel error to the closest
// SMB2 status code.
func mapBackendError(err error) wire.Status {
	switch err {
	case fsbackend.ErrNotExist:
		return wire.StatusObjectNameNotFound
	case fsbackend.ErrExist:
		return wire.StatusObjectNameCollision
	case fsbackend.ErrNotEmpty:
		return wire.StatusDirectoryNotEmpty
	case fsbackend.ErrIsDirectory:
		return wire.StatusFileIsADirectory
	case fsbackend.ErrNotDirectory:
		return wire.StatusNotADirectory
	default:
		return wire.StatusInternalError
	}
}
