package handlers

import (
	"context"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Close implements SMB2_CLOSE: releases the handle and, if it was the
// last open on a file marked delete-pending, unlinks it. [MS-SMB2] 3.3.5.10
func (d *Deps) Close(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseCloseRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, closeErr := rc.Conn.Handles.Close(id.Volatile)
	if closeErr != nil {
		return nil, wire.StatusFileClosed
	}

	if of.IsPipe {
		d.Pipes.Close(id.Volatile)
		return (&wire.CloseResponse{}).Encode(), wire.StatusSuccess
	}

	d.Oplocks.Detach(of.Path, id.Volatile)
	if of.HasLease {
		d.Oplocks.DetachLease(of.LeaseKey, id.Volatile)
	}
	d.Locks.releaseAll(of.Path, id.Volatile)

	if of.File != nil {
		_ = of.File.Close()
	}
	if of.DeletePending {
		if of.IsDirectory {
			_ = of.Backend.Rmdir(ctx, of.Path)
		} else {
			_ = of.Backend.Remove(ctx, of.Path)
		}
	}

	resp := &wire.CloseResponse{}
	if req.Flags&wire.ClosePostQueryAttrib != 0 && of.Backend != nil {
		if info, statErr := of.Backend.Stat(ctx, of.Path); statErr == nil {
			resp.Flags = wire.ClosePostQueryAttrib
			resp.CreationTime = windowsTimestamp(info.CreationTime)
			resp.LastAccessTime = windowsTimestamp(info.LastAccessTime)
			resp.LastWriteTime = windowsTimestamp(info.LastWriteTime)
			resp.ChangeTime = windowsTimestamp(info.ChangeTime)
			resp.AllocationSize = uint64(info.Size)
			resp.EndOfFile = uint64(info.Size)
			resp.FileAttributes = attributesFor(info)
		}
	}
	return resp.Encode(), wire.StatusSuccess
}

// Flush implements SMB2_FLUSH: commits any buffered writes to stable
// storage. [MS-SMB2] 3.3.5.11
func (d *Deps) Flush(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseFlushRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}
	if of.File != nil {
		if err := of.File.Sync(); err != nil {
			return nil, wire.StatusInternalError
		}
	}

	resp := &wire.FlushResponse{}
	return resp.Encode(), wire.StatusSuccess
}
