package handlers

import (
	"context"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Lock implements SMB2_LOCK: applies or releases a batch of
// byte-range locks against an open file. [MS-SMB2] 3.3.5.14. Every
// element in a single request must succeed or the whole request is
// rejected and whatever locks it already placed are rolled back.
func (d *Deps) Lock(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseLockRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}

	var applied []wire.LockElement
	for _, lock := range req.Locks {
		if lock.Flags&wire.LockFlagUnlock != 0 {
			if !d.Locks.unlock(of.Path, id.Volatile, lock.Offset, lock.Length) {
				for _, a := range applied {
					d.Locks.unlock(of.Path, id.Volatile, a.Offset, a.Length)
				}
				return nil, wire.StatusRangeNotLocked
			}
			continue
		}

		exclusive := lock.Flags&wire.LockFlagExclusive != 0
		if !d.Locks.tryLock(of.Path, id.Volatile, lock.Offset, lock.Length, exclusive) {
			for _, a := range applied {
				d.Locks.unlock(of.Path, id.Volatile, a.Offset, a.Length)
			}
			if lock.Flags&wire.LockFlagFailImmediately != 0 {
				return nil, wire.StatusLockNotGranted
			}
			return nil, wire.StatusFileLockConflict
		}
		applied = append(applied, lock)
	}

	resp := &wire.LockResponse{}
	return resp.Encode(), wire.StatusSuccess
}
