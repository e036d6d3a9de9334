package handlers

import (
	"context"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Read implements SMB2_READ. [MS-SMB2] 3.3.5.12
func (d *Deps) Read(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseReadRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}
	if req.Length > d.MaxReadSize {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}

	if of.IsPipe {
		st, ok := d.Pipes.Get(id.Volatile)
		if !ok {
			return nil, wire.StatusFileClosed
		}
		out := st.Read(int(req.Length))
		if len(out) == 0 {
			return nil, wire.StatusEndOfFile
		}
		resp := &wire.ReadResponse{Data: out}
		return resp.Encode(), wire.StatusSuccess
	}

	if of.IsDirectory || of.File == nil {
		return nil, wire.StatusInvalidDeviceRequest
	}

	buf := make([]byte, req.Length)
	n, readErr := of.File.ReadAt(buf, int64(req.Offset))
	if n == 0 && readErr != nil {
		return nil, wire.StatusEndOfFile
	}

	resp := &wire.ReadResponse{Data: buf[:n]}
	return resp.Encode(), wire.StatusSuccess
}

// Write implements SMB2_WRITE. [MS-SMB2] 3.3.5.13
func (d *Deps) Write(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseWriteRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}
	if uint32(len(req.Data)) > d.MaxWriteSize {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}

	if of.IsPipe {
		st, ok := d.Pipes.Get(id.Volatile)
		if !ok {
			return nil, wire.StatusFileClosed
		}
		if err := st.Write(req.Data); err != nil {
			return nil, wire.StatusInvalidParameter
		}
		resp := &wire.WriteResponse{Count: uint32(len(req.Data))}
		return resp.Encode(), wire.StatusSuccess
	}

	if of.IsDirectory || of.File == nil {
		return nil, wire.StatusInvalidDeviceRequest
	}
	if of.DesiredAccess&uint32(wire.FileWriteData) == 0 && of.DesiredAccess&uint32(wire.FileAppendData) == 0 {
		return nil, wire.StatusAccessDenied
	}

	n, writeErr := of.File.WriteAt(req.Data, int64(req.Offset))
	if writeErr != nil {
		return nil, wire.StatusInternalError
	}

	resp := &wire.WriteResponse{Count: uint32(n)}
	return resp.Encode(), wire.StatusSuccess
}
