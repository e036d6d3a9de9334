package handlers

import (
	"context"
	"path"
	"strings"

	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// SetInfo implements SMB2_SET_INFO: rename, delete-on-close,
// truncate/extend, timestamp/attribute, and allocation-size changes,
// dispatched by FileInfoClass. [MS-SMB2] 3.3.5.21
func (d *Deps) SetInfo(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseSetInfoRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}
	if req.InfoType != wire.InfoTypeFile {
		return nil, wire.StatusNotSupported
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}
	if of.Backend == nil {
		return nil, wire.StatusAccessDenied
	}

	var status wire.Status
	switch req.FileInfoClass {
	case wire.FileRenameInformation:
		status = d.setRename(ctx, rc, of, req.Buffer)
	case wire.FileDispositionInformation:
		status = d.setDisposition(of, req.Buffer)
	case wire.FileEndOfFileInformation:
		status = setEndOfFile(of, req.Buffer)
	case wire.FileAllocationInformation:
		status = setAllocation(of, req.Buffer)
	case wire.FileBasicInformation:
		status = setBasicInfo(ctx, of, req.Buffer)
	default:
		return nil, wire.StatusNotSupported
	}
	if !status.IsSuccess() {
		return nil, status
	}

	resp := &wire.SetInfoResponse{}
	return resp.Encode(), wire.StatusSuccess
}

func (d *Deps) setRename(ctx context.Context, rc *dispatch.RequestContext, of *handle.OpenFile, buf []byte) wire.Status {
	rename, err := wire.ParseFileRenameInfo(buf)
	if err != nil {
		return wire.StatusInvalidParameter
	}

	newPath := path.Clean("/" + rename.FileName)
	newPath = strings.TrimPrefix(newPath, "/")

	if err := of.Backend.Rename(ctx, of.Path, newPath, rename.ReplaceIfExists); err != nil {
		return mapBackendError(err)
	}

	oldPath := of.Path
	of.Path = newPath
	parentPath, name := path.Split(newPath)
	of.ParentPath = strings.TrimSuffix(parentPath, "/")
	of.Name = name
	d.Oplocks.Detach(oldPath, of.ID.Volatile)
	return wire.StatusSuccess
}

func (d *Deps) setDisposition(of *handle.OpenFile, buf []byte) wire.Status {
	disp, err := wire.ParseFileDispositionInfo(buf)
	if err != nil {
		return wire.StatusInvalidParameter
	}
	if disp.DeletePending && of.IsDirectory {
		entries, listErr := of.Backend.ReadDir(context.Background(), of.Path)
		if listErr == nil && len(entries) > 0 {
			return wire.StatusDirectoryNotEmpty
		}
	}
	of.DeletePending = disp.DeletePending
	return wire.StatusSuccess
}

func setEndOfFile(of *handle.OpenFile, buf []byte) wire.Status {
	eof, err := wire.ParseFileEndOfFileInfo(buf)
	if err != nil {
		return wire.StatusInvalidParameter
	}
	if of.File == nil {
		return wire.StatusInvalidDeviceRequest
	}
	if err := of.File.Truncate(int64(eof.EndOfFile)); err != nil {
		return wire.StatusInternalError
	}
	return wire.StatusSuccess
}

func setAllocation(of *handle.OpenFile, buf []byte) wire.Status {
	alloc, err := wire.ParseFileAllocationInfo(buf)
	if err != nil {
		return wire.StatusInvalidParameter
	}
	if of.File == nil {
		return wire.StatusInvalidDeviceRequest
	}
	if err := of.File.Truncate(int64(alloc.AllocationSize)); err != nil {
		return wire.StatusInternalError
	}
	return wire.StatusSuccess
}

func setBasicInfo(ctx context.Context, of *handle.OpenFile, buf []byte) wire.Status {
	basic, err := wire.ParseFileBasicInfoSet(buf)
	if err != nil {
		return wire.StatusInvalidParameter
	}

	creation := fromWindowsTimestamp(basic.CreationTime)
	lastAccess := fromWindowsTimestamp(basic.LastAccessTime)
	lastWrite := fromWindowsTimestamp(basic.LastWriteTime)
	change := fromWindowsTimestamp(basic.ChangeTime)
	if err := of.Backend.SetTimes(ctx, of.Path, creation, lastAccess, lastWrite, change); err != nil {
		return mapBackendError(err)
	}

	if basic.FileAttributes != 0 {
		readOnly := basic.FileAttributes&wire.FileAttributeReadonly != 0
		hidden := basic.FileAttributes&wire.FileAttributeHidden != 0
		system := basic.FileAttributes&wire.FileAttributeSystem != 0
		if err := of.Backend.SetAttributes(ctx, of.Path, readOnly, hidden, system); err != nil {
			return mapBackendError(err)
		}
	}
	return wire.StatusSuccess
}
