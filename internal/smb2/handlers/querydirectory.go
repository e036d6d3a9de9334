package handlers

import (
	"context"
	"encoding/binary"
	"path"
	"sort"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// QueryDirectory implements SMB2_QUERY_DIRECTORY: lists (and
// incrementally re-lists, across calls) the entries of an open
// directory handle matching a search pattern. [MS-SMB2] 3.3.5.18
func (d *Deps) QueryDirectory(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseQueryDirectoryRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}
	if !of.IsDirectory || of.Backend == nil {
		return nil, wire.StatusInvalidDeviceRequest
	}

	restart := req.Flags&wire.FlagRestartScans != 0 || req.Flags&wire.FlagReopen != 0
	if restart || of.EnumerationPattern == "" {
		of.EnumerationPattern = req.Pattern
		of.EnumerationCookie = nil
		of.EnumerationDone = false
	}
	if of.EnumerationDone {
		return nil, wire.StatusNoMoreFiles
	}

	entries, listErr := of.Backend.ReadDir(ctx, of.Path)
	if listErr != nil {
		return nil, mapBackendError(listErr)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	matched := filterByPattern(entries, of.EnumerationPattern)

	start := 0
	if len(of.EnumerationCookie) == 8 {
		start = int(binary.LittleEndian.Uint64(of.EnumerationCookie))
	}
	if start >= len(matched) {
		of.EnumerationDone = true
		return nil, wire.StatusNoMoreFiles
	}
	pending := matched[start:]

	if req.Flags&wire.FlagReturnSingleEntry != 0 && len(pending) > 1 {
		pending = pending[:1]
	}

	wireEntries := make([]wire.DirEntry, len(pending))
	for i, info := range pending {
		wireEntries[i] = toDirEntry(info)
	}

	maxBytes := req.OutputBufferLength
	if maxBytes == 0 {
		maxBytes = d.MaxTransactSize
	}
	data, consumed := wire.EncodeDirEntries(wireEntries, req.FileInfoClass, maxBytes)
	if consumed == 0 {
		if start == 0 {
			return nil, wire.StatusNoSuchFile
		}
		of.EnumerationDone = true
		return nil, wire.StatusNoMoreFiles
	}

	next := start + consumed
	cookie := make([]byte, 8)
	binary.LittleEndian.PutUint64(cookie, uint64(next))
	of.EnumerationCookie = cookie
	if next >= len(matched) {
		of.EnumerationDone = true
	}

	resp := &wire.QueryDirectoryResponse{Data: data}
	return resp.Encode(), wire.StatusSuccess
}

func filterByPattern(entries []fsbackend.Info, pattern string) []fsbackend.Info {
	if pattern == "" || pattern == "*" {
		return entries
	}
	out := make([]fsbackend.Info, 0, len(entries))
	for _, e := range entries {
		if ok, _ := path.Match(pattern, e.Name); ok {
			out = append(out, e)
		}
	}
	return out
}

func toDirEntry(info fsbackend.Info) wire.DirEntry {
	return wire.DirEntry{
		Name:           info.Name,
		IsDirectory:    info.IsDirectory,
		Size:           uint64(info.Size),
		AllocationSize: uint64(info.Size),
		Attributes:     attributesFor(info),
		CreationTime:   windowsTimestamp(info.CreationTime),
		LastAccessTime: windowsTimestamp(info.LastAccessTime),
		LastWriteTime:  windowsTimestamp(info.LastWriteTime),
		ChangeTime:     windowsTimestamp(info.ChangeTime),
		FileID:         info.FileIndex,
	}
}
