package handlers

import (
	"context"
	"encoding/binary"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// QueryInfo implements SMB2_QUERY_INFO across its two supported info
// types: per-file metadata and filesystem-wide metadata. Security
// descriptor queries (InfoTypeSecurity) are not supported; this server
// carries no ACL model of its own. [MS-SMB2] 3.3.5.20
func (d *Deps) QueryInfo(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseQueryInfoRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	id := handle.ParseID(req.FileID)
	of, lookupErr := rc.Conn.Handles.Lookup(id.Volatile)
	if lookupErr != nil {
		return nil, wire.StatusFileClosed
	}

	switch req.InfoType {
	case wire.InfoTypeFile:
		return d.queryFileInfo(ctx, of, req)
	case wire.InfoTypeFilesystem:
		return d.queryFilesystemInfo(ctx, of, req)
	default:
		return nil, wire.StatusNotSupported
	}
}

func (d *Deps) queryFileInfo(ctx context.Context, of *handle.OpenFile, req *wire.QueryInfoRequest) ([]byte, wire.Status) {
	if of.Backend == nil {
		return nil, wire.StatusAccessDenied
	}
	info, statErr := of.Backend.Stat(ctx, of.Path)
	if statErr != nil {
		return nil, mapBackendError(statErr)
	}

	var payload []byte
	switch req.FileInfoClass {
	case wire.FileBasicInformation:
		fi := &wire.FileBasicInfo{
			CreationTime:   windowsTimestamp(info.CreationTime),
			LastAccessTime: windowsTimestamp(info.LastAccessTime),
			LastWriteTime:  windowsTimestamp(info.LastWriteTime),
			ChangeTime:     windowsTimestamp(info.ChangeTime),
			FileAttributes: attributesFor(info),
		}
		payload = fi.Encode()
	case wire.FileStandardInformation:
		fi := &wire.FileStandardInfo{
			AllocationSize: uint64(info.Size),
			EndOfFile:      uint64(info.Size),
			NumberOfLinks:  1,
			DeletePending:  of.DeletePending,
			Directory:      info.IsDirectory,
		}
		payload = fi.Encode()
	case wire.FileInternalInformation:
		fi := &wire.FileInternalInfo{IndexNumber: info.FileIndex}
		payload = fi.Encode()
	case wire.FileNetworkOpenInformation:
		fi := &wire.FileNetworkOpenInfo{
			CreationTime:   windowsTimestamp(info.CreationTime),
			LastAccessTime: windowsTimestamp(info.LastAccessTime),
			LastWriteTime:  windowsTimestamp(info.LastWriteTime),
			ChangeTime:     windowsTimestamp(info.ChangeTime),
			AllocationSize: uint64(info.Size),
			EndOfFile:      uint64(info.Size),
			FileAttributes: attributesFor(info),
		}
		payload = fi.Encode()
	case wire.FileEaInformation:
		payload = make([]byte, 4)
	default:
		fi := &wire.FileAllInfo{
			Basic: wire.FileBasicInfo{
				CreationTime:   windowsTimestamp(info.CreationTime),
				LastAccessTime: windowsTimestamp(info.LastAccessTime),
				LastWriteTime:  windowsTimestamp(info.LastWriteTime),
				ChangeTime:     windowsTimestamp(info.ChangeTime),
				FileAttributes: attributesFor(info),
			},
			Standard: wire.FileStandardInfo{
				AllocationSize: uint64(info.Size),
				EndOfFile:      uint64(info.Size),
				NumberOfLinks:  1,
				DeletePending:  of.DeletePending,
				Directory:      info.IsDirectory,
			},
			Internal:    wire.FileInternalInfo{IndexNumber: info.FileIndex},
			AccessFlags: wire.AccessMask(of.DesiredAccess),
			Name:        of.Path,
		}
		if req.FileInfoClass != wire.FileAllInformation {
			return nil, wire.StatusInvalidInfoClass
		}
		payload = fi.Encode()
	}

	if req.OutputBufferLength > 0 && uint32(len(payload)) > req.OutputBufferLength {
		return nil, wire.StatusBufferTooSmall
	}

	resp := &wire.QueryInfoResponse{Data: payload}
	return resp.Encode(), wire.StatusSuccess
}

func (d *Deps) queryFilesystemInfo(ctx context.Context, of *handle.OpenFile, req *wire.QueryInfoRequest) ([]byte, wire.Status) {
	if of.Backend == nil {
		return nil, wire.StatusAccessDenied
	}
	fsInfo, err := of.Backend.StatFS(ctx)
	if err != nil {
		return nil, wire.StatusInternalError
	}

	var payload []byte
	switch wire.FsInfoClass(req.FileInfoClass) {
	case wire.FileFsSizeInformation:
		payload = encodeFsSizeInfo(fsInfo)
	case wire.FileFsFullSizeInfo:
		payload = encodeFsFullSizeInfo(fsInfo)
	case wire.FileFsAttributeInfo:
		payload = encodeFsAttributeInfo()
	case wire.FileFsVolumeInformation:
		payload = encodeFsVolumeInfo(d.ServerName)
	case wire.FileFsDeviceInformation:
		payload = encodeFsDeviceInfo()
	default:
		return nil, wire.StatusInvalidInfoClass
	}

	resp := &wire.QueryInfoResponse{Data: payload}
	return resp.Encode(), wire.StatusSuccess
}

func blockUnits(fsInfo fsbackend.FSInfo) (totalUnits, freeUnits uint64, sectorsPerUnit, bytesPerSector uint32) {
	blockSize := fsInfo.BlockSize
	if blockSize == 0 {
		blockSize = 4096
	}
	return uint64(fsInfo.TotalBytes) / uint64(blockSize), uint64(fsInfo.FreeBytes) / uint64(blockSize), 1, blockSize
}

// encodeFsSizeInfo builds FileFsSizeInformation: total/free allocation
// units, sectors-per-unit, bytes-per-sector. [MS-FSCC] 2.5.8
func encodeFsSizeInfo(fsInfo fsbackend.FSInfo) []byte {
	total, free, sectorsPerUnit, bytesPerSector := blockUnits(fsInfo)
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], total)
	binary.LittleEndian.PutUint64(buf[8:16], free)
	binary.LittleEndian.PutUint32(buf[16:20], sectorsPerUnit)
	binary.LittleEndian.PutUint32(buf[20:24], bytesPerSector)
	return buf
}

// encodeFsFullSizeInfo builds FileFsFullSizeInformation: total/caller-
// available/actual-free allocation units, sectors-per-unit,
// bytes-per-sector. [MS-FSCC] 2.5.4
func encodeFsFullSizeInfo(fsInfo fsbackend.FSInfo) []byte {
	total, free, sectorsPerUnit, bytesPerSector := blockUnits(fsInfo)
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:8], total)
	binary.LittleEndian.PutUint64(buf[8:16], free)
	binary.LittleEndian.PutUint64(buf[16:24], free)
	binary.LittleEndian.PutUint32(buf[24:28], sectorsPerUnit)
	binary.LittleEndian.PutUint32(buf[28:32], bytesPerSector)
	return buf
}

// encodeFsAttributeInfo builds a minimal FileFsAttributeInformation:
// case-sensitive search support, a 255-character max component length,
// and the "NTFS" filesystem name clients expect to see advertised.
// [MS-FSCC] 2.5.1
func encodeFsAttributeInfo() []byte {
	const fileCaseSensitiveSearch = 0x00000001
	const fileUnicodeOnDisk = 0x00000004
	name := wire.EncodeUTF16LE("NTFS")

	buf := make([]byte, 12+len(name))
	binary.LittleEndian.PutUint32(buf[0:4], fileCaseSensitiveSearch|fileUnicodeOnDisk)
	binary.LittleEndian.PutUint32(buf[4:8], 255)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(name)))
	copy(buf[12:], name)
	return buf
}

// encodeFsVolumeInfo builds FileFsVolumeInformation: creation time, a
// fixed serial number, and the server name as the volume label.
// [MS-FSCC] 2.5.9
func encodeFsVolumeInfo(serverName string) []byte {
	name := wire.EncodeUTF16LE(serverName)
	buf := make([]byte, 18+len(name))
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(name)))
	copy(buf[18:], name)
	return buf
}

// encodeFsDeviceInfo builds FileFsDeviceInformation: device type (disk)
// and no special characteristics. [MS-FSCC] 2.5.10
func encodeFsDeviceInfo() []byte {
	const fileDeviceDisk = 0x00000007
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], fileDeviceDisk)
	return buf
}
