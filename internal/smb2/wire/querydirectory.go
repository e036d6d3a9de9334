package wire

import "encoding/binary"

// QueryDirectoryRequest is the 32-byte fixed body of an SMB2
// QUERY_DIRECTORY request, plus its variable search pattern.
// [MS-SMB2] 2.2.33
type QueryDirectoryRequest struct {
	FileInfoClass FileInfoClass
	Flags         QueryDirectoryFlags
	FileIndex     uint32
	FileID        [16]byte
	OutputBufferLength uint32
	Pattern       string
}

func ParseQueryDirectoryRequest(body []byte) (*QueryDirectoryRequest, error) {
	if len(body) < 32 {
		return nil, ErrMessageTooShort
	}
	req := &QueryDirectoryRequest{
		FileInfoClass:      FileInfoClass(body[2]),
		Flags:              QueryDirectoryFlags(body[3]),
		FileIndex:          binary.LittleEndian.Uint32(body[4:8]),
		FileID:             [16]byte(body[8:24]),
		OutputBufferLength: binary.LittleEndian.Uint32(body[28:32]),
	}

	nameOffset := binary.LittleEndian.Uint16(body[24:26])
	nameLength := binary.LittleEndian.Uint16(body[26:28])
	bodyOffset := int(nameOffset) - HeaderSize
	if bodyOffset < 32 {
		bodyOffset = 32
	}
	if nameLength > 0 && bodyOffset+int(nameLength) <= len(body) {
		req.Pattern = DecodeUTF16LE(body[bodyOffset : bodyOffset+int(nameLength)])
	}
	return req, nil
}

// QueryDirectoryResponse is the 8-byte fixed header of an SMB2
// QUERY_DIRECTORY response, followed by the encoded directory entries.
// [MS-SMB2] 2.2.34
type QueryDirectoryResponse struct {
	Data []byte
}

func (r *QueryDirectoryResponse) Encode() []byte {
	buf := make([]byte, 8+len(r.Data))
	binary.LittleEndian.PutUint16(buf[0:2], 9)
	if len(r.Data) > 0 {
		binary.LittleEndian.PutUint16(buf[2:4], uint16(HeaderSize+8))
	}
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(r.Data)))
	copy(buf[8:], r.Data)
	return buf
}

// DirEntry is one backend directory entry the QUERY_DIRECTORY handler
// encodes into a FileIdBothDirectoryInformation/FileBothDirectoryInformation/
// FileNamesInformation record, depending on the request's FileInfoClass.
type DirEntry struct {
	Name           string
	IsDirectory    bool
	Size           uint64
	AllocationSize uint64
	Attributes     FileAttributes
	CreationTime   int64
	LastAccessTime int64
	LastWriteTime  int64
	ChangeTime     int64
	FileID         uint64
}

// EncodeDirEntries serializes a slice of directory entries into the
// NextEntryOffset-linked chain QUERY_DIRECTORY responses carry, using
// the info class the request asked for. Entries that don't fit within
// maxBytes are dropped; the handler tells the client via StatusMoreEntries.
func EncodeDirEntries(entries []DirEntry, class FileInfoClass, maxBytes uint32) ([]byte, int) {
	var out []byte
	used := 0
	for i, e := range entries {
		rec := encodeDirEntry(e, class)
		padded := align8(len(rec))
		if used > 0 && uint32(used+padded) > maxBytes {
			return out, i
		}
		entry := make([]byte, padded)
		copy(entry, rec)
		if i < len(entries)-1 {
			// NextEntryOffset is patched once we know this isn't the
			// last entry actually emitted; patch happens in the loop
			// below instead to keep single-pass semantics simple.
		}
		out = append(out, entry...)
		used += padded
	}
	patchNextEntryOffsets(out, class)
	return out, len(entries)
}

func patchNextEntryOffsets(buf []byte, class FileInfoClass) {
	// Re-walk the fixed records by their own NextEntryOffset field,
	// zero until patched, to set each but the last to its neighbor's
	// start. Every encodeDirEntry variant keeps NextEntryOffset as its
	// first 4 bytes, so this walk is class-independent.
	offset := 0
	for offset < len(buf) {
		recLen := recordLength(buf[offset:], class)
		if offset+recLen >= len(buf) {
			break
		}
		binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(recLen))
		offset += recLen
	}
}

// recordLength recovers one padded record's length by reading back the
// FileNameLength field at the fixed offset for class and adding the
// header size, then rounding to the same 8-byte alignment used to
// encode it.
func recordLength(buf []byte, class FileInfoClass) int {
	nameLenOffset, headerLen := dirEntryLayout(class)
	if len(buf) < nameLenOffset+4 {
		return len(buf)
	}
	nameLen := int(binary.LittleEndian.Uint32(buf[nameLenOffset : nameLenOffset+4]))
	return align8(headerLen + nameLen)
}

func dirEntryLayout(class FileInfoClass) (nameLengthOffset, headerLen int) {
	switch class {
	case FileIdBothDirectoryInformation:
		return 60, 104
	case FileBothDirectoryInformation:
		return 60, 94
	case FileIdFullDirectoryInformation:
		return 60, 80
	case FileFullDirectoryInformation:
		return 60, 68
	case FileNamesInformation:
		return 8, 12
	default:
		return 60, 68
	}
}

func encodeDirEntry(e DirEntry, class FileInfoClass) []byte {
	nameBytes := EncodeUTF16LE(e.Name)
	attrs := e.Attributes
	if e.IsDirectory {
		attrs |= FileAttributeDirectory
	}

	switch class {
	case FileNamesInformation:
		buf := make([]byte, 12+len(nameBytes))
		binary.LittleEndian.PutUint32(buf[8:12], uint32(len(nameBytes)))
		copy(buf[12:], nameBytes)
		return buf
	case FileIdBothDirectoryInformation:
		buf := make([]byte, 104+len(nameBytes))
		fillDirectoryCommon(buf, e, attrs, nameBytes, 104)
		binary.LittleEndian.PutUint64(buf[96:104], e.FileID)
		return buf
	case FileBothDirectoryInformation:
		buf := make([]byte, 94+len(nameBytes))
		fillDirectoryCommon(buf, e, attrs, nameBytes, 94)
		return buf
	case FileIdFullDirectoryInformation:
		buf := make([]byte, 80+len(nameBytes))
		fillDirectoryFull(buf, e, attrs, nameBytes)
		binary.LittleEndian.PutUint64(buf[72:80], e.FileID)
		return buf
	default: // FileFullDirectoryInformation and anything unrecognized
		buf := make([]byte, 68+len(nameBytes))
		fillDirectoryFull(buf, e, attrs, nameBytes)
		return buf
	}
}

// fillDirectoryCommon fills the FILE_BOTH_DIR_INFORMATION-shaped prefix
// (shared by Both/IdBoth variants): offset 0 NextEntryOffset, 4
// FileIndex, 8-40 timestamps, 40 EndOfFile, 48 AllocationSize, 56
// FileAttributes, 60 FileNameLength, 64 EaSize, 68 ShortNameLength, 69
// Reserved, 70 ShortName(24), 94 Reserved2(2) only for IdBoth, 96 FileId.
func fillDirectoryCommon(buf []byte, e DirEntry, attrs FileAttributes, nameBytes []byte, nameOffset int) {
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.CreationTime))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.LastAccessTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(e.LastWriteTime))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(e.ChangeTime))
	binary.LittleEndian.PutUint64(buf[40:48], e.Size)
	binary.LittleEndian.PutUint64(buf[48:56], e.AllocationSize)
	binary.LittleEndian.PutUint32(buf[56:60], uint32(attrs))
	binary.LittleEndian.PutUint32(buf[60:64], uint32(len(nameBytes)))
	copy(buf[nameOffset:], nameBytes)
}

func fillDirectoryFull(buf []byte, e DirEntry, attrs FileAttributes, nameBytes []byte) {
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.CreationTime))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.LastAccessTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(e.LastWriteTime))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(e.ChangeTime))
	binary.LittleEndian.PutUint64(buf[40:48], e.Size)
	binary.LittleEndian.PutUint64(buf[48:56], e.AllocationSize)
	binary.LittleEndian.PutUint32(buf[56:60], uint32(attrs))
	binary.LittleEndian.PutUint32(buf[60:64], uint32(len(nameBytes)))
	copy(buf[68:], nameBytes)
}
