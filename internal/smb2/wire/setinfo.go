package wire

import "encoding/binary"

// SetInfoRequest is the 32-byte fixed body of an SMB2 SET_INFO
// request, plus its variable buffer. [MS-SMB2] 2.2.39
type SetInfoRequest struct {
	InfoType       InfoType
	FileInfoClass  FileInfoClass
	AdditionalInfo uint32
	FileID         [16]byte
	Buffer         []byte
}

func ParseSetInfoRequest(body []byte) (*SetInfoRequest, error) {
	if len(body) < 32 {
		return nil, ErrMessageTooShort
	}
	req := &SetInfoRequest{
		InfoType:       InfoType(body[2]),
		FileInfoClass:  FileInfoClass(body[3]),
		AdditionalInfo: binary.LittleEndian.Uint32(body[12:16]),
		FileID:         [16]byte(body[16:32]),
	}

	bufferLength := binary.LittleEndian.Uint32(body[4:8])
	bufferOffset := binary.LittleEndian.Uint16(body[8:10])
	bodyOffset := int(bufferOffset) - HeaderSize
	if bufferLength > 0 && bodyOffset >= 32 && bodyOffset+int(bufferLength) <= len(body) {
		req.Buffer = body[bodyOffset : bodyOffset+int(bufferLength)]
	}
	return req, nil
}

// SetInfoResponse is the 2-byte fixed body of an SMB2 SET_INFO
// response; it carries no data of its own. [MS-SMB2] 2.2.40
type SetInfoResponse struct{}

func (r *SetInfoResponse) Encode() []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf[0:2], 2)
	return buf
}

// FileRenameInfo is the FileRenameInformation payload SET_INFO carries
// for rename and (via FileDispositionInformation's sibling layout)
// link requests. [MS-FSCC] 2.4.38
type FileRenameInfo struct {
	ReplaceIfExists bool
	RootDirectory   uint64
	FileName        string
}

func ParseFileRenameInfo(buf []byte) (*FileRenameInfo, error) {
	if len(buf) < 20 {
		return nil, ErrMessageTooShort
	}
	nameLen := binary.LittleEndian.Uint32(buf[16:20])
	if 20+int(nameLen) > len(buf) {
		return nil, ErrMessageTooShort
	}
	return &FileRenameInfo{
		ReplaceIfExists: buf[0] != 0,
		RootDirectory:   binary.LittleEndian.Uint64(buf[8:16]),
		FileName:        NormalizePath(DecodeUTF16LE(buf[20 : 20+int(nameLen)])),
	}, nil
}

// FileDispositionInfo is the FileDispositionInformation payload, a
// single byte signaling delete-on-close. [MS-FSCC] 2.4.11
type FileDispositionInfo struct {
	DeletePending bool
}

func ParseFileDispositionInfo(buf []byte) (*FileDispositionInfo, error) {
	if len(buf) < 1 {
		return &FileDispositionInfo{}, nil
	}
	return &FileDispositionInfo{DeletePending: buf[0] != 0}, nil
}

// FileEndOfFileInfo is the FileEndOfFileInformation payload, the new
// EOF offset used to truncate or extend a file. [MS-FSCC] 2.4.13
type FileEndOfFileInfo struct {
	EndOfFile uint64
}

func ParseFileEndOfFileInfo(buf []byte) (*FileEndOfFileInfo, error) {
	if len(buf) < 8 {
		return nil, ErrMessageTooShort
	}
	return &FileEndOfFileInfo{EndOfFile: binary.LittleEndian.Uint64(buf[0:8])}, nil
}

// ParseFileBasicInfoSet decodes the FileBasicInformation payload SET_INFO
// uses to change timestamps/attributes; a zero timestamp or a zero
// FileAttributes value means "leave unchanged" per [MS-FSCC] 2.4.7.
func ParseFileBasicInfoSet(buf []byte) (*FileBasicInfo, error) {
	if len(buf) < 36 {
		return nil, ErrMessageTooShort
	}
	return &FileBasicInfo{
		CreationTime:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		LastAccessTime: int64(binary.LittleEndian.Uint64(buf[8:16])),
		LastWriteTime:  int64(binary.LittleEndian.Uint64(buf[16:24])),
		ChangeTime:     int64(binary.LittleEndian.Uint64(buf[24:32])),
		FileAttributes: FileAttributes(binary.LittleEndian.Uint32(buf[32:36])),
	}, nil
}

// FileAllocationInfo is the FileAllocationInformation payload, the new
// allocation size in bytes. [MS-FSCC] 2.4.4
type FileAllocationInfo struct {
	AllocationSize uint64
}

func ParseFileAllocationInfo(buf []byte) (*FileAllocationInfo, error) {
	if len(buf) < 8 {
		return nil, ErrMessageTooShort
	}
	return &FileAllocationInfo{AllocationSize: binary.LittleEndian.Uint64(buf[0:8])}, nil
}
