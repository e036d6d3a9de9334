package wire

import "encoding/binary"

// QueryInfoRequest is the 40-byte fixed body of an SMB2 QUERY_INFO
// request, plus an optional input buffer. [MS-SMB2] 2.2.37
type QueryInfoRequest struct {
	InfoType           InfoType
	FileInfoClass      FileInfoClass
	OutputBufferLength uint32
	AdditionalInfo     uint32
	Flags              uint32
	FileID             [16]byte
	Input              []byte
}

func ParseQueryInfoRequest(body []byte) (*QueryInfoRequest, error) {
	if len(body) < 40 {
		return nil, ErrMessageTooShort
	}
	req := &QueryInfoRequest{
		InfoType:           InfoType(body[2]),
		FileInfoClass:      FileInfoClass(body[3]),
		OutputBufferLength: binary.LittleEndian.Uint32(body[4:8]),
		AdditionalInfo:     binary.LittleEndian.Uint32(body[16:20]),
		Flags:              binary.LittleEndian.Uint32(body[20:24]),
		FileID:             [16]byte(body[24:40]),
	}

	inputOffset := binary.LittleEndian.Uint16(body[8:10])
	inputLength := binary.LittleEndian.Uint32(body[12:16])
	bodyOffset := int(inputOffset) - HeaderSize
	if inputLength > 0 && bodyOffset >= 40 && bodyOffset+int(inputLength) <= len(body) {
		req.Input = body[bodyOffset : bodyOffset+int(inputLength)]
	}
	return req, nil
}

// QueryInfoResponse is the 8-byte fixed header of an SMB2 QUERY_INFO
// response, followed by the requested info-class payload. [MS-SMB2] 2.2.38
type QueryInfoResponse struct {
	Data []byte
}

func (r *QueryInfoResponse) Encode() []byte {
	buf := make([]byte, 8+len(r.Data))
	binary.LittleEndian.PutUint16(buf[0:2], 9)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(HeaderSize+8))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(r.Data)))
	copy(buf[8:], r.Data)
	return buf
}

// FileBasicInfo is the FileBasicInformation payload, 40 bytes fixed
// (4 bytes reserved at the end). [MS-FSCC] 2.4.7
type FileBasicInfo struct {
	CreationTime   int64
	LastAccessTime int64
	LastWriteTime  int64
	ChangeTime     int64
	FileAttributes FileAttributes
}

func (i *FileBasicInfo) Encode() []byte {
	buf := make([]byte, 40)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(i.CreationTime))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(i.LastAccessTime))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(i.LastWriteTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(i.ChangeTime))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(i.FileAttributes))
	return buf
}

// FileStandardInfo is the FileStandardInformation payload, 24 bytes.
// [MS-FSCC] 2.4.38
type FileStandardInfo struct {
	AllocationSize uint64
	EndOfFile      uint64
	NumberOfLinks  uint32
	DeletePending  bool
	Directory      bool
}

func (i *FileStandardInfo) Encode() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], i.AllocationSize)
	binary.LittleEndian.PutUint64(buf[8:16], i.EndOfFile)
	binary.LittleEndian.PutUint32(buf[16:20], i.NumberOfLinks)
	if i.DeletePending {
		buf[20] = 1
	}
	if i.Directory {
		buf[21] = 1
	}
	return buf
}

// FileNetworkOpenInfo is the FileNetworkOpenInformation payload, 56
// bytes. [MS-FSCC] 2.4.29
type FileNetworkOpenInfo struct {
	CreationTime   int64
	LastAccessTime int64
	LastWriteTime  int64
	ChangeTime     int64
	AllocationSize uint64
	EndOfFile      uint64
	FileAttributes FileAttributes
}

func (i *FileNetworkOpenInfo) Encode() []byte {
	buf := make([]byte, 56)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(i.CreationTime))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(i.LastAccessTime))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(i.LastWriteTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(i.ChangeTime))
	binary.LittleEndian.PutUint64(buf[32:40], i.AllocationSize)
	binary.LittleEndian.PutUint64(buf[40:48], i.EndOfFile)
	binary.LittleEndian.PutUint32(buf[48:52], uint32(i.FileAttributes))
	return buf
}

// FileInternalInfo is the FileInternalInformation payload, 8 bytes:
// the backend's unique on-disk file index. [MS-FSCC] 2.4.20
type FileInternalInfo struct {
	IndexNumber uint64
}

func (i *FileInternalInfo) Encode() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf[0:8], i.IndexNumber)
	return buf
}

// FileAllInfo composes the FileAllInformation payload out of the basic,
// standard, internal and name sub-structures, the combination clients
// most commonly request to populate a single stat call. [MS-FSCC] 2.4.2
type FileAllInfo struct {
	Basic      FileBasicInfo
	Standard   FileStandardInfo
	Internal   FileInternalInfo
	EaSize     uint32
	AccessFlags AccessMask
	Name       string
}

func (i *FileAllInfo) Encode() []byte {
	basic := i.Basic.Encode()
	standard := i.Standard.Encode()
	internal := i.Internal.Encode()
	nameBytes := EncodeUTF16LE(i.Name)

	buf := make([]byte, 0, 96+len(nameBytes))
	buf = append(buf, basic...)
	buf = append(buf, standard...)
	buf = append(buf, internal...)
	ea := make([]byte, 4)
	binary.LittleEndian.PutUint32(ea, i.EaSize)
	buf = append(buf, ea...)
	access := make([]byte, 4)
	binary.LittleEndian.PutUint32(access, uint32(i.AccessFlags))
	buf = append(buf, access...)
	buf = append(buf, make([]byte, 8)...) // CurrentByteOffset, Mode (4+4)
	align := make([]byte, 4)
	buf = append(buf, align...)
	nameLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(nameLen, uint32(len(nameBytes)))
	buf = append(buf, nameLen...)
	buf = append(buf, nameBytes...)
	return buf
}
