package wire

import "encoding/binary"

// CloseRequest is the 24-byte fixed body of an SMB2 CLOSE request.
// [MS-SMB2] 2.2.15
type CloseRequest struct {
	Flags  CloseFlags
	FileID [16]byte
}

func ParseCloseRequest(body []byte) (*CloseRequest, error) {
	if len(body) < 24 {
		return nil, ErrMessageTooShort
	}
	return &CloseRequest{
		Flags:  CloseFlags(binary.LittleEndian.Uint16(body[2:4])),
		FileID: [16]byte(body[8:24]),
	}, nil
}

// CloseResponse is the 60-byte fixed body of an SMB2 CLOSE response.
// When Flags lacks ClosePostQueryAttrib, the timestamp/size/attribute
// fields are simply left zero per [MS-SMB2] 3.3.5.10.
type CloseResponse struct {
	Flags          CloseFlags
	CreationTime   int64
	LastAccessTime int64
	LastWriteTime  int64
	ChangeTime     int64
	AllocationSize uint64
	EndOfFile      uint64
	FileAttributes FileAttributes
}

func (r *CloseResponse) Encode() []byte {
	buf := make([]byte, 60)
	binary.LittleEndian.PutUint16(buf[0:2], 60)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(r.Flags))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.CreationTime))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.LastAccessTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(r.LastWriteTime))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(r.ChangeTime))
	binary.LittleEndian.PutUint64(buf[40:48], r.AllocationSize)
	binary.LittleEndian.PutUint64(buf[48:56], r.EndOfFile)
	binary.LittleEndian.PutUint32(buf[56:60], uint32(r.FileAttributes))
	return buf
}

// FlushRequest is the 24-byte fixed body of an SMB2 FLUSH request.
// [MS-SMB2] 2.2.17
type FlushRequest struct {
	FileID [16]byte
}

func ParseFlushRequest(body []byte) (*FlushRequest, error) {
	if len(body) < 24 {
		return nil, ErrMessageTooShort
	}
	return &FlushRequest{FileID: [16]byte(body[8:24])}, nil
}

// FlushResponse is the 4-byte fixed body of an SMB2 FLUSH response.
// [MS-SMB2] 2.2.18
type FlushResponse struct{}

func (r *FlushResponse) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], 4)
	return buf
}
