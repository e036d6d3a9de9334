package wire

import "encoding/binary"

// ReadRequest is the 49-byte fixed body of an SMB2 READ request.
// [MS-SMB2] 2.2.19
type ReadRequest struct {
	Length        uint32
	Offset        uint64
	FileID        [16]byte
	MinimumCount  uint32
	RemainingBytes uint32
}

// ParseReadRequest decodes an SMB2 READ request body.
func ParseReadRequest(body []byte) (*ReadRequest, error) {
	if len(body) < 48 {
		return nil, ErrMessageTooShort
	}
	return &ReadRequest{
		Length:         binary.LittleEndian.Uint32(body[4:8]),
		Offset:         binary.LittleEndian.Uint64(body[8:16]),
		FileID:         [16]byte(body[16:32]),
		MinimumCount:   binary.LittleEndian.Uint32(body[32:36]),
		RemainingBytes: binary.LittleEndian.Uint32(body[40:44]),
	}, nil
}

// ReadResponse is the 16-byte fixed header of an SMB2 READ response,
// followed by the data buffer itself. [MS-SMB2] 2.2.20
type ReadResponse struct {
	Data          []byte
	DataRemaining uint32
}

// Encode serializes a ReadResponse, placing Data immediately after the
// 16-byte fixed header (DataOffset 80 = HeaderSize+16).
func (r *ReadResponse) Encode() []byte {
	buf := make([]byte, 16+len(r.Data))
	binary.LittleEndian.PutUint16(buf[0:2], 17)
	buf[2] = byte(HeaderSize + 16)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(r.Data)))
	binary.LittleEndian.PutUint32(buf[8:12], r.DataRemaining)
	copy(buf[16:], r.Data)
	return buf
}
