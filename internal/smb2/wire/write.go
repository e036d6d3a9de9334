package wire

import "encoding/binary"

// WriteRequest is the 48-byte fixed header of an SMB2 WRITE request,
// followed immediately by the data to write. [MS-SMB2] 2.2.21
type WriteRequest struct {
	Offset uint64
	FileID [16]byte
	Data   []byte
}

// ParseWriteRequest decodes an SMB2 WRITE request body.
func ParseWriteRequest(body []byte) (*WriteRequest, error) {
	if len(body) < 48 {
		return nil, ErrMessageTooShort
	}
	dataOffset := binary.LittleEndian.Uint16(body[2:4])
	length := binary.LittleEndian.Uint32(body[4:8])

	bodyDataOffset := int(dataOffset) - HeaderSize
	if bodyDataOffset < 48 {
		bodyDataOffset = 48
	}
	var data []byte
	if bodyDataOffset+int(length) <= len(body) {
		data = body[bodyDataOffset : bodyDataOffset+int(length)]
	}

	return &WriteRequest{
		Offset: binary.LittleEndian.Uint64(body[8:16]),
		FileID: [16]byte(body[16:32]),
		Data:   data,
	}, nil
}

// WriteResponse is the 16-byte fixed body of an SMB2 WRITE response.
// [MS-SMB2] 2.2.22
type WriteResponse struct {
	Count uint32
}

func (r *WriteResponse) Encode() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint16(buf[0:2], 17)
	binary.LittleEndian.PutUint32(buf[4:8], r.Count)
	return buf
}
