package wire

import "encoding/binary"

// TreeConnectRequest is the 8-byte fixed header of an SMB2
// TREE_CONNECT request, followed by the UTF-16LE share path
// ("\\server\share"). [MS-SMB2] 2.2.9
type TreeConnectRequest struct {
	Flags uint16
	Path  string
}

func ParseTreeConnectRequest(body []byte) (*TreeConnectRequest, error) {
	if len(body) < 8 {
		return nil, ErrMessageTooShort
	}
	req := &TreeConnectRequest{Flags: binary.LittleEndian.Uint16(body[2:4])}

	pathOffset := binary.LittleEndian.Uint16(body[4:6])
	pathLength := binary.LittleEndian.Uint16(body[6:8])
	bodyOffset := int(pathOffset) - HeaderSize
	if bodyOffset < 8 {
		bodyOffset = 8
	}
	if pathLength > 0 && bodyOffset+int(pathLength) <= len(body) {
		req.Path = DecodeUTF16LE(body[bodyOffset : bodyOffset+int(pathLength)])
	}
	return req, nil
}

// TreeConnectResponse is the 16-byte fixed body of an SMB2
// TREE_CONNECT response. [MS-SMB2] 2.2.10
type TreeConnectResponse struct {
	ShareType     ShareType
	ShareFlags    uint32
	Capabilities  uint32
	MaximalAccess AccessMask
}

func (r *TreeConnectResponse) Encode() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint16(buf[0:2], 16)
	buf[2] = byte(r.ShareType)
	binary.LittleEndian.PutUint32(buf[4:8], r.ShareFlags)
	binary.LittleEndian.PutUint32(buf[8:12], r.Capabilities)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.MaximalAccess))
	return buf
}

// TreeDisconnectRequest/Response are both the bare 4-byte
// StructureSize+Reserved body. [MS-SMB2] 2.2.11/2.2.12
type TreeDisconnectRequest struct{}

func ParseTreeDisconnectRequest(body []byte) (*TreeDisconnectRequest, error) {
	if len(body) < 4 {
		return nil, ErrMessageTooShort
	}
	return &TreeDisconnectRequest{}, nil
}

type TreeDisconnectResponse struct{}

func (r *TreeDisconnectResponse) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], 4)
	return buf
}

// LogoffRequest/Response are both the bare 4-byte
// StructureSize+Reserved body. [MS-SMB2] 2.2.7/2.2.8
type LogoffRequest struct{}

func ParseLogoffRequest(body []byte) (*LogoffRequest, error) {
	if len(body) < 4 {
		return nil, ErrMessageTooShort
	}
	return &LogoffRequest{}, nil
}

type LogoffResponse struct{}

func (r *LogoffResponse) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], 4)
	return buf
}
