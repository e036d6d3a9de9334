package wire

import "encoding/binary"

// IoctlFlags. [MS-SMB2] 2.2.31
type IoctlFlags uint32

const IoctlIsFsctl IoctlFlags = 0x00000001

// IoctlRequest is the 56-byte fixed body of an SMB2 IOCTL request,
// plus its input buffer. [MS-SMB2] 2.2.31
type IoctlRequest struct {
	CtlCode         IoctlCode
	FileID          [16]byte
	Flags           IoctlFlags
	MaxOutputResponse uint32
	Input           []byte
}

func ParseIoctlRequest(body []byte) (*IoctlRequest, error) {
	if len(body) < 56 {
		return nil, ErrMessageTooShort
	}
	req := &IoctlRequest{
		CtlCode:           IoctlCode(binary.LittleEndian.Uint32(body[4:8])),
		FileID:            [16]byte(body[8:24]),
		MaxOutputResponse: binary.LittleEndian.Uint32(body[44:48]),
		Flags:             IoctlFlags(binary.LittleEndian.Uint32(body[48:52])),
	}

	inputOffset := binary.LittleEndian.Uint32(body[24:28])
	inputCount := binary.LittleEndian.Uint32(body[28:32])
	bodyOffset := int(inputOffset) - HeaderSize
	if bodyOffset < 56 {
		bodyOffset = 56
	}
	if inputCount > 0 && bodyOffset+int(inputCount) <= len(body) {
		req.Input = body[bodyOffset : bodyOffset+int(inputCount)]
	}
	return req, nil
}

// IoctlResponse is the 48-byte fixed header of an SMB2 IOCTL response,
// followed by the input-echo (rarely used) and output buffers.
// [MS-SMB2] 2.2.32
type IoctlResponse struct {
	CtlCode IoctlCode
	FileID  [16]byte
	Output  []byte
}

func (r *IoctlResponse) Encode() []byte {
	buf := make([]byte, 48+len(r.Output))
	binary.LittleEndian.PutUint16(buf[0:2], 49)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.CtlCode))
	copy(buf[8:24], r.FileID[:])
	// InputOffset/InputCount left zero: no input echo.
	if len(r.Output) > 0 {
		binary.LittleEndian.PutUint32(buf[32:36], uint32(HeaderSize+48))
		binary.LittleEndian.PutUint32(buf[36:40], uint32(len(r.Output)))
		copy(buf[48:], r.Output)
	}
	return buf
}

// EchoRequest/Response are both the bare 4-byte StructureSize+Reserved
// body. [MS-SMB2] 2.2.28/2.2.29
type EchoRequest struct{}

func ParseEchoRequest(body []byte) (*EchoRequest, error) {
	if len(body) < 4 {
		return nil, ErrMessageTooShort
	}
	return &EchoRequest{}, nil
}

type EchoResponse struct{}

func (r *EchoResponse) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], 4)
	return buf
}

// CancelRequest carries no payload beyond the SMB2 header itself.
// [MS-SMB2] 2.2.30
type CancelRequest struct{}

func ParseCancelRequest(body []byte) (*CancelRequest, error) {
	return &CancelRequest{}, nil
}
