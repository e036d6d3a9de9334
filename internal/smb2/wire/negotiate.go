package wire

import (
	"encoding/binary"
)

// NegotiateRequest is the variable-length body of an SMB2 NEGOTIATE
// request: a fixed prefix followed by the client's dialect list.
// [MS-SMB2] 2.2.3
type NegotiateRequest struct {
	SecurityMode uint16
	Capabilities Capabilities
	ClientGuid   [16]byte
	Dialects     []Dialect
}

func ParseNegotiateRequest(body []byte) (*NegotiateRequest, error) {
	if len(body) < 36 {
		return nil, ErrMessageTooShort
	}
	// StructureSize(2) DialectCount(2) SecurityMode(2) Reserved(2)
	// Capabilities(4) ClientGuid(16) ... dialects at offset 36.
	req := &NegotiateRequest{
		SecurityMode: binary.LittleEndian.Uint16(body[4:6]),
		Capabilities: Capabilities(binary.LittleEndian.Uint32(body[8:12])),
		ClientGuid:   [16]byte(body[12:28]),
	}

	n := int(binary.LittleEndian.Uint16(body[2:4]))
	offset := 36
	for i := 0; i < n && offset+2 <= len(body); i++ {
		req.Dialects = append(req.Dialects, Dialect(binary.LittleEndian.Uint16(body[offset:offset+2])))
		offset += 2
	}
	return req, nil
}

// NegotiateResponse is the 65-byte fixed body of an SMB2 NEGOTIATE
// response, followed by the security buffer (an NTLMSSP NegTokenInit
// or raw NTLM Type 2 challenge's outer wrapper is sent separately by
// SESSION_SETUP; NEGOTIATE's buffer usually just advertises the
// mechanism list). [MS-SMB2] 2.2.4
type NegotiateResponse struct {
	SecurityMode   uint16
	DialectRevision Dialect
	ServerGuid     [16]byte
	Capabilities   Capabilities
	MaxTransactSize uint32
	MaxReadSize    uint32
	MaxWriteSize   uint32
	SystemTime     int64
	ServerStartTime int64
	SecurityBuffer []byte
}

func (r *NegotiateResponse) Encode() []byte {
	buf := make([]byte, 65)
	binary.LittleEndian.PutUint16(buf[0:2], 65)
	binary.LittleEndian.PutUint16(buf[2:4], r.SecurityMode)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(r.DialectRevision))
	copy(buf[8:24], r.ServerGuid[:])
	binary.LittleEndian.PutUint32(buf[24:28], uint32(r.Capabilities))
	binary.LittleEndian.PutUint32(buf[28:32], r.MaxTransactSize)
	binary.LittleEndian.PutUint32(buf[32:36], r.MaxReadSize)
	binary.LittleEndian.PutUint32(buf[36:40], r.MaxWriteSize)
	binary.LittleEndian.PutUint64(buf[40:48], uint64(r.SystemTime))
	binary.LittleEndian.PutUint64(buf[48:56], uint64(r.ServerStartTime))

	if len(r.SecurityBuffer) == 0 {
		return buf
	}
	binary.LittleEndian.PutUint16(buf[56:58], uint16(HeaderSize+64))
	binary.LittleEndian.PutUint16(buf[58:60], uint16(len(r.SecurityBuffer)))
	return append(buf[:64], r.SecurityBuffer...)
}
