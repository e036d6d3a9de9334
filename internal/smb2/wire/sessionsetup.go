package wire

import "encoding/binary"

// SessionSetupRequest is the 24-byte fixed body of an SMB2
// SESSION_SETUP request, plus its security buffer (an NTLMSSP
// NEGOTIATE or AUTHENTICATE message, optionally SPNEGO-wrapped).
// [MS-SMB2] 2.2.5
type SessionSetupRequest struct {
	Flags           uint8
	SecurityMode    uint8
	Capabilities    Capabilities
	PreviousSessionID uint64
	SecurityBuffer  []byte
}

func ParseSessionSetupRequest(body []byte) (*SessionSetupRequest, error) {
	if len(body) < 24 {
		return nil, ErrMessageTooShort
	}
	req := &SessionSetupRequest{
		Flags:             body[2],
		SecurityMode:      body[3],
		Capabilities:      Capabilities(binary.LittleEndian.Uint32(body[4:8])),
		PreviousSessionID: binary.LittleEndian.Uint64(body[16:24]),
	}

	secOffset := binary.LittleEndian.Uint16(body[12:14])
	secLength := binary.LittleEndian.Uint16(body[14:16])
	bodyOffset := int(secOffset) - HeaderSize
	if bodyOffset < 24 {
		bodyOffset = 24
	}
	if secLength > 0 && bodyOffset+int(secLength) <= len(body) {
		req.SecurityBuffer = body[bodyOffset : bodyOffset+int(secLength)]
	}
	return req, nil
}

// SessionSetupResponse is the 8-byte fixed body of an SMB2
// SESSION_SETUP response, plus its security buffer (an NTLMSSP
// CHALLENGE message on the first leg, an accept-complete SPNEGO
// wrapper on the second). [MS-SMB2] 2.2.6
type SessionSetupResponse struct {
	SessionFlags   SessionFlags
	SecurityBuffer []byte
}

func (r *SessionSetupResponse) Encode() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], 9)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(r.SessionFlags))

	if len(r.SecurityBuffer) == 0 {
		return buf
	}
	binary.LittleEndian.PutUint16(buf[4:6], uint16(HeaderSize+8))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(r.SecurityBuffer)))
	return append(buf, r.SecurityBuffer...)
}
