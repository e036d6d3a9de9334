package wire

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed size of an SMB2 header in bytes. [MS-SMB2] 2.2.1
const HeaderSize = 64

var (
	ErrInvalidProtocolID = errors.New("wire: invalid SMB2 protocol ID")
	ErrMessageTooShort    = errors.New("wire: message too short for SMB2 header")
	ErrInvalidHeaderSize  = errors.New("wire: invalid SMB2 header structure size")
)

// Header is the common 64-byte SMB2 message header shared by requests and
// responses. Some fields change meaning depending on direction: Status
// carries ChannelSequence+Reserved in a request and NT_STATUS in a
// response; Credits carries CreditRequest in a request and CreditResponse
// in a response. [MS-SMB2] 2.2.1
type Header struct {
	CreditCharge uint16
	Status       Status
	Command      Command
	Credits      uint16
	Flags        HeaderFlags
	NextCommand  uint32
	MessageID    uint64
	Reserved     uint32 // ProcessID (sync) or high AsyncID (async)
	TreeID       uint32
	SessionID    uint64
	Signature    [16]byte
}

func (h *Header) IsResponse() bool { return h.Flags.IsResponse() }
func (h *Header) IsAsync() bool    { return h.Flags.IsAsync() }
func (h *Header) IsSigned() bool   { return h.Flags.IsSigned() }
func (h *Header) IsRelated() bool  { return h.Flags.IsRelated() }

// ParseHeader extracts a Header from the first 64 bytes of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrMessageTooShort
	}
	if binary.LittleEndian.Uint32(data[0:4]) != SMB2ProtocolID {
		return nil, ErrInvalidProtocolID
	}
	if structureSize := binary.LittleEndian.Uint16(data[4:6]); structureSize != HeaderSize {
		return nil, ErrInvalidHeaderSize
	}

	h := &Header{
		CreditCharge: binary.LittleEndian.Uint16(data[6:8]),
		Status:       Status(binary.LittleEndian.Uint32(data[8:12])),
		Command:      Command(binary.LittleEndian.Uint16(data[12:14])),
		Credits:      binary.LittleEndian.Uint16(data[14:16]),
		Flags:        HeaderFlags(binary.LittleEndian.Uint32(data[16:20])),
		NextCommand:  binary.LittleEndian.Uint32(data[20:24]),
		MessageID:    binary.LittleEndian.Uint64(data[24:32]),
		Reserved:     binary.LittleEndian.Uint32(data[32:36]),
		TreeID:       binary.LittleEndian.Uint32(data[36:40]),
		SessionID:    binary.LittleEndian.Uint64(data[40:48]),
	}
	copy(h.Signature[:], data[48:64])
	return h, nil
}

// Encode serializes the header to its 64-byte wire form.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], SMB2ProtocolID)
	binary.LittleEndian.PutUint16(buf[4:6], HeaderSize)
	binary.LittleEndian.PutUint16(buf[6:8], h.CreditCharge)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.Status))
	binary.LittleEndian.PutUint16(buf[12:14], uint16(h.Command))
	binary.LittleEndian.PutUint16(buf[14:16], h.Credits)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.Flags))
	binary.LittleEndian.PutUint32(buf[20:24], h.NextCommand)
	binary.LittleEndian.PutUint64(buf[24:32], h.MessageID)
	binary.LittleEndian.PutUint32(buf[32:36], h.Reserved)
	binary.LittleEndian.PutUint32(buf[36:40], h.TreeID)
	binary.LittleEndian.PutUint64(buf[40:48], h.SessionID)
	copy(buf[48:64], h.Signature[:])
	return buf
}

// IsSMB2Message reports whether data begins with the SMB2 protocol id,
// used to distinguish an SMB2 NEGOTIATE from a legacy SMB1 one on the
// same listener.
func IsSMB2Message(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[0:4]) == SMB2ProtocolID
}

// IsSMB1Message reports whether data begins with the SMB1 protocol id.
// A conforming server answers this with an SMB2 NEGOTIATE response
// advertising dialect 2.0.2, per the negotiate-upgrade path in §4.A/§4.G.
func IsSMB1Message(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[0:4]) == SMB1ProtocolID
}

// NewResponseHeader builds a response header from the originating request
// header, carrying MessageID/TreeID/SessionID/CreditCharge forward and
// marking FlagResponse.
func NewResponseHeader(req *Header, status Status) *Header {
	credits := req.Credits
	if credits < 1 {
		credits = 1
	}
	return &Header{
		CreditCharge: req.CreditCharge,
		Status:       status,
		Command:      req.Command,
		Credits:      credits,
		Flags:        FlagResponse,
		MessageID:    req.MessageID,
		TreeID:       req.TreeID,
		SessionID:    req.SessionID,
	}
}

// NewResponseHeaderWithCredits is NewResponseHeader with an explicit
// credit grant, used by the dispatcher's credit-accounting pass (§4.F).
func NewResponseHeaderWithCredits(req *Header, status Status, credits uint16) *Header {
	h := NewResponseHeader(req, status)
	h.Credits = credits
	return h
}
