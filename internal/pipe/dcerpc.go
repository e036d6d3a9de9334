// Package pipe implements the DCE/RPC protocol carried over SMB named
// pipes, enough of it to answer the srvsvc calls a Windows client issues
// against \\server\IPC$ when it browses shares.
//
// Reference: [MS-RPCE] Remote Procedure Call Protocol Extensions
// Reference: [C706] DCE 1.1: Remote Procedure Call
package pipe

import (
	"encoding/binary"
	"fmt"
)

// PDU types. [C706] 12.6.4.14
const (
	PDURequest  uint8 = 0
	PDUResponse uint8 = 2
	PDUFault    uint8 = 3
	PDUBind     uint8 = 11
	PDUBindAck  uint8 = 12
	PDUBindNak  uint8 = 13
)

// PDU flags. [C706] 12.6.3.1
const (
	FlagFirstFrag uint8 = 0x01
	FlagLastFrag  uint8 = 0x02
)

// HeaderSize is the size of the common DCE/RPC header.
const HeaderSize = 16

// Header is the 16-byte header every connection-oriented PDU begins
// with. [C706] 12.6.3.1
type Header struct {
	VersionMajor uint8
	VersionMinor uint8
	PacketType   uint8
	Flags        uint8
	DataRep      [4]byte
	FragLength   uint16
	AuthLength   uint16
	CallID       uint32
}

func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("pipe: data too short for DCE/RPC header: %d bytes", len(data))
	}
	h := &Header{
		VersionMajor: data[0],
		VersionMinor: data[1],
		PacketType:   data[2],
		Flags:        data[3],
		FragLength:   binary.LittleEndian.Uint16(data[8:10]),
		AuthLength:   binary.LittleEndian.Uint16(data[10:12]),
		CallID:       binary.LittleEndian.Uint32(data[12:16]),
	}
	copy(h.DataRep[:], data[4:8])
	return h, nil
}

func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.VersionMajor
	buf[1] = h.VersionMinor
	buf[2] = h.PacketType
	buf[3] = h.Flags
	copy(buf[4:8], h.DataRep[:])
	binary.LittleEndian.PutUint16(buf[8:10], h.FragLength)
	binary.LittleEndian.PutUint16(buf[10:12], h.AuthLength)
	binary.LittleEndian.PutUint32(buf[12:16], h.CallID)
	return buf
}

func defaultDataRep() [4]byte { return [4]byte{0x10, 0x00, 0x00, 0x00} }

// SyntaxID is a UUID plus its interface version. [C706] 12.6.3.2
type SyntaxID struct {
	UUID    [16]byte
	Version uint32
}

// PresentationContext is one entry of a Bind PDU's context list.
type PresentationContext struct {
	ContextID         uint16
	NumTransferSyntax uint8
	AbstractSyntax    SyntaxID
	TransferSyntaxes  []SyntaxID
}

// BindRequest is a Bind PDU. [C706] 12.6.4.3
type BindRequest struct {
	Header       Header
	MaxXmitFrag  uint16
	MaxRecvFrag  uint16
	AssocGroupID uint32
	ContextList  []PresentationContext
}

// ParseBindRequest parses the header, the fixed fields, and the first
// presentation context of a Bind PDU; a client binding to srvsvc only
// ever offers one.
func ParseBindRequest(data []byte) (*BindRequest, error) {
	if len(data) < HeaderSize+9 {
		return nil, fmt.Errorf("pipe: bind request too short")
	}
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.PacketType != PDUBind {
		return nil, fmt.Errorf("pipe: not a bind PDU: type %d", hdr.PacketType)
	}

	req := &BindRequest{
		Header:       *hdr,
		MaxXmitFrag:  binary.LittleEndian.Uint16(data[16:18]),
		MaxRecvFrag:  binary.LittleEndian.Uint16(data[18:20]),
		AssocGroupID: binary.LittleEndian.Uint32(data[20:24]),
	}
	numContexts := data[24]

	if len(data) >= 72 && numContexts > 0 {
		ctx := PresentationContext{
			ContextID:         binary.LittleEndian.Uint16(data[28:30]),
			NumTransferSyntax: data[30],
		}
		copy(ctx.AbstractSyntax.UUID[:], data[32:48])
		ctx.AbstractSyntax.Version = binary.LittleEndian.Uint32(data[48:52])
		if ctx.NumTransferSyntax > 0 {
			var ts SyntaxID
			copy(ts.UUID[:], data[52:68])
			ts.Version = binary.LittleEndian.Uint32(data[68:72])
			ctx.TransferSyntaxes = append(ctx.TransferSyntaxes, ts)
		}
		req.ContextList = append(req.ContextList, ctx)
	}
	return req, nil
}

// ContextResult is one presentation-context negotiation outcome.
type ContextResult struct {
	Result         uint16
	Reason         uint16
	TransferSyntax SyntaxID
}

// BindAck is a Bind_ack PDU. [C706] 12.6.4.4
type BindAck struct {
	MaxXmitFrag  uint16
	MaxRecvFrag  uint16
	AssocGroupID uint32
	SecAddr      string
	Results      []ContextResult
}

func (ba *BindAck) Encode(callID uint32) []byte {
	secAddrLen := len(ba.SecAddr) + 1
	offsetAfterSecAddr := 26 + secAddrLen
	secAddrPadding := (4 - (offsetAfterSecAddr % 4)) % 4
	resultsLen := len(ba.Results) * 24
	bodySize := 8 + 2 + secAddrLen + secAddrPadding + 4 + resultsLen
	fragLen := HeaderSize + bodySize

	hdr := Header{
		VersionMajor: 5,
		PacketType:   PDUBindAck,
		Flags:        FlagFirstFrag | FlagLastFrag,
		DataRep:      defaultDataRep(),
		FragLength:   uint16(fragLen),
		CallID:       callID,
	}

	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.Encode())

	offset := 16
	binary.LittleEndian.PutUint16(buf[offset:], ba.MaxXmitFrag)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], ba.MaxRecvFrag)
	offset += 2
	binary.LittleEndian.PutUint32(buf[offset:], ba.AssocGroupID)
	offset += 4

	binary.LittleEndian.PutUint16(buf[offset:], uint16(secAddrLen))
	offset += 2
	copy(buf[offset:], ba.SecAddr)
	offset += secAddrLen + secAddrPadding

	buf[offset] = uint8(len(ba.Results))
	offset += 4

	for _, r := range ba.Results {
		binary.LittleEndian.PutUint16(buf[offset:], r.Result)
		offset += 2
		binary.LittleEndian.PutUint16(buf[offset:], r.Reason)
		offset += 2
		copy(buf[offset:], r.TransferSyntax.UUID[:])
		offset += 16
		binary.LittleEndian.PutUint32(buf[offset:], r.TransferSyntax.Version)
		offset += 4
	}
	return buf
}

// Request is a Request PDU. [C706] 12.6.4.9
type Request struct {
	Header    Header
	AllocHint uint32
	ContextID uint16
	OpNum     uint16
	StubData  []byte
}

func ParseRequest(data []byte) (*Request, error) {
	if len(data) < HeaderSize+8 {
		return nil, fmt.Errorf("pipe: request PDU too short")
	}
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.PacketType != PDURequest {
		return nil, fmt.Errorf("pipe: not a request PDU: type %d", hdr.PacketType)
	}

	req := &Request{
		Header:    *hdr,
		AllocHint: binary.LittleEndian.Uint32(data[16:20]),
		ContextID: binary.LittleEndian.Uint16(data[20:22]),
		OpNum:     binary.LittleEndian.Uint16(data[22:24]),
	}
	stubEnd := int(hdr.FragLength) - int(hdr.AuthLength)
	if stubEnd > 24 && stubEnd <= len(data) {
		req.StubData = data[24:stubEnd]
	}
	return req, nil
}

// Response is a Response PDU. [C706] 12.6.4.10
type Response struct {
	AllocHint   uint32
	ContextID   uint16
	CancelCount uint8
	StubData    []byte
}

func (r *Response) Encode(callID uint32) []byte {
	fragLen := HeaderSize + 8 + len(r.StubData)
	hdr := Header{
		VersionMajor: 5,
		PacketType:   PDUResponse,
		Flags:        FlagFirstFrag | FlagLastFrag,
		DataRep:      defaultDataRep(),
		FragLength:   uint16(fragLen),
		CallID:       callID,
	}

	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.Encode())
	binary.LittleEndian.PutUint32(buf[16:20], r.AllocHint)
	binary.LittleEndian.PutUint16(buf[20:22], r.ContextID)
	buf[22] = r.CancelCount
	copy(buf[24:], r.StubData)
	return buf
}

// buildFault builds a Fault PDU reporting status against opnum/context
// dispatch failures (nca_op_rng_error for an unknown opnum).
func buildFault(callID uint32, contextID uint16, status uint32) []byte {
	fragLen := HeaderSize + 16
	hdr := Header{
		VersionMajor: 5,
		PacketType:   PDUFault,
		Flags:        FlagFirstFrag | FlagLastFrag,
		DataRep:      defaultDataRep(),
		FragLength:   uint16(fragLen),
		CallID:       callID,
	}
	buf := make([]byte, fragLen)
	copy(buf[0:16], hdr.Encode())
	binary.LittleEndian.PutUint16(buf[20:22], contextID)
	binary.LittleEndian.PutUint32(buf[24:28], status)
	return buf
}

const ncaOpRngError uint32 = 0x1C010003
