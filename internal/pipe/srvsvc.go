package pipe

import (
	"encoding/binary"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// srvsvcInterfaceUUID is 4b324fc8-1670-01d3-1278-5a47bf6ee188.
// [MS-SRVS] 1.9
var srvsvcInterfaceUUID = [16]byte{
	0xc8, 0x4f, 0x32, 0x4b,
	0x70, 0x16,
	0xd3, 0x01,
	0x12, 0x78,
	0x5a, 0x47, 0xbf, 0x6e, 0xe1, 0x88,
}

// ndrTransferSyntaxUUID is 8a885d04-1ceb-11c9-9fe8-08002b104860.
var ndrTransferSyntaxUUID = [16]byte{
	0x04, 0x5d, 0x88, 0x8a,
	0xeb, 0x1c,
	0xc9, 0x11,
	0x9f, 0xe8,
	0x08, 0x00, 0x2b, 0x10, 0x48, 0x60,
}

// SRVSVC operation numbers this handler answers. [MS-SRVS] 3.1.4
const (
	opNetrShareEnum     uint16 = 15
	opNetrServerGetInfo uint16 = 21
)

// Share types. [MS-SRVS] 2.2.2.4
const (
	STypeDiskTree uint32 = 0x00000000
	STypeIPC      uint32 = 0x00000003
	STypeSpecial  uint32 = 0x80000000
)

const nerrSuccess uint32 = 0x00000000

// ShareInfo1 is SHARE_INFO_1. [MS-SRVS] 2.2.4.23
type ShareInfo1 struct {
	Name    string
	Type    uint32
	Comment string
}

// SRVSVCHandler answers the subset of srvsvc a client needs to browse
// \\server's shares and identify the server: NetrShareEnum and
// NetrServerGetInfo.
type SRVSVCHandler struct {
	serverName string
	shares     []ShareInfo1
}

func NewSRVSVCHandler(serverName string, shares []ShareInfo1) *SRVSVCHandler {
	return &SRVSVCHandler{serverName: serverName, shares: shares}
}

func (h *SRVSVCHandler) HandleBind(req *BindRequest) []byte {
	transferSyntax := SyntaxID{UUID: ndrTransferSyntaxUUID, Version: 2}
	if len(req.ContextList) > 0 && len(req.ContextList[0].TransferSyntaxes) > 0 {
		transferSyntax = req.ContextList[0].TransferSyntaxes[0]
	}

	ack := &BindAck{
		MaxXmitFrag:  req.MaxXmitFrag,
		MaxRecvFrag:  req.MaxRecvFrag,
		AssocGroupID: 0x12345678,
		SecAddr:      `\PIPE\srvsvc`,
		Results: []ContextResult{
			{TransferSyntax: transferSyntax},
		},
	}
	return ack.Encode(req.Header.CallID)
}

func (h *SRVSVCHandler) HandleRequest(req *Request) []byte {
	switch req.OpNum {
	case opNetrShareEnum:
		return h.handleNetrShareEnum(req)
	case opNetrServerGetInfo:
		return h.handleNetrServerGetInfo(req)
	default:
		return buildFault(req.Header.CallID, req.ContextID, ncaOpRngError)
	}
}

// handleNetrShareEnum answers NetrShareEnum (opnum 15), always at
// level 1 regardless of what the client asked for: level 1 carries
// enough (name, type, comment) for `net view` and Explorer's share
// browser, and every other level this server would otherwise have to
// support adds fields (permissions, max uses, path) nothing here
// tracks per share. [MS-SRVS] 3.1.4.8
func (h *SRVSVCHandler) handleNetrShareEnum(req *Request) []byte {
	stub := buildShareEnumLevel1Response(h.shares)
	resp := &Response{
		AllocHint: uint32(len(stub)),
		ContextID: req.ContextID,
		StubData:  stub,
	}
	return resp.Encode(req.Header.CallID)
}

func buildShareEnumLevel1Response(shares []ShareInfo1) []byte {
	n := len(shares)
	buf := make([]byte, 0, 256+n*64)

	buf = appendUint32(buf, 1) // Level
	buf = appendUint32(buf, 1) // SHARE_INFO union switch
	buf = appendUint32(buf, 0x00020000) // SHARE_INFO_1_CONTAINER pointer
	buf = appendUint32(buf, uint32(n))  // EntriesRead

	if n > 0 {
		buf = appendUint32(buf, 0x00020004) // Buffer pointer
		buf = appendUint32(buf, uint32(n))  // conformant array max count

		ptr := uint32(0x00020008)
		for i, s := range shares {
			buf = appendUint32(buf, ptr+uint32(i*8)) // Name pointer
			buf = appendUint32(buf, s.Type)
			buf = appendUint32(buf, ptr+uint32(i*8)+4) // Comment pointer
		}
		for _, s := range shares {
			buf = appendNDRString(buf, s.Name)
			buf = appendNDRString(buf, s.Comment)
		}
	} else {
		buf = appendUint32(buf, 0) // Buffer pointer (null)
	}

	buf = appendUint32(buf, uint32(n)) // TotalEntries
	buf = appendUint32(buf, 0)         // ResumeHandle pointer (null)
	buf = appendUint32(buf, nerrSuccess)
	return buf
}

// handleNetrServerGetInfo answers NetrServerGetInfo (opnum 21) at
// level 101 (SERVER_INFO_101): platform, name, version, type, comment.
// [MS-SRVS] 3.1.4.13
func (h *SRVSVCHandler) handleNetrServerGetInfo(req *Request) []byte {
	const platformIDNT uint32 = 500
	const svTypeServer uint32 = 0x00000002 | 0x00000001 // SV_TYPE_SERVER | SV_TYPE_WORKSTATION

	buf := make([]byte, 0, 64)
	buf = appendUint32(buf, 101) // Level
	buf = appendUint32(buf, 0x00020000) // SERVER_INFO_101 pointer
	buf = appendUint32(buf, platformIDNT)
	buf = appendUint32(buf, 0x00020004) // Name pointer
	buf = appendUint32(buf, 6)          // VersionMajor (report as a modern dialect-capable server)
	buf = appendUint32(buf, 3)          // VersionMinor
	buf = appendUint32(buf, svTypeServer)
	buf = appendUint32(buf, 0) // Comment pointer (null)
	buf = appendNDRString(buf, h.serverName)
	buf = appendUint32(buf, nerrSuccess)

	resp := &Response{
		AllocHint: uint32(len(buf)),
		ContextID: req.ContextID,
		StubData:  buf,
	}
	return resp.Encode(req.Header.CallID)
}

// appendNDRString appends a conformant-varying NDR unicode string:
// MaxCount/Offset/ActualCount followed by the UTF-16LE data, null
// terminated and padded to a 4-byte boundary.
func appendNDRString(buf []byte, s string) []byte {
	n := uint32(len(s) + 1)
	buf = appendUint32(buf, n)
	buf = appendUint32(buf, 0)
	buf = appendUint32(buf, n)
	buf = append(buf, wire.EncodeUTF16LE(s)...)
	buf = append(buf, 0, 0)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
