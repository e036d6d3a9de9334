package wire

import (
	"encoding/binary"
	"fmt"
)

// Negotiate context type IDs. [MS-SMB2] 2.2.3.1
const (
	NegCtxPreauthIntegrity uint16 = 0x0001
	NegCtxEncryption       uint16 = 0x0002
	NegCtxCompression      uint16 = 0x0003
	NegCtxNetname          uint16 = 0x0005
	NegCtxSigningAlgorithm uint16 = 0x0008
)

// Preauth integrity hash and cipher algorithm IDs this server advertises.
const (
	HashAlgSHA512 uint16 = 0x0001

	CipherAES128CCM uint16 = 0x0001
	CipherAES128GCM uint16 = 0x0002
)

// NegotiateContext is one SMB 3.1.1 negotiate context: a typed,
// length-prefixed, 8-byte-aligned TLV entry carried in the NEGOTIATE
// request/response buffer. [MS-SMB2] 2.2.3.1
type NegotiateContext struct {
	ContextType uint16
	Data        []byte
}

// PreauthIntegrityCaps is SMB2_PREAUTH_INTEGRITY_CAPABILITIES.
// [MS-SMB2] 2.2.3.1.1
type PreauthIntegrityCaps struct {
	HashAlgorithms []uint16
	Salt           []byte
}

func (p PreauthIntegrityCaps) Encode() []byte {
	buf := make([]byte, 4+len(p.HashAlgorithms)*2+len(p.Salt))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(p.HashAlgorithms)))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(p.Salt)))
	off := 4
	for _, alg := range p.HashAlgorithms {
		binary.LittleEndian.PutUint16(buf[off:], alg)
		off += 2
	}
	copy(buf[off:], p.Salt)
	return buf
}

func DecodePreauthIntegrityCaps(data []byte) (PreauthIntegrityCaps, error) {
	if len(data) < 4 {
		return PreauthIntegrityCaps{}, fmt.Errorf("wire: preauth integrity caps too short")
	}
	algCount := binary.LittleEndian.Uint16(data[0:2])
	saltLen := binary.LittleEndian.Uint16(data[2:4])
	need := 4 + int(algCount)*2 + int(saltLen)
	if len(data) < need {
		return PreauthIntegrityCaps{}, fmt.Errorf("wire: preauth integrity caps truncated")
	}
	algs := make([]uint16, algCount)
	off := 4
	for i := range algs {
		algs[i] = binary.LittleEndian.Uint16(data[off:])
		off += 2
	}
	salt := make([]byte, saltLen)
	copy(salt, data[off:off+int(saltLen)])
	return PreauthIntegrityCaps{HashAlgorithms: algs, Salt: salt}, nil
}

// EncryptionCaps is SMB2_ENCRYPTION_CAPABILITIES. [MS-SMB2] 2.2.3.1.2
type EncryptionCaps struct {
	Ciphers []uint16
}

func (e EncryptionCaps) Encode() []byte {
	buf := make([]byte, 2+len(e.Ciphers)*2)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(e.Ciphers)))
	off := 2
	for _, c := range e.Ciphers {
		binary.LittleEndian.PutUint16(buf[off:], c)
		off += 2
	}
	return buf
}

func DecodeEncryptionCaps(data []byte) (EncryptionCaps, error) {
	if len(data) < 2 {
		return EncryptionCaps{}, fmt.Errorf("wire: encryption caps too short")
	}
	count := binary.LittleEndian.Uint16(data[0:2])
	if len(data) < 2+int(count)*2 {
		return EncryptionCaps{}, fmt.Errorf("wire: encryption caps truncated")
	}
	ciphers := make([]uint16, count)
	off := 2
	for i := range ciphers {
		ciphers[i] = binary.LittleEndian.Uint16(data[off:])
		off += 2
	}
	return EncryptionCaps{Ciphers: ciphers}, nil
}

// NetnameContext is SMB2_NETNAME_NEGOTIATE_CONTEXT_ID, sent by clients
// only. [MS-SMB2] 2.2.3.1.4
type NetnameContext struct {
	NetName string
}

func DecodeNetnameContext(data []byte) (NetnameContext, error) {
	if len(data) == 0 {
		return NetnameContext{}, nil
	}
	return NetnameContext{NetName: DecodeUTF16LE(data)}, nil
}

// ParseNegotiateContextList parses count negotiate contexts out of data,
// each 8-byte-aligned relative to the start of the list. [MS-SMB2] 2.2.3.1
func ParseNegotiateContextList(data []byte, count int) ([]NegotiateContext, error) {
	if count == 0 {
		return nil, nil
	}
	contexts := make([]NegotiateContext, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("wire: negotiate context %d: missing header", i)
		}
		contextType := binary.LittleEndian.Uint16(data[offset:])
		dataLength := binary.LittleEndian.Uint16(data[offset+2:])
		headerEnd := offset + 8
		if headerEnd+int(dataLength) > len(data) {
			return nil, fmt.Errorf("wire: negotiate context %d: truncated payload", i)
		}
		ctxData := make([]byte, dataLength)
		copy(ctxData, data[headerEnd:headerEnd+int(dataLength)])
		contexts = append(contexts, NegotiateContext{ContextType: contextType, Data: ctxData})

		offset = headerEnd + int(dataLength)
		if i < count-1 && offset%8 != 0 {
			offset += 8 - offset%8
		}
	}
	return contexts, nil
}

// EncodeNegotiateContextList encodes contexts with 8-byte alignment
// padding between entries (never after the last one).
func EncodeNegotiateContextList(contexts []NegotiateContext) []byte {
	if len(contexts) == 0 {
		return nil
	}
	var buf []byte
	for i, ctx := range contexts {
		hdr := make([]byte, 8)
		binary.LittleEndian.PutUint16(hdr[0:2], ctx.ContextType)
		binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(ctx.Data)))
		buf = append(buf, hdr...)
		buf = append(buf, ctx.Data...)
		if i < len(contexts)-1 {
			if pad := len(buf) % 8; pad != 0 {
				buf = append(buf, make([]byte, 8-pad)...)
			}
		}
	}
	return buf
}
