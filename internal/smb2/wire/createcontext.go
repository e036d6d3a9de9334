package wire

import "encoding/binary"

// CreateContext is one entry in the SMB2_CREATE_CONTEXT chain attached
// to a CREATE request or response. [MS-SMB2] 2.2.13.2
type CreateContext struct {
	Name CreateContextName
	Data []byte
}

// align8 rounds n up to the next multiple of 8, the padding every
// create-context entry (and its enclosing chain) is aligned to.
func align8(n int) int {
	return (n + 7) &^ 7
}

// ParseCreateContexts walks the Next-offset-linked chain of
// SMB2_CREATE_CONTEXT structures starting at data. [MS-SMB2] 2.2.13.2:
// each entry is Next(4) NameOffset(2) NameLength(2) Reserved(2)
// DataOffset(2) DataLength(4), followed by the (8-byte aligned) name and
// data buffers.
func ParseCreateContexts(data []byte) ([]CreateContext, error) {
	var out []CreateContext
	for len(data) > 0 {
		if len(data) < 16 {
			return nil, ErrMessageTooShort
		}
		next := binary.LittleEndian.Uint32(data[0:4])
		nameOffset := binary.LittleEndian.Uint16(data[4:6])
		nameLength := binary.LittleEndian.Uint16(data[6:8])
		dataOffset := binary.LittleEndian.Uint16(data[10:12])
		dataLength := binary.LittleEndian.Uint32(data[12:16])

		nameEnd := int(nameOffset) + int(nameLength)
		if nameEnd > len(data) {
			return nil, ErrMessageTooShort
		}
		name := string(data[nameOffset:nameEnd])

		var body []byte
		if dataLength > 0 {
			dataEnd := int(dataOffset) + int(dataLength)
			if dataEnd > len(data) {
				return nil, ErrMessageTooShort
			}
			body = data[dataOffset:dataEnd]
		}
		out = append(out, CreateContext{Name: CreateContextName(name), Data: body})

		if next == 0 {
			break
		}
		if int(next) >= len(data) {
			break
		}
		data = data[next:]
	}
	return out, nil
}

// EncodeCreateContexts serializes a chain of create contexts into the
// wire form CREATE responses attach at byte 88 of their body, right
// after the fixed fields.
func EncodeCreateContexts(contexts []CreateContext) []byte {
	if len(contexts) == 0 {
		return nil
	}

	var buf []byte
	for i, c := range contexts {
		nameBytes := []byte(c.Name)
		entryLen := 16 + len(nameBytes)
		nameDataGap := align8(entryLen) - entryLen
		dataOffset := entryLen + nameDataGap
		entryTotal := dataOffset + len(c.Data)
		padded := align8(entryTotal)

		entry := make([]byte, padded)
		nameOffset := 16
		binary.LittleEndian.PutUint16(entry[4:6], uint16(nameOffset))
		binary.LittleEndian.PutUint16(entry[6:8], uint16(len(nameBytes)))
		binary.LittleEndian.PutUint16(entry[10:12], uint16(dataOffset))
		binary.LittleEndian.PutUint32(entry[12:16], uint32(len(c.Data)))
		copy(entry[nameOffset:nameOffset+len(nameBytes)], nameBytes)
		copy(entry[dataOffset:dataOffset+len(c.Data)], c.Data)

		if i < len(contexts)-1 {
			binary.LittleEndian.PutUint32(entry[0:4], uint32(len(entry)))
		}
		buf = append(buf, entry...)
	}
	return buf
}

// FindCreateContext returns the first context named name, or ok=false.
func FindCreateContext(contexts []CreateContext, name CreateContextName) (CreateContext, bool) {
	for _, c := range contexts {
		if c.Name == name {
			return c, true
		}
	}
	return CreateContext{}, false
}

// EncodeMxAcContext builds the SMB2_CREATE_QUERY_MAXIMAL_ACCESS_RESPONSE
// payload: a query status followed by the granted access mask.
// [MS-SMB2] 2.2.14.2
func EncodeMxAcContext(maximalAccess AccessMask) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(StatusSuccess))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(maximalAccess))
	return buf
}

// EncodeQFidContext builds the SMB2_CREATE_QUERY_ON_DISK_ID response
// payload: the backend's on-disk file ID followed by 24 reserved bytes.
// [MS-SMB2] 2.2.14.2
func EncodeQFidContext(fileID uint64) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:8], fileID)
	return buf
}

// EncodeDurableResponseContext builds the empty SMB2_CREATE_DURABLE_HANDLE_RESPONSE
// payload (DHnQ ack): 8 reserved bytes. [MS-SMB2] 2.2.14.1
func EncodeDurableResponseContext() []byte {
	return make([]byte, 8)
}
