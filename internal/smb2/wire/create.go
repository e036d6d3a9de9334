package wire

import "encoding/binary"

// CreateRequest is the fixed 57-byte body of an SMB2 CREATE request,
// plus its variable-length path and create-context chain. [MS-SMB2] 2.2.13
type CreateRequest struct {
	DesiredAccess   AccessMask
	FileAttributes  FileAttributes
	ShareAccess     ShareAccess
	Disposition     CreateDisposition
	CreateOptions   CreateOptions
	Path            string
	Contexts        []CreateContext
}

// ParseCreateRequest decodes an SMB2 CREATE request body. [MS-SMB2] 2.2.13
func ParseCreateRequest(body []byte) (*CreateRequest, error) {
	if len(body) < 56 {
		return nil, ErrMessageTooShort
	}

	req := &CreateRequest{
		DesiredAccess:  AccessMask(binary.LittleEndian.Uint32(body[24:28])),
		FileAttributes: FileAttributes(binary.LittleEndian.Uint32(body[28:32])),
		ShareAccess:    ShareAccess(binary.LittleEndian.Uint32(body[32:36])),
		Disposition:    CreateDisposition(binary.LittleEndian.Uint32(body[36:40])),
		CreateOptions:  CreateOptions(binary.LittleEndian.Uint32(body[40:44])),
	}

	nameOffset := binary.LittleEndian.Uint16(body[44:46])
	nameLength := binary.LittleEndian.Uint16(body[46:48])
	ctxOffset := binary.LittleEndian.Uint32(body[48:52])
	ctxLength := binary.LittleEndian.Uint32(body[52:56])

	bodyNameOffset := int(nameOffset) - HeaderSize
	if nameLength > 0 && bodyNameOffset >= 0 && bodyNameOffset+int(nameLength) <= len(body) {
		req.Path = NormalizePath(DecodeUTF16LE(body[bodyNameOffset : bodyNameOffset+int(nameLength)]))
	}

	bodyCtxOffset := int(ctxOffset) - HeaderSize
	if ctxLength > 0 && bodyCtxOffset >= 0 && bodyCtxOffset+int(ctxLength) <= len(body) {
		contexts, err := ParseCreateContexts(body[bodyCtxOffset : bodyCtxOffset+int(ctxLength)])
		if err != nil {
			return nil, err
		}
		req.Contexts = contexts
	}

	return req, nil
}

// CreateResponse is the fixed 89-byte body of a successful CREATE
// response, plus its optional create-context chain. [MS-SMB2] 2.2.14
type CreateResponse struct {
	OplockLevel    OplockLevel
	Flags          uint8
	CreateAction   CreateAction
	CreationTime   int64
	LastAccessTime int64
	LastWriteTime  int64
	ChangeTime     int64
	AllocationSize uint64
	EndOfFile      uint64
	FileAttributes FileAttributes
	FileID         [16]byte
	Contexts       []CreateContext
}

// Encode serializes a CreateResponse to its wire form, appending the
// create-context chain (8-byte aligned per entry) after the fixed body.
func (r *CreateResponse) Encode() []byte {
	buf := make([]byte, 89)
	binary.LittleEndian.PutUint16(buf[0:2], 89)
	buf[2] = byte(r.OplockLevel)
	buf[3] = r.Flags
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.CreateAction))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.CreationTime))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.LastAccessTime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(r.LastWriteTime))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(r.ChangeTime))
	binary.LittleEndian.PutUint64(buf[40:48], r.AllocationSize)
	binary.LittleEndian.PutUint64(buf[48:56], r.EndOfFile)
	binary.LittleEndian.PutUint32(buf[56:60], uint32(r.FileAttributes))
	// bytes 60:64 Reserved2
	copy(buf[64:80], r.FileID[:])
	// bytes 80:88 reserved for context offset/length, filled below
	// no remaining fixed fields; structure size tops out at 89 per
	// [MS-SMB2] 2.2.14's documented layout (includes 1 buffer byte)

	ctxData := EncodeCreateContexts(r.Contexts)
	if len(ctxData) == 0 {
		binary.LittleEndian.PutUint32(buf[80:84], 0)
		binary.LittleEndian.PutUint32(buf[84:88], 0)
		return buf
	}

	ctxOffset := HeaderSize + 88
	binary.LittleEndian.PutUint32(buf[80:84], uint32(ctxOffset))
	binary.LittleEndian.PutUint32(buf[84:88], uint32(len(ctxData)))
	return append(buf[:88], ctxData...)
}
