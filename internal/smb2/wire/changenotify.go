package wire

import "encoding/binary"

// ChangeNotifyRequest is the 32-byte fixed body of an SMB2
// CHANGE_NOTIFY request. [MS-SMB2] 2.2.35
type ChangeNotifyRequest struct {
	Flags            ChangeNotifyFlags
	OutputBufferLength uint32
	FileID           [16]byte
	CompletionFilter CompletionFilter
}

func ParseChangeNotifyRequest(body []byte) (*ChangeNotifyRequest, error) {
	if len(body) < 32 {
		return nil, ErrMessageTooShort
	}
	return &ChangeNotifyRequest{
		Flags:              ChangeNotifyFlags(binary.LittleEndian.Uint16(body[2:4])),
		OutputBufferLength: binary.LittleEndian.Uint32(body[4:8]),
		FileID:             [16]byte(body[8:24]),
		CompletionFilter:   CompletionFilter(binary.LittleEndian.Uint32(body[24:28])),
	}, nil
}

// ChangeNotifyResponse is the 8-byte fixed header of an SMB2
// CHANGE_NOTIFY response, followed by the FileNotifyInformation chain.
// [MS-SMB2] 2.2.36
type ChangeNotifyResponse struct {
	Data []byte
}

func (r *ChangeNotifyResponse) Encode() []byte {
	buf := make([]byte, 8+len(r.Data))
	binary.LittleEndian.PutUint16(buf[0:2], 9)
	if len(r.Data) > 0 {
		binary.LittleEndian.PutUint16(buf[2:4], uint16(HeaderSize+8))
	}
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(r.Data)))
	copy(buf[8:], r.Data)
	return buf
}

// FileNotifyInformation is one change-notification record.
// [MS-FSCC] 2.7.1
type FileNotifyInformation struct {
	Action   NotifyAction
	FileName string
}

// EncodeFileNotifyInformations serializes a chain of notify records,
// patching each NextEntryOffset to point at the following (8-byte
// aligned) entry; the last entry's offset stays zero.
func EncodeFileNotifyInformations(entries []FileNotifyInformation) []byte {
	var out []byte
	offsets := make([]int, 0, len(entries))
	for _, e := range entries {
		nameBytes := EncodeUTF16LE(e.FileName)
		rec := make([]byte, 12+len(nameBytes))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(e.Action))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(len(nameBytes)))
		copy(rec[12:], nameBytes)
		padded := align8(len(rec))
		entry := make([]byte, padded)
		copy(entry, rec)
		offsets = append(offsets, len(out))
		out = append(out, entry...)
	}
	for i := 0; i < len(offsets)-1; i++ {
		next := offsets[i+1] - offsets[i]
		binary.LittleEndian.PutUint32(out[offsets[i]:offsets[i]+4], uint32(next))
	}
	return out
}
