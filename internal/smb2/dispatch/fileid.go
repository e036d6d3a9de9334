package dispatch

import "github.com/smbdfs/smbd/internal/smb2/wire"

// fileIDOffset returns the byte offset of the FileId field within a
// command's fixed request structure, for the set of commands that can
// carry a related operation's inherited FileId. [MS-SMB2] 2.2.15 (CLOSE),
// 2.2.33 (QUERY_DIRECTORY), 2.2.19/2.2.21/2.2.39 (READ/WRITE/SET_INFO),
// 2.2.37 (QUERY_INFO).
func fileIDOffset(cmd wire.Command) (offset int, ok bool) {
	switch cmd {
	case wire.CommandClose, wire.CommandQueryDirectory:
		return 8, true
	case wire.CommandRead, wire.CommandWrite, wire.CommandSetInfo:
		return 16, true
	case wire.CommandQueryInfo:
		return 24, true
	default:
		return 0, false
	}
}

// injectFileID overwrites the 16-byte FileId field of body (a related
// compound command's request) with fileID, carried forward from the
// previous command's response. Returns body unmodified if the command
// doesn't carry a FileId at a known offset or body is too short.
func injectFileID(cmd wire.Command, body []byte, fileID [16]byte) []byte {
	offset, ok := fileIDOffset(cmd)
	if !ok {
		return body
	}
	if len(body) < offset+16 {
		return body
	}
	out := make([]byte, len(body))
	copy(out, body)
	copy(out[offset:offset+16], fileID[:])
	return out
}
