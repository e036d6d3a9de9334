package wire

import (
	"fmt"
	"io"
)

// NetBIOS session service framing: a 1-byte message type followed by a
// 24-bit big-endian length, prefixing every SMB message on the wire.
// [RFC 1002] 4.3.1
const netbiosHeaderSize = 4

const netbiosSessionMessage = 0x00

// ReadFrame reads one NetBIOS-framed message from r and returns its
// payload (the bytes following the 4-byte length prefix). maxMsgSize
// bounds the accepted length to guard against a hostile or corrupt
// client claiming an enormous frame.
func ReadFrame(r io.Reader, maxMsgSize int) ([]byte, error) {
	return ReadFrameAlloc(r, maxMsgSize, func(n int) []byte { return make([]byte, n) })
}

// ReadFrameAlloc is ReadFrame with a caller-supplied buffer allocator,
// so a connection's read loop can draw the payload from a size-classed
// pool (internal/smb2/bufpool) instead of allocating fresh on every
// message.
func ReadFrameAlloc(r io.Reader, maxMsgSize int, alloc func(size int) []byte) ([]byte, error) {
	var nbHeader [netbiosHeaderSize]byte
	if _, err := io.ReadFull(r, nbHeader[:]); err != nil {
		return nil, err
	}

	msgLen := uint32(nbHeader[1])<<16 | uint32(nbHeader[2])<<8 | uint32(nbHeader[3])
	if maxMsgSize > 0 && msgLen > uint32(maxMsgSize) {
		return nil, fmt.Errorf("wire: frame too large: %d bytes (max %d)", msgLen, maxMsgSize)
	}
	if msgLen < 4 {
		return nil, fmt.Errorf("wire: frame too small: %d bytes", msgLen)
	}

	payload := alloc(int(msgLen))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame body: %w", err)
	}
	return payload, nil
}

// WriteFrame wraps payload in a NetBIOS session-message header and writes
// it to w in a single Write call so a concurrent writer on the same
// connection cannot interleave partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	frame := make([]byte, netbiosHeaderSize+len(payload))
	frame[0] = netbiosSessionMessage
	msgLen := len(payload)
	frame[1] = byte(msgLen >> 16)
	frame[2] = byte(msgLen >> 8)
	frame[3] = byte(msgLen)
	copy(frame[4:], payload)

	_, err := w.Write(frame)
	if err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	return nil
}

// SplitCompound divides an SMB2 message body into the first command's
// bytes and the bytes of any chained commands, using NextCommand as the
// split point. [MS-SMB2] 2.2.1 "compounding"
func SplitCompound(hdr *Header, message []byte) (body, remaining []byte) {
	if hdr.NextCommand == 0 {
		return message[HeaderSize:], nil
	}
	bodyEnd := int(hdr.NextCommand)
	if bodyEnd > len(message) {
		bodyEnd = len(message)
	}
	body = message[HeaderSize:bodyEnd]
	if int(hdr.NextCommand) < len(message) {
		remaining = message[hdr.NextCommand:]
	}
	return body, remaining
}
