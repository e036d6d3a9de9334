package wire

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// EncodeUTF16LE converts a Go string to the UTF-16LE byte encoding SMB2
// uses for every path and string field on the wire.
func EncodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}

// DecodeUTF16LE converts UTF-16LE bytes into a Go string. An odd trailing
// byte is dropped rather than rejected, since some clients pad names with
// a single byte of slop.
func DecodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}

// NormalizePath converts the backslash path separators SMB2 clients send
// into the forward-slash form the rest of this server and the filesystem
// backend interface use internally, collapsing a leading separator.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimPrefix(p, "/")
}

// DenormalizePath converts an internal forward-slash path back into the
// backslash form SMB2 clients expect in directory listings and path
// fields.
func DenormalizePath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}
