package session

import (
	"bytes"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"time"

	"golang.org/x/crypto/md4"
)

// NTLM message type constants. [MS-NLMP] 2.2
const (
	NTLMNegotiate    uint32 = 1
	NTLMChallenge    uint32 = 2
	NTLMAuthenticate uint32 = 3
)

var ntlmSignature = []byte{'N', 'T', 'L', 'M', 'S', 'S', 'P', 0}

// Negotiate flags this server advertises in its CHALLENGE message.
const (
	ntlmNegotiateUnicode          uint32 = 0x00000001
	ntlmRequestTarget             uint32 = 0x00000004
	ntlmNegotiateNTLM             uint32 = 0x00000200
	ntlmNegotiateAlwaysSign       uint32 = 0x00008000
	ntlmTargetTypeServer          uint32 = 0x00020000
	ntlmNegotiateExtendedSecurity uint32 = 0x00080000
	ntlmNegotiateTargetInfo       uint32 = 0x00800000
	ntlmNegotiate128              uint32 = 0x20000000
	ntlmNegotiate56               uint32 = 0x80000000
)

// AV_PAIR IDs used in the target-info list. [MS-NLMP] 2.2.2.1
const (
	avEOL             uint16 = 0x0000
	avNbComputerName  uint16 = 0x0001
	avNbDomainName    uint16 = 0x0002
	avTimestamp       uint16 = 0x0007
	avFlags           uint16 = 0x0006
	avChannelBindings uint16 = 0x000A
	avTargetName      uint16 = 0x0009
)

// IsNTLMMessage reports whether buf starts with the NTLMSSP signature.
func IsNTLMMessage(buf []byte) bool {
	return len(buf) >= 12 && bytes.Equal(buf[:8], ntlmSignature)
}

// NTLMMessageType returns the message type field of an NTLMSSP message.
func NTLMMessageType(buf []byte) uint32 {
	if len(buf) < 12 {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[8:12])
}

// Challenge is a server-generated NTLM CHALLENGE, built fresh for every
// NTLM negotiation and consumed when the matching AUTHENTICATE arrives.
type Challenge struct {
	ServerChallenge [8]byte
	TargetName      string
	TargetInfo      []byte
}

// BuildChallenge generates an NTLM Type 2 message advertising targetName
// (usually the server's NetBIOS name) as the authentication realm.
func BuildChallenge(targetName string) (*Challenge, []byte) {
	var serverChallenge [8]byte
	rand.Read(serverChallenge[:])

	targetInfo := buildTargetInfo(targetName)
	ch := &Challenge{ServerChallenge: serverChallenge, TargetName: targetName, TargetInfo: targetInfo}

	targetNameUTF16 := utf16LE(targetName)

	flags := ntlmNegotiateUnicode | ntlmRequestTarget | ntlmNegotiateNTLM |
		ntlmNegotiateAlwaysSign | ntlmTargetTypeServer | ntlmNegotiateExtendedSecurity |
		ntlmNegotiateTargetInfo | ntlmNegotiate128 | ntlmNegotiate56

	const baseSize = 56
	targetNameOffset := baseSize
	targetInfoOffset := targetNameOffset + len(targetNameUTF16)

	msg := make([]byte, targetInfoOffset+len(targetInfo))
	copy(msg[0:8], ntlmSignature)
	binary.LittleEndian.PutUint32(msg[8:12], NTLMChallenge)
	binary.LittleEndian.PutUint16(msg[12:14], uint16(len(targetNameUTF16)))
	binary.LittleEndian.PutUint16(msg[14:16], uint16(len(targetNameUTF16)))
	binary.LittleEndian.PutUint32(msg[16:20], uint32(targetNameOffset))
	binary.LittleEndian.PutUint32(msg[20:24], flags)
	copy(msg[24:32], serverChallenge[:])
	binary.LittleEndian.PutUint16(msg[40:42], uint16(len(targetInfo)))
	binary.LittleEndian.PutUint16(msg[42:44], uint16(len(targetInfo)))
	binary.LittleEndian.PutUint32(msg[44:48], uint32(targetInfoOffset))
	copy(msg[targetNameOffset:], targetNameUTF16)
	copy(msg[targetInfoOffset:], targetInfo)

	return ch, msg
}

func utf16LE(s string) []byte {
	runes := []rune(s)
	out := make([]byte, 0, len(runes)*2)
	for _, r := range runes {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func buildTargetInfo(targetName string) []byte {
	var buf bytes.Buffer
	writeAVPair(&buf, avNbDomainName, utf16LE(targetName))
	writeAVPair(&buf, avNbComputerName, utf16LE(targetName))

	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], windowsTimestamp(time.Now()))
	writeAVPair(&buf, avTimestamp, ts[:])

	writeAVPair(&buf, avEOL, nil)
	return buf.Bytes()
}

func writeAVPair(buf *bytes.Buffer, id uint16, value []byte) {
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:2], id)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(value)))
	buf.Write(hdr[:])
	buf.Write(value)
}

func windowsTimestamp(t time.Time) uint64 {
	const epochDiff = 116444736000000000
	return uint64(t.UnixNano()/100) + epochDiff
}

// AuthenticateMessage is the subset of an NTLM Type 3 message this server
// needs to validate a response and recover the identity asserted by the
// client. [MS-NLMP] 2.2.1.3
type AuthenticateMessage struct {
	Domain      string
	Username    string
	Workstation string

	NTChallengeResponse []byte
	LMChallengeResponse []byte

	SessionKey []byte
	Flags      uint32
}

// ParseAuthenticate decodes an NTLM Type 3 message. It does not validate
// the response; call VerifyNTLMv2 or VerifyNTLMv1 afterward.
func ParseAuthenticate(buf []byte) (*AuthenticateMessage, error) {
	if !IsNTLMMessage(buf) || NTLMMessageType(buf) != NTLMAuthenticate {
		return nil, ErrMalformedNTLM
	}
	if len(buf) < 64 {
		return nil, ErrMalformedNTLM
	}

	lm, err := readVarField(buf, 12)
	if err != nil {
		return nil, err
	}
	nt, err := readVarField(buf, 20)
	if err != nil {
		return nil, err
	}
	domain, err := readVarField(buf, 28)
	if err != nil {
		return nil, err
	}
	user, err := readVarField(buf, 36)
	if err != nil {
		return nil, err
	}
	workstation, err := readVarField(buf, 44)
	if err != nil {
		return nil, err
	}

	var flags uint32
	if len(buf) >= 64 {
		flags = binary.LittleEndian.Uint32(buf[60:64])
	}

	return &AuthenticateMessage{
		Domain:               decodeUTF16(domain),
		Username:             decodeUTF16(user),
		Workstation:          decodeUTF16(workstation),
		LMChallengeResponse:  lm,
		NTChallengeResponse:  nt,
		Flags:                flags,
	}, nil
}

func readVarField(buf []byte, fieldOffset int) ([]byte, error) {
	if fieldOffset+8 > len(buf) {
		return nil, ErrMalformedNTLM
	}
	length := binary.LittleEndian.Uint16(buf[fieldOffset : fieldOffset+2])
	offset := binary.LittleEndian.Uint32(buf[fieldOffset+4 : fieldOffset+8])
	if length == 0 {
		return nil, nil
	}
	end := uint64(offset) + uint64(length)
	if end > uint64(len(buf)) {
		return nil, ErrMalformedNTLM
	}
	return buf[offset:end], nil
}

func decodeUTF16(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	runes := make([]rune, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		runes = append(runes, rune(binary.LittleEndian.Uint16(b[i:i+2])))
	}
	return string(runes)
}

// ntowfv2 computes NTOWFv2: HMAC-MD5(MD4(UTF16(password)), UTF16(upper(user)+domain))
func ntowfv2(password, username, domain string) []byte {
	nt := md4Hash(utf16LE(password))
	mac := hmac.New(md5.New, nt)
	mac.Write(utf16LE(upperASCII(username) + domain))
	return mac.Sum(nil)
}

func md4Hash(data []byte) []byte {
	h := md4.New()
	h.Write(data)
	return h.Sum(nil)
}

// NTHash computes the NT OWF of password: MD4(UTF16LE(password)). This
// is the form registry.User.NTHash stores and VerifyNTLMv2WithHash/
// VerifyNTLMv1WithHash consume; callers provisioning accounts (smbdctl)
// use this instead of ever persisting a plaintext password.
func NTHash(password string) [16]byte {
	var h [16]byte
	copy(h[:], md4Hash(utf16LE(password)))
	return h
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// VerifyNTLMv2 recomputes the NTLMv2 response from password and the
// stored server challenge, and compares it against the client's
// NTChallengeResponse. On success it also returns the session base key
// used to derive the SMB session key. [MS-NLMP] 3.3.2
func VerifyNTLMv2(auth *AuthenticateMessage, serverChallenge [8]byte, password string) (sessionBaseKey []byte, ok bool) {
	nt := md4Hash(utf16LE(password))
	return VerifyNTLMv2WithHash(auth, serverChallenge, nt)
}

// VerifyNTLMv2WithHash validates an NTLMv2 response against an
// already-known NT hash (MD4 of the UTF-16LE password), the form the
// registry's user store keeps so plaintext passwords are never at
// rest. [MS-NLMP] 3.3.2
func VerifyNTLMv2WithHash(auth *AuthenticateMessage, serverChallenge [8]byte, ntHash []byte) (sessionBaseKey []byte, ok bool) {
	if len(auth.NTChallengeResponse) < 16 || len(ntHash) != 16 {
		return nil, false
	}
	ntProofStr := auth.NTChallengeResponse[:16]
	blob := auth.NTChallengeResponse[16:]

	mac := hmac.New(md5.New, ntHash)
	mac.Write(utf16LE(upperASCII(auth.Username) + auth.Domain))
	ntowf := mac.Sum(nil)

	respMac := hmac.New(md5.New, ntowf)
	respMac.Write(serverChallenge[:])
	respMac.Write(blob)
	computed := respMac.Sum(nil)

	if !hmac.Equal(computed, ntProofStr) {
		return nil, false
	}

	keyMac := hmac.New(md5.New, ntowf)
	keyMac.Write(computed)
	return keyMac.Sum(nil), true
}

// ErrMalformedNTLM is returned when an NTLMSSP message fails basic
// structural validation.
var ErrMalformedNTLM = ntlmError("malformed NTLMSSP message")

type ntlmError string

func (e ntlmError) Error() string { return string(e) }
