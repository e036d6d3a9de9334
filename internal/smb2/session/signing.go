package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// Signing algorithm IDs. [MS-SMB2] 2.2.3.1.7
const (
	SigningAlgHMACSHA256 uint16 = 0x0000
	SigningAlgAESCMAC    uint16 = 0x0001
	SigningAlgAESGMAC    uint16 = 0x0002
)

const (
	SignatureOffset = 48
	SignatureSize   = 16
	KeySize         = 16
)

// Signer computes and checks the 16-byte signature carried in bytes
// 48-63 of a signed SMB2 message. [MS-SMB2] 3.1.4.1
type Signer interface {
	Sign(message []byte) [SignatureSize]byte
	Verify(message []byte) bool
}

// NewSigner picks the signing algorithm for the negotiated dialect:
// HMAC-SHA256 below 3.0, AES-CMAC for 3.0/3.0.2 and 3.1.1 by default,
// AES-GMAC only when 3.1.1 negotiated it explicitly.
func NewSigner(dialect wire.Dialect, signingAlgorithmID uint16, key []byte) Signer {
	if dialect < wire.Dialect0300 {
		return NewHMACSigner(key)
	}
	if signingAlgorithmID == SigningAlgAESGMAC {
		return NewGMACSigner(key)
	}
	return NewCMACSigner(key)
}

// SignMessage sets SMB2_FLAGS_SIGNED and writes the signature in place.
func SignMessage(signer Signer, message []byte) {
	if signer == nil || len(message) < wire.HeaderSize {
		return
	}
	flags := binary.LittleEndian.Uint32(message[16:20])
	flags |= uint32(wire.FlagSigned)
	binary.LittleEndian.PutUint32(message[16:20], flags)

	for i := SignatureOffset; i < SignatureOffset+SignatureSize; i++ {
		message[i] = 0
	}
	sig := signer.Sign(message)
	copy(message[SignatureOffset:], sig[:])
}

func fitKey(key []byte) [KeySize]byte {
	var k [KeySize]byte
	n := len(key)
	if n > KeySize {
		n = KeySize
	}
	copy(k[:n], key[:n])
	return k
}

func zeroSignature(message []byte) []byte {
	msg := make([]byte, len(message))
	copy(msg, message)
	for i := SignatureOffset; i < SignatureOffset+SignatureSize && i < len(msg); i++ {
		msg[i] = 0
	}
	return msg
}

// HMACSigner implements Signer with HMAC-SHA256, used for SMB 2.x.
type HMACSigner struct {
	key [KeySize]byte
}

func NewHMACSigner(sessionKey []byte) *HMACSigner {
	if len(sessionKey) == 0 {
		return nil
	}
	return &HMACSigner{key: fitKey(sessionKey)}
}

func (s *HMACSigner) Sign(message []byte) [SignatureSize]byte {
	var sig [SignatureSize]byte
	if s == nil || len(message) < wire.HeaderSize {
		return sig
	}
	msg := zeroSignature(message)
	mac := hmac.New(sha256.New, s.key[:])
	mac.Write(msg)
	copy(sig[:], mac.Sum(nil)[:SignatureSize])
	return sig
}

func (s *HMACSigner) Verify(message []byte) bool {
	if s == nil || len(message) < wire.HeaderSize {
		return false
	}
	var got [SignatureSize]byte
	copy(got[:], message[SignatureOffset:SignatureOffset+SignatureSize])
	want := s.Sign(message)
	return hmac.Equal(got[:], want[:])
}

// CMACSigner implements Signer with AES-128-CMAC per RFC 4493, used for
// SMB 3.0/3.0.2 and as the SMB 3.1.1 default.
type CMACSigner struct {
	block cipher.Block
}

func NewCMACSigner(key []byte) *CMACSigner {
	if len(key) == 0 {
		return nil
	}
	k := fitKey(key)
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil
	}
	return &CMACSigner{block: block}
}

func shiftLeft1(in [16]byte) [16]byte {
	var out [16]byte
	var carry byte
	for i := 15; i >= 0; i-- {
		out[i] = in[i]<<1 | carry
		carry = in[i] >> 7
	}
	return out
}

const cmacRB = 0x87

func (s *CMACSigner) subkeys() (k1, k2 [16]byte) {
	var zero [16]byte
	var l [16]byte
	s.block.Encrypt(l[:], zero[:])

	k1 = shiftLeft1(l)
	if l[0]&0x80 != 0 {
		k1[15] ^= cmacRB
	}
	k2 = shiftLeft1(k1)
	if k1[0]&0x80 != 0 {
		k2[15] ^= cmacRB
	}
	return k1, k2
}

// cmac computes the raw AES-CMAC of data per RFC 4493.
func (s *CMACSigner) cmac(data []byte) [16]byte {
	k1, k2 := s.subkeys()

	n := (len(data) + 15) / 16
	complete := n > 0 && len(data)%16 == 0
	if n == 0 {
		n = 1
		complete = false
	}

	var lastBlock [16]byte
	if complete {
		copy(lastBlock[:], data[(n-1)*16:n*16])
		for i := range lastBlock {
			lastBlock[i] ^= k1[i]
		}
	} else {
		tail := data[(n-1)*16:]
		copy(lastBlock[:], tail)
		lastBlock[len(tail)] = 0x80
		for i := range lastBlock {
			lastBlock[i] ^= k2[i]
		}
	}

	var x [16]byte
	for i := 0; i < n-1; i++ {
		var y [16]byte
		for j := 0; j < 16; j++ {
			y[j] = x[j] ^ data[i*16+j]
		}
		s.block.Encrypt(x[:], y[:])
	}

	var y [16]byte
	for j := 0; j < 16; j++ {
		y[j] = x[j] ^ lastBlock[j]
	}
	var mac [16]byte
	s.block.Encrypt(mac[:], y[:])
	return mac
}

func (s *CMACSigner) Sign(message []byte) [SignatureSize]byte {
	var sig [SignatureSize]byte
	if s == nil || len(message) < wire.HeaderSize {
		return sig
	}
	msg := zeroSignature(message)
	mac := s.cmac(msg)
	copy(sig[:], mac[:])
	return sig
}

func (s *CMACSigner) Verify(message []byte) bool {
	if s == nil || len(message) < wire.HeaderSize {
		return false
	}
	var got [SignatureSize]byte
	copy(got[:], message[SignatureOffset:SignatureOffset+SignatureSize])
	want := s.Sign(message)
	return hmac.Equal(got[:], want[:])
}

// GMACSigner implements Signer with AES-128-GMAC (AES-GCM over an empty
// plaintext, with the whole message as additional data), available for
// SMB 3.1.1 when negotiated. [MS-SMB2] 3.1.4.1
type GMACSigner struct {
	aead cipher.AEAD
}

func NewGMACSigner(key []byte) *GMACSigner {
	if len(key) == 0 {
		return nil
	}
	k := fitKey(key)
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil
	}
	return &GMACSigner{aead: aead}
}

// gmacNonce derives the 12-byte AEAD nonce from the MessageId field at
// header offset 24, zero-padded, per [MS-SMB2] 3.1.4.1.
func gmacNonce(message []byte) [12]byte {
	var nonce [12]byte
	if len(message) >= 32 {
		copy(nonce[:8], message[24:32])
	}
	return nonce
}

func (s *GMACSigner) Sign(message []byte) [SignatureSize]byte {
	var sig [SignatureSize]byte
	if s == nil || len(message) < wire.HeaderSize {
		return sig
	}
	msg := zeroSignature(message)
	nonce := gmacNonce(msg)
	tag := s.aead.Seal(nil, nonce[:], nil, msg)
	copy(sig[:], tag[:SignatureSize])
	return sig
}

func (s *GMACSigner) Verify(message []byte) bool {
	if s == nil || len(message) < wire.HeaderSize {
		return false
	}
	var got [SignatureSize]byte
	copy(got[:], message[SignatureOffset:SignatureOffset+SignatureSize])
	want := s.Sign(message)
	return hmac.Equal(got[:], want[:])
}
