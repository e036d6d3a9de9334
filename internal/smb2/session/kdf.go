// Package session implements SMB2/SMB3 session and tree-connect state:
// key derivation, message signing, NTLM challenge/response, and the
// session/credit/tree-connect bookkeeping the dispatcher relies on.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// KeyPurpose identifies which of the four SMB3 session keys is being
// derived. [MS-SMB2] 3.1.4.2
type KeyPurpose uint8

const (
	SigningKeyPurpose KeyPurpose = iota
	EncryptionKeyPurpose
	DecryptionKeyPurpose
	ApplicationKeyPurpose
)

func (p KeyPurpose) String() string {
	switch p {
	case SigningKeyPurpose:
		return "Signing"
	case EncryptionKeyPurpose:
		return "Encryption"
	case DecryptionKeyPurpose:
		return "Decryption"
	case ApplicationKeyPurpose:
		return "Application"
	default:
		return "Unknown"
	}
}

// DeriveKey implements SP800-108 counter-mode KDF with HMAC-SHA256 as the
// PRF: counter(4BE=1) || label || 0x00 || context || L(4BE). A single
// iteration always yields 256 bits, enough for both 128- and 256-bit keys.
func DeriveKey(ki, label, context []byte, keyLenBits uint32) []byte {
	h := hmac.New(sha256.New, ki)

	var counter [4]byte
	binary.BigEndian.PutUint32(counter[:], 1)
	h.Write(counter[:])

	h.Write(label)
	h.Write([]byte{0x00})
	h.Write(context)

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], keyLenBits)
	h.Write(length[:])

	result := h.Sum(nil)
	return result[:keyLenBits/8]
}

// Label/context pairs per [MS-SMB2] 3.1.4.2. Each label includes its null
// terminator as part of the literal.
var (
	label30Signing    = []byte("SMB2AESCMAC\x00")
	label30Encryption = []byte("SMB2AESCCM\x00")
	label30Decryption = []byte("SMB2AESCCM\x00")
	label30App        = []byte("SMB2APP\x00")

	ctx30Signing    = []byte("SmbSign\x00")
	ctx30Encryption = []byte("ServerIn \x00")
	ctx30Decryption = []byte("ServerOut\x00")
	ctx30App        = []byte("SmbRpc\x00")

	label311Signing    = []byte("SMBSigningKey\x00")
	label311Encryption = []byte("SMBC2SCipherKey\x00")
	label311Decryption = []byte("SMBS2CCipherKey\x00")
	label311App        = []byte("SMBAppKey\x00")
)

// LabelAndContext returns the label/context pair for purpose under
// dialect. 3.1.1 uses the preauth integrity hash as context for every
// purpose; 3.0/3.0.2 use fixed strings.
func LabelAndContext(purpose KeyPurpose, dialect wire.Dialect, preauthHash [64]byte) (label, context []byte) {
	if dialect == wire.Dialect0311 {
		ctx := make([]byte, 64)
		copy(ctx, preauthHash[:])

		switch purpose {
		case SigningKeyPurpose:
			return label311Signing, ctx
		case EncryptionKeyPurpose:
			return label311Encryption, ctx
		case DecryptionKeyPurpose:
			return label311Decryption, ctx
		case ApplicationKeyPurpose:
			return label311App, ctx
		}
	}

	switch purpose {
	case SigningKeyPurpose:
		return label30Signing, ctx30Signing
	case EncryptionKeyPurpose:
		return label30Encryption, ctx30Encryption
	case DecryptionKeyPurpose:
		return label30Decryption, ctx30Decryption
	case ApplicationKeyPurpose:
		return label30App, ctx30App
	}
	return nil, nil
}

// CryptoState holds every key derived from a session key, plus the
// Signer built from them. For dialect < 3.0 only SigningKey/Signer are
// populated; HMAC-SHA256 is used directly without the KDF.
type CryptoState struct {
	Signer Signer

	SigningKey     []byte
	EncryptionKey  []byte
	DecryptionKey  []byte
	ApplicationKey []byte

	SigningEnabled  bool
	SigningRequired bool
}

// DeriveAllKeys builds a CryptoState for a freshly authenticated session.
// preauthHash is only consulted for dialect 3.1.1. cipherID does not
// change the key length: every derived key is 128 bits.
func DeriveAllKeys(sessionKey []byte, dialect wire.Dialect, preauthHash [64]byte, cipherID, signingAlgID uint16) *CryptoState {
	cs := &CryptoState{}

	if dialect < wire.Dialect0300 {
		cs.Signer = NewHMACSigner(sessionKey)
		cs.SigningKey = append([]byte(nil), sessionKey...)
		return cs
	}

	sigLabel, sigCtx := LabelAndContext(SigningKeyPurpose, dialect, preauthHash)
	cs.SigningKey = DeriveKey(sessionKey, sigLabel, sigCtx, 128)
	cs.Signer = NewSigner(dialect, signingAlgID, cs.SigningKey)

	encKeyBits := uint32(128)
	if cipherID == wire.CipherAES128GCM {
		// default stays 128 bits; 256-bit ciphers are not part of the
		// negotiated CipherAES128CCM/CipherAES128GCM set today.
		encKeyBits = 128
	}

	encLabel, encCtx := LabelAndContext(EncryptionKeyPurpose, dialect, preauthHash)
	cs.EncryptionKey = DeriveKey(sessionKey, encLabel, encCtx, encKeyBits)

	decLabel, decCtx := LabelAndContext(DecryptionKeyPurpose, dialect, preauthHash)
	cs.DecryptionKey = DeriveKey(sessionKey, decLabel, decCtx, encKeyBits)

	appLabel, appCtx := LabelAndContext(ApplicationKeyPurpose, dialect, preauthHash)
	cs.ApplicationKey = DeriveKey(sessionKey, appLabel, appCtx, 128)

	return cs
}

// Destroy zeros all key material. Call when a session is torn down.
func (cs *CryptoState) Destroy() {
	if cs == nil {
		return
	}
	clear(cs.SigningKey)
	clear(cs.EncryptionKey)
	clear(cs.DecryptionKey)
	clear(cs.ApplicationKey)
	cs.Signer = nil
}

func (cs *CryptoState) ShouldSign() bool {
	return cs != nil && cs.SigningEnabled && cs.Signer != nil
}

func (cs *CryptoState) ShouldVerify() bool {
	return cs != nil && cs.SigningEnabled && cs.Signer != nil
}
