package session

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Reference vector from the MS-SMB2 signing/key-derivation documentation:
// SessionKey 0x7CD451825D0450D235424E44BA6E78CC derives signing key
// 0x0B7E9C5CAC36C0F6EA9AB275298CEDCE for SMB 3.0.
func TestDeriveKeySMB30SigningKey(t *testing.T) {
	sessionKey := mustHex("7CD451825D0450D235424E44BA6E78CC")
	want := mustHex("0B7E9C5CAC36C0F6EA9AB275298CEDCE")

	label, context := LabelAndContext(SigningKeyPurpose, wire.Dialect0300, [64]byte{})
	got := DeriveKey(sessionKey, label, context, 128)

	if !bytes.Equal(got, want) {
		t.Errorf("signing key mismatch:\n got:  %x\n want: %x", got, want)
	}
}

func TestDeriveKeySMB311Deterministic(t *testing.T) {
	sessionKey := mustHex("270E1BA896585EEB7AF3472D3B4C75A7")

	var preauthHash [64]byte
	for i := range preauthHash {
		preauthHash[i] = byte(i)
	}

	label, context := LabelAndContext(SigningKeyPurpose, wire.Dialect0311, preauthHash)
	k1 := DeriveKey(sessionKey, label, context, 128)
	k2 := DeriveKey(sessionKey, label, context, 128)
	if len(k1) != 16 {
		t.Fatalf("signing key should be 16 bytes, got %d", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Error("KDF is not deterministic")
	}

	label30, ctx30 := LabelAndContext(SigningKeyPurpose, wire.Dialect0300, [64]byte{})
	k30 := DeriveKey(sessionKey, label30, ctx30, 128)
	if bytes.Equal(k1, k30) {
		t.Error("3.1.1 signing key should differ from 3.0 signing key")
	}

	var otherHash [64]byte
	for i := range otherHash {
		otherHash[i] = byte(i + 100)
	}
	labelOther, ctxOther := LabelAndContext(SigningKeyPurpose, wire.Dialect0311, otherHash)
	kOther := DeriveKey(sessionKey, labelOther, ctxOther, 128)
	if bytes.Equal(k1, kOther) {
		t.Error("different preauth hashes should produce different signing keys")
	}
}

func TestLabelAndContextSMB30(t *testing.T) {
	tests := []struct {
		purpose KeyPurpose
		label   []byte
		context []byte
	}{
		{SigningKeyPurpose, []byte("SMB2AESCMAC\x00"), []byte("SmbSign\x00")},
		{EncryptionKeyPurpose, []byte("SMB2AESCCM\x00"), []byte("ServerIn \x00")},
		{DecryptionKeyPurpose, []byte("SMB2AESCCM\x00"), []byte("ServerOut\x00")},
		{ApplicationKeyPurpose, []byte("SMB2APP\x00"), []byte("SmbRpc\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.purpose.String(), func(t *testing.T) {
			label, context := LabelAndContext(tt.purpose, wire.Dialect0300, [64]byte{})
			if !bytes.Equal(label, tt.label) {
				t.Errorf("label = %q, want %q", label, tt.label)
			}
			if !bytes.Equal(context, tt.context) {
				t.Errorf("context = %q, want %q", context, tt.context)
			}
		})
	}
}

func TestLabelAndContextSMB302MatchesSMB30(t *testing.T) {
	label30, ctx30 := LabelAndContext(SigningKeyPurpose, wire.Dialect0300, [64]byte{})
	label302, ctx302 := LabelAndContext(SigningKeyPurpose, wire.Dialect0302, [64]byte{})
	if !bytes.Equal(label30, label302) || !bytes.Equal(ctx30, ctx302) {
		t.Error("3.0 and 3.0.2 should use identical label/context")
	}
}

func TestLabelAndContextSMB311UsesPreauthHash(t *testing.T) {
	var preauthHash [64]byte
	for i := range preauthHash {
		preauthHash[i] = byte(i)
	}

	tests := []struct {
		purpose KeyPurpose
		label   []byte
	}{
		{SigningKeyPurpose, []byte("SMBSigningKey\x00")},
		{EncryptionKeyPurpose, []byte("SMBC2SCipherKey\x00")},
		{DecryptionKeyPurpose, []byte("SMBS2CCipherKey\x00")},
		{ApplicationKeyPurpose, []byte("SMBAppKey\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.purpose.String(), func(t *testing.T) {
			label, context := LabelAndContext(tt.purpose, wire.Dialect0311, preauthHash)
			if !bytes.Equal(label, tt.label) {
				t.Errorf("label = %q, want %q", label, tt.label)
			}
			if !bytes.Equal(context, preauthHash[:]) {
				t.Error("3.1.1 context should be the preauth hash")
			}
		})
	}
}

func TestDeriveAllKeysSMB2xUsesHMACDirectly(t *testing.T) {
	sessionKey := mustHex("7CD451825D0450D235424E44BA6E78CC")
	cs := DeriveAllKeys(sessionKey, wire.Dialect0210, [64]byte{}, 0, 0)

	if _, ok := cs.Signer.(*HMACSigner); !ok {
		t.Fatalf("expected HMACSigner for dialect < 3.0, got %T", cs.Signer)
	}
	if !bytes.Equal(cs.SigningKey, sessionKey) {
		t.Error("2.x signing key should be the raw session key")
	}
	if cs.EncryptionKey != nil {
		t.Error("2.x sessions should not derive an encryption key")
	}
}

func TestDeriveAllKeysSMB30DerivesAllFour(t *testing.T) {
	sessionKey := mustHex("7CD451825D0450D235424E44BA6E78CC")
	cs := DeriveAllKeys(sessionKey, wire.Dialect0300, [64]byte{}, 0, SigningAlgAESCMAC)

	if len(cs.SigningKey) != 16 {
		t.Errorf("signing key len = %d, want 16", len(cs.SigningKey))
	}
	if len(cs.EncryptionKey) != 16 {
		t.Errorf("encryption key len = %d, want 16", len(cs.EncryptionKey))
	}
	if len(cs.DecryptionKey) != 16 {
		t.Errorf("decryption key len = %d, want 16", len(cs.DecryptionKey))
	}
	if len(cs.ApplicationKey) != 16 {
		t.Errorf("application key len = %d, want 16", len(cs.ApplicationKey))
	}
	if _, ok := cs.Signer.(*CMACSigner); !ok {
		t.Fatalf("expected CMACSigner, got %T", cs.Signer)
	}
}
