package session

import "crypto/des"

// setParityBit sets the low bit of one DES key byte so that the byte
// has odd parity over its upper seven bits and that low bit.
// expandDESKey applies it to each byte of the 8-byte key it builds;
// [MS-NLMP] 3.3.1 "DESL" uses that 7->8 byte expansion three times.
func setParityBit(b byte) byte {
	parity := byte(0)
	v := b
	for i := 1; i < 8; i++ {
		parity ^= (v >> uint(i)) & 1
	}
	if parity == 0 {
		return b | 1
	}
	return b &^ 1
}

// expandDESKey turns a 7-byte key fragment into the 8-byte key DES
// encryption requires, per the classic LM/NTLMv1 bit-shuffling scheme.
func expandDESKey(frag [7]byte) [8]byte {
	var out [8]byte
	out[0] = setParityBit(frag[0] & 0xFE)
	out[1] = setParityBit(((frag[0] << 7) | (frag[1] >> 1)) & 0xFE)
	out[2] = setParityBit(((frag[1] << 6) | (frag[2] >> 2)) & 0xFE)
	out[3] = setParityBit(((frag[2] << 5) | (frag[3] >> 3)) & 0xFE)
	out[4] = setParityBit(((frag[3] << 4) | (frag[4] >> 4)) & 0xFE)
	out[5] = setParityBit(((frag[4] << 3) | (frag[5] >> 5)) & 0xFE)
	out[6] = setParityBit(((frag[5] << 2) | (frag[6] >> 6)) & 0xFE)
	out[7] = setParityBit((frag[6] << 1) & 0xFE)
	return out
}

// desl implements the DESL() primitive [MS-NLMP] 3.3.1: a 16-byte key is
// zero-padded to 21 bytes, split into three 7-byte fragments, and each
// fragment DES-encrypts the same 8-byte plaintext (the server challenge)
// independently. The three 8-byte ciphertexts concatenate to the
// 24-byte NTLMv1/LMv1 response.
func desl(key16 []byte, plaintext [8]byte) [24]byte {
	var key21 [21]byte
	copy(key21[:], key16)

	var out [24]byte
	for i := 0; i < 3; i++ {
		var frag [7]byte
		copy(frag[:], key21[i*7:i*7+7])
		desKey := expandDESKey(frag)
		block, err := des.NewCipher(desKey[:])
		if err != nil {
			continue
		}
		block.Encrypt(out[i*8:i*8+8], plaintext[:])
	}
	return out
}

// ntowfv1 computes NTOWFv1: MD4(UTF16LE(password)). [MS-NLMP] 3.3.1
func ntowfv1(password string) []byte {
	return md4Hash(utf16LE(password))
}

// VerifyNTLMv1WithHash validates a legacy NTLMv1 response (24-byte
// NtChallengeResponse, no target-info blob) against an already-known NT
// hash, the form the registry's user store keeps so plaintext passwords
// are never at rest. [MS-NLMP] 3.3.1. On success it also returns the
// session base key (MD4 of the NT hash) used to derive the SMB session
// key.
func VerifyNTLMv1WithHash(auth *AuthenticateMessage, serverChallenge [8]byte, ntHash []byte) (sessionBaseKey []byte, ok bool) {
	if len(auth.NTChallengeResponse) != 24 || len(ntHash) != 16 {
		return nil, false
	}
	computed := desl(ntHash, serverChallenge)
	if !constantTimeEqual(computed[:], auth.NTChallengeResponse) {
		return nil, false
	}
	return md4Hash(ntHash), true
}

// VerifyNTLMv1 validates a legacy NTLMv1 response computed directly
// from a plaintext password, for deployments (or tests) that have not
// migrated to a hash-only user store.
func VerifyNTLMv1(auth *AuthenticateMessage, serverChallenge [8]byte, password string) (sessionBaseKey []byte, ok bool) {
	return VerifyNTLMv1WithHash(auth, serverChallenge, ntowfv1(password))
}

// IsNTLMv1Response reports whether an AuthenticateMessage's
// NTChallengeResponse is shaped like a legacy 24-byte NTLMv1 response
// rather than an NTLMv2 (16-byte proof + variable blob) response.
// [MS-NLMP] 3.3: the dispatch between the two is purely length-based,
// since both share the same wire field.
func IsNTLMv1Response(auth *AuthenticateMessage) bool {
	return len(auth.NTChallengeResponse) == 24
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
