// Package ntlmssp handles the SPNEGO envelope that wraps NTLMSSP security
// blobs inside SMB2 SESSION_SETUP requests, and tracks the multi-leg
// NEGOTIATE/CHALLENGE/AUTHENTICATE handshake state between those requests.
//
// The cryptographic core of NTLM (message framing, NTLMv2 response
// validation, session key derivation) lives in internal/smb2/session; this
// package only concerns itself with the GSS-API transport wrapper real
// clients put around that blob and with remembering where a session's
// handshake is between the two legs.
package ntlmssp

import (
	"errors"
	"fmt"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

// Well-known SPNEGO mechanism OIDs. [RFC 4178]
var (
	OIDMSKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 48018, 1, 2, 2}
	OIDKerberosV5   = asn1.ObjectIdentifier{1, 2, 840, 113554, 1, 2, 2}
	OIDNTLMSSP      = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 2, 2, 10}
	OIDSPNEGO       = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 2}
)

// NegState mirrors the SPNEGO negotiation state field. [RFC 4178] 4.2.2
type NegState int

const (
	NegStateAcceptCompleted  NegState = 0
	NegStateAcceptIncomplete NegState = 1
	NegStateReject           NegState = 2
	NegStateRequestMIC       NegState = 3
)

var (
	ErrInvalidToken = errors.New("ntlmssp: invalid SPNEGO token")
)

// TokenType distinguishes the client's first message from later ones.
type TokenType int

const (
	TokenTypeInit TokenType = iota
	TokenTypeResp
)

// ParsedToken is the result of unwrapping one SPNEGO message.
type ParsedToken struct {
	Type TokenType

	// MechTypes lists mechanisms offered; only set for TokenTypeInit.
	MechTypes []asn1.ObjectIdentifier
	MechToken []byte

	// NegState/SupportedMech are only set for TokenTypeResp.
	NegState      NegState
	SupportedMech asn1.ObjectIdentifier
}

// IsSPNEGOToken reports whether buf looks like a GSS-API/SPNEGO envelope
// rather than a raw NTLMSSP message (which starts with "NTLMSSP\0").
func IsSPNEGOToken(buf []byte) bool {
	return len(buf) >= 2 && (buf[0] == 0x60 || buf[0] == 0xa0 || buf[0] == 0xa1)
}

// Parse unwraps a GSSAPI-wrapped token, a raw NegTokenInit, or a raw
// NegTokenResp and extracts the inner mechanism token plus metadata.
func Parse(data []byte) (*ParsedToken, error) {
	if len(data) < 2 {
		return nil, ErrInvalidToken
	}

	isInit, token, err := spnego.UnmarshalNegToken(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if isInit {
		initToken, ok := token.(spnego.NegTokenInit)
		if !ok {
			return nil, ErrInvalidToken
		}
		return &ParsedToken{
			Type:      TokenTypeInit,
			MechTypes: initToken.MechTypes,
			MechToken: initToken.MechTokenBytes,
		}, nil
	}

	respToken, ok := token.(spnego.NegTokenResp)
	if !ok {
		return nil, ErrInvalidToken
	}
	return &ParsedToken{
		Type:          TokenTypeResp,
		MechToken:     respToken.ResponseToken,
		NegState:      NegState(respToken.NegState),
		SupportedMech: respToken.SupportedMech,
	}, nil
}

func (p *ParsedToken) HasMechanism(oid asn1.ObjectIdentifier) bool {
	for _, mech := range p.MechTypes {
		if mech.Equal(oid) {
			return true
		}
	}
	return false
}

func (p *ParsedToken) HasNTLM() bool {
	return p.HasMechanism(OIDNTLMSSP)
}

// HasKerberos reports whether the client offered a Kerberos mechanism.
// This server never validates Kerberos tickets; callers use this only to
// decide whether to fall back to a guest session instead of attempting
// NTLM against a token that isn't one.
func (p *ParsedToken) HasKerberos() bool {
	return p.HasMechanism(OIDKerberosV5) || p.HasMechanism(OIDMSKerberosV5)
}

// BuildResponse DER-encodes a NegTokenResp with the given state, selected
// mechanism, and inner response token.
func BuildResponse(state NegState, mech asn1.ObjectIdentifier, responseToken []byte) ([]byte, error) {
	resp := spnego.NegTokenResp{
		NegState:      asn1.Enumerated(state),
		SupportedMech: mech,
		ResponseToken: responseToken,
	}
	return resp.Marshal()
}

// BuildAcceptIncomplete wraps the NTLM CHALLENGE message sent after a
// client's NEGOTIATE, signalling that one more leg is required.
func BuildAcceptIncomplete(mech asn1.ObjectIdentifier, responseToken []byte) ([]byte, error) {
	return BuildResponse(NegStateAcceptIncomplete, mech, responseToken)
}

// BuildAcceptComplete wraps the final success response after a validated
// AUTHENTICATE message.
func BuildAcceptComplete(mech asn1.ObjectIdentifier, responseToken []byte) ([]byte, error) {
	return BuildResponse(NegStateAcceptCompleted, mech, responseToken)
}

// BuildReject wraps an authentication failure.
func BuildReject() ([]byte, error) {
	return BuildResponse(NegStateReject, nil, nil)
}

// ExtractNTLMToken pulls the NTLMSSP message out of a SESSION_SETUP
// security buffer, unwrapping a SPNEGO envelope if present. ok is false
// when the buffer is SPNEGO-wrapped but offers no NTLM mechanism (a
// Kerberos-only client); callers should fall back to a guest session
// rather than attempt to parse the token as NTLM.
func ExtractNTLMToken(securityBuffer []byte) (token []byte, wrapped bool, ok bool) {
	if len(securityBuffer) == 0 {
		return securityBuffer, false, false
	}
	if !IsSPNEGOToken(securityBuffer) {
		return securityBuffer, false, true
	}

	parsed, err := Parse(securityBuffer)
	if err != nil {
		return securityBuffer, false, true
	}
	if parsed.Type == TokenTypeInit && !parsed.HasNTLM() {
		return nil, true, false
	}
	if len(parsed.MechToken) == 0 {
		return nil, true, false
	}
	return parsed.MechToken, true, true
}
