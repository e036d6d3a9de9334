package handlers

import (
	"context"
	"time"

	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/ntlmssp"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/session"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// SessionSetup implements the two-leg NTLM (optionally SPNEGO-wrapped)
// SMB2_SESSION_SETUP exchange: the first leg mints a provisional
// session and replies with a CHALLENGE, the second verifies the
// AUTHENTICATE against the registry and, on success, derives the
// session's signing/encryption keys. [MS-SMB2] 3.3.5.4
func (d *Deps) SessionSetup(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	req, err := wire.ParseSessionSetupRequest(body)
	if err != nil {
		return nil, wire.StatusInvalidParameter
	}

	token, wrapped, ok := ntlmssp.ExtractNTLMToken(req.SecurityBuffer)
	if !ok {
		return nil, wire.StatusLogonFailure
	}

	if session.IsNTLMMessage(token) && session.NTLMMessageType(token) == session.NTLMAuthenticate {
		return d.sessionSetupAuthenticate(ctx, rc, token, wrapped)
	}
	return d.sessionSetupNegotiate(ctx, rc, wrapped)
}

// sessionSetupNegotiate handles the first leg: the client's NTLM
// NEGOTIATE (or the SPNEGO NegTokenInit wrapping it). A fresh session
// is minted now so its ID can be returned in the CHALLENGE leg's
// header, per the teacher's convention of mutating rc.Header in place
// so the dispatcher's response carries the assigned ID.
func (d *Deps) sessionSetupNegotiate(ctx context.Context, rc *dispatch.RequestContext, wrapped bool) ([]byte, wire.Status) {
	sess := d.Sessions.CreateSession(rc.Conn.RemoteAddr, false, "", "")
	ch, raw := session.BuildChallenge(d.ServerName)

	d.Pending.Store(&ntlmssp.PendingAuth{
		SessionID:       sess.SessionID,
		ClientAddr:      rc.Conn.RemoteAddr,
		CreatedAt:       time.Now(),
		ServerChallenge: ch.ServerChallenge,
		UsedSPNEGO:      wrapped,
	})

	rc.Header.SessionID = sess.SessionID

	resp := &wire.SessionSetupResponse{SecurityBuffer: ntlmssp.WrapChallenge(wrapped, raw)}
	return resp.Encode(), wire.StatusMoreProcessingRequired
}

// sessionSetupAuthenticate handles the second leg: the client's NTLM
// AUTHENTICATE, verified against whichever server challenge was handed
// out for this provisional session.
func (d *Deps) sessionSetupAuthenticate(ctx context.Context, rc *dispatch.RequestContext, token []byte, wrapped bool) ([]byte, wire.Status) {
	pending, ok := d.Pending.Get(rc.SessionID)
	if !ok {
		return nil, wire.StatusAccessDenied
	}

	auth, err := session.ParseAuthenticate(token)
	if err != nil {
		d.Pending.Delete(rc.SessionID)
		return nil, wire.StatusInvalidParameter
	}

	sess, ok := d.Sessions.GetSession(rc.SessionID)
	if !ok {
		return nil, wire.StatusUserSessionDeleted
	}

	isGuest := auth.Username == ""
	sessionBaseKey, verified := d.verifyAuthenticate(ctx, auth, pending.ServerChallenge, &isGuest)
	if !verified {
		d.Pending.Delete(rc.SessionID)
		logx.WarnCtx(ctx, "session_setup: authentication failed", "username", auth.Username, logx.ClientIP(rc.Conn.RemoteAddr))
		if wrapped {
			return ntlmssp.WrapReject(wrapped), wire.StatusLogonFailure
		}
		return nil, wire.StatusLogonFailure
	}

	sess.Username = auth.Username
	sess.Domain = auth.Domain
	sess.IsGuest = isGuest

	dialect := rc.Conn.Dialect()
	var preauthHash [64]byte
	cs := session.DeriveAllKeys(sessionBaseKey, dialect, preauthHash, 0, session.SigningAlgAESCMAC)
	sess.SetCrypto(cs)
	sess.EnableSigning(true)

	d.Pending.Delete(rc.SessionID)

	var flags wire.SessionFlags
	if isGuest {
		flags |= wire.SessionFlagIsGuest
	}

	resp := &wire.SessionSetupResponse{
		SessionFlags:   flags,
		SecurityBuffer: ntlmssp.WrapAcceptComplete(wrapped),
	}
	return resp.Encode(), wire.StatusSuccess
}

// verifyAuthenticate resolves the claimed identity in the registry and
// checks the NTLM response against whichever hash form (v1 or v2) the
// client's response blob shape indicates. The anonymous empty-username
// case is always accepted as guest and sets *isGuest; an unknown or
// disabled user fails authentication. *isGuest is not changed for a
// named user.
func (d *Deps) verifyAuthenticate(ctx context.Context, auth *session.AuthenticateMessage, serverChallenge [8]byte, isGuest *bool) ([]byte, bool) {
	if auth.Username == "" {
		*isGuest = true
		return []byte{}, true
	}

	user, err := d.Registry.FindUser(ctx, auth.Username)
	if err != nil || user == nil || user.Disabled {
		return nil, false
	}

	if session.IsNTLMv1Response(auth) {
		return session.VerifyNTLMv1WithHash(auth, serverChallenge, user.NTHash[:])
	}
	return session.VerifyNTLMv2WithHash(auth, serverChallenge, user.NTHash[:])
}

// Logoff implements SMB2_LOGOFF: tears down the session and every tree
// connect and open handle still attached to it. [MS-SMB2] 3.3.5.6
func (d *Deps) Logoff(ctx context.Context, rc *dispatch.RequestContext, body []byte) ([]byte, wire.Status) {
	if _, err := wire.ParseLogoffRequest(body); err != nil {
		return nil, wire.StatusInvalidParameter
	}
	for _, of := range rc.Conn.Handles.All() {
		if of.SessionID == rc.SessionID {
			d.Oplocks.Detach(of.Path, of.ID.Volatile)
			rc.Conn.Handles.Close(of.ID.Volatile)
		}
	}
	d.Sessions.DeleteSession(rc.SessionID)
	resp := &wire.LogoffResponse{}
	return resp.Encode(), wire.StatusSuccess
}
