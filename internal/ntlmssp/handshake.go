package ntlmssp

import (
	"sync"
	"time"
)

// defaultPendingTTL bounds how long a half-finished NEGOTIATE/CHALLENGE
// handshake is kept around waiting for the client's AUTHENTICATE leg.
const defaultPendingTTL = 30 * time.Second

// PendingAuth tracks one in-flight NTLM handshake between the CHALLENGE
// a server sent and the AUTHENTICATE a client has not yet returned.
type PendingAuth struct {
	SessionID       uint64
	ClientAddr      string
	CreatedAt       time.Time
	ServerChallenge [8]byte
	UsedSPNEGO      bool
}

func (p *PendingAuth) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(p.CreatedAt) > ttl
}

// Tracker holds pending NTLM handshakes keyed by the provisional session
// ID handed out with the CHALLENGE response.
type Tracker struct {
	mu      sync.Mutex
	pending map[uint64]*PendingAuth
	ttl     time.Duration
}

// NewTracker builds a Tracker with the given handshake timeout. A zero
// ttl selects a 30 second default.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &Tracker{
		pending: make(map[uint64]*PendingAuth),
		ttl:     ttl,
	}
}

// Store records a pending handshake, replacing any prior one for the
// same session ID.
func (t *Tracker) Store(p *PendingAuth) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[p.SessionID] = p
}

// Get retrieves the pending handshake for a session ID, if one exists
// and has not expired. A live entry stays stored until Delete; an
// expired one is dropped.
func (t *Tracker) Get(sessionID uint64) (*PendingAuth, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[sessionID]
	if !ok {
		return nil, false
	}
	if p.expired(t.ttl, time.Now()) {
		delete(t.pending, sessionID)
		return nil, false
	}
	return p, true
}

// Delete discards a pending handshake, whether or not it completed.
func (t *Tracker) Delete(sessionID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, sessionID)
}

// Sweep removes expired entries and reports how many were dropped. Meant
// to be called periodically by a background janitor, not per-request.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	dropped := 0
	for id, p := range t.pending {
		if p.expired(t.ttl, now) {
			delete(t.pending, id)
			dropped++
		}
	}
	return dropped
}

// Count reports the number of handshakes currently in flight.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// WrapChallenge wraps an NTLM CHALLENGE message in a SPNEGO
// accept-incomplete envelope when the client's NEGOTIATE arrived SPNEGO
// wrapped; Windows SSPI expects SPNEGO framing throughout the handshake
// once it has been established. Raw NTLM clients get the bare message
// back unchanged.
func WrapChallenge(usedSPNEGO bool, challenge []byte) []byte {
	if !usedSPNEGO {
		return challenge
	}
	wrapped, err := BuildAcceptIncomplete(OIDNTLMSSP, challenge)
	if err != nil {
		return challenge
	}
	return wrapped
}

// WrapAcceptComplete builds the trailing SPNEGO accept-completed token
// sent alongside a successful AUTHENTICATE, or nil for raw NTLM clients.
func WrapAcceptComplete(usedSPNEGO bool) []byte {
	if !usedSPNEGO {
		return nil
	}
	token, err := BuildAcceptComplete(OIDNTLMSSP, nil)
	if err != nil {
		return nil
	}
	return token
}

// WrapReject builds a SPNEGO rejection token for SPNEGO-wrapped clients,
// or nil for raw NTLM clients (which simply get an error status).
func WrapReject(usedSPNEGO bool) []byte {
	if !usedSPNEGO {
		return nil
	}
	token, err := BuildReject()
	if err != nil {
		return nil
	}
	return token
}
