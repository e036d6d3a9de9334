package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/smbdfs/smbd/internal/fsbackend"
)

// Session represents an authenticated (or guest/anonymous) SMB2 session,
// combining identity with credit accounting and signing state. Created
// during SESSION_SETUP and removed on LOGOFF; closing the connection
// does not remove it from the Manager.
type Session struct {
	SessionID  uint64
	IsGuest    bool
	IsNull     bool
	CreatedAt  time.Time
	ClientAddr string
	Username   string
	Domain     string

	Crypto *CryptoState

	PreviousSessionID uint64

	mu      sync.Mutex
	credits Credits

	treesMu sync.RWMutex
	trees   map[uint32]*TreeConnect
}

// Credits tracks SMB2 credit-based flow control accounting for a session.
type Credits struct {
	Granted     uint32
	Consumed    uint32
	Outstanding int32

	OutstandingRequests atomic.Int64
	TotalRequests       atomic.Uint64
	LastActivity        atomic.Int64

	HighWaterMark uint32
}

// SessionStats is a point-in-time snapshot of a session's credit state.
type SessionStats struct {
	SessionID           uint64
	Granted             uint32
	Consumed            uint32
	Outstanding         int32
	OutstandingRequests int64
	TotalRequests       uint64
	HighWaterMark       uint32
}

func NewSession(sessionID uint64, clientAddr string, isGuest bool, username, domain string) *Session {
	s := &Session{
		SessionID:  sessionID,
		IsGuest:    isGuest,
		IsNull:     username == "" && !isGuest,
		CreatedAt:  time.Now(),
		ClientAddr: clientAddr,
		Username:   username,
		Domain:     domain,
		trees:      make(map[uint32]*TreeConnect),
	}
	s.credits.LastActivity.Store(time.Now().Unix())
	return s
}

func (s *Session) RequestStarted() {
	s.credits.OutstandingRequests.Add(1)
	s.credits.TotalRequests.Add(1)
	s.credits.LastActivity.Store(time.Now().Unix())
}

func (s *Session) RequestCompleted() {
	s.credits.OutstandingRequests.Add(-1)
}

func (s *Session) ConsumeCredits(charge uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits.Consumed += uint32(charge)
	s.credits.Outstanding -= int32(charge)
}

func (s *Session) GrantCredits(grant uint16) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits.Granted += uint32(grant)
	s.credits.Outstanding += int32(grant)
	if s.credits.Outstanding > 0 && uint32(s.credits.Outstanding) > s.credits.HighWaterMark {
		s.credits.HighWaterMark = uint32(s.credits.Outstanding)
	}
	return s.credits.Outstanding
}

func (s *Session) GetOutstanding() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits.Outstanding
}

func (s *Session) GetOutstandingRequests() int64 {
	return s.credits.OutstandingRequests.Load()
}

func (s *Session) GetHighWaterMark() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits.HighWaterMark
}

func (s *Session) GetStats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStats{
		SessionID:           s.SessionID,
		Granted:             s.credits.Granted,
		Consumed:            s.credits.Consumed,
		Outstanding:         s.credits.Outstanding,
		OutstandingRequests: s.credits.OutstandingRequests.Load(),
		TotalRequests:       s.credits.TotalRequests.Load(),
		HighWaterMark:       s.credits.HighWaterMark,
	}
}

// SetCrypto installs the derived key/signer state after authentication.
func (s *Session) SetCrypto(cs *CryptoState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Crypto = cs
}

func (s *Session) EnableSigning(required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Crypto != nil {
		s.Crypto.SigningEnabled = true
		s.Crypto.SigningRequired = required
	}
}

func (s *Session) ShouldSign() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Crypto.ShouldSign()
}

func (s *Session) ShouldVerify() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Crypto.ShouldVerify()
}

func (s *Session) SignMessage(message []byte) {
	s.mu.Lock()
	signer := (Signer)(nil)
	if s.Crypto.ShouldSign() {
		signer = s.Crypto.Signer
	}
	s.mu.Unlock()
	if signer != nil {
		SignMessage(signer, message)
	}
}

func (s *Session) VerifyMessage(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Crypto.ShouldVerify() {
		return true
	}
	return s.Crypto.Signer.Verify(message)
}

// ShareType mirrors the wire ShareType for the subset a tree connect
// needs locally (disk vs named pipe).
type ShareType uint8

const (
	ShareTypeDisk ShareType = 0x1
	ShareTypePipe ShareType = 0x2
)

// TreeConnect is a session's active connection to one share.
type TreeConnect struct {
	TreeID    uint32
	SessionID uint64
	ShareName string
	ShareType ShareType
	SharePath string
	Backend   fsbackend.Backend
	CreatedAt time.Time

	MaximalAccess uint32
	ReadOnly      bool
}

// AddTree records a new tree connect under the session.
func (s *Session) AddTree(t *TreeConnect) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	s.trees[t.TreeID] = t
}

func (s *Session) GetTree(treeID uint32) (*TreeConnect, bool) {
	s.treesMu.RLock()
	defer s.treesMu.RUnlock()
	t, ok := s.trees[treeID]
	return t, ok
}

func (s *Session) RemoveTree(treeID uint32) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	delete(s.trees, treeID)
}

// Trees returns every tree connect currently open on the session, for
// LOGOFF teardown.
func (s *Session) Trees() []*TreeConnect {
	s.treesMu.RLock()
	defer s.treesMu.RUnlock()
	out := make([]*TreeConnect, 0, len(s.trees))
	for _, t := range s.trees {
		out = append(out, t)
	}
	return out
}
