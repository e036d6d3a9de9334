package session

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// ShareInfo is the subset of a registry share record the tree-connect
// path needs: access lists, guest policy, and the backend the CREATE
// family of handlers resolves paths against. Implementations live in
// the registry package; this package only depends on the shape.
type ShareInfo struct {
	Name              string
	Path              string
	Pipe              bool
	Backend           fsbackend.Backend
	AllowGuest        bool
	DefaultPermission string

	AllowHosts   []string
	DenyHosts    []string
	InvalidUsers []string
	ReadList     []string
	WriteList    []string
}

// ShareLookup resolves a share name to its registry record.
type ShareLookup interface {
	GetShare(name string) (*ShareInfo, bool)
}

func matchesAny(needle string, list []string) bool {
	for _, v := range list {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}

// Manager owns every live session, the credit grant strategy applied
// on each response, and tree-connect bookkeeping.
type Manager struct {
	strategy CreditStrategy
	config   CreditConfig

	mu       sync.RWMutex
	sessions map[uint64]*Session
	nextID   atomic.Uint64

	activeRequests  atomic.Int64
	totalOperations atomic.Uint64

	nextTreeID atomic.Uint32
}

// ManagerStats is a snapshot of manager-wide load counters.
type ManagerStats struct {
	ActiveRequests  int64
	TotalOperations uint64
	SessionCount    int
}

func NewDefaultManager() *Manager {
	return NewManagerWithStrategy(StrategyAdaptive, DefaultCreditConfig())
}

// NewManagerWithStrategy creates a manager with an explicit credit
// strategy and configuration. The anonymous session (ID 0) always
// exists and can never be deleted; unauthenticated NEGOTIATE/SESSION_SETUP
// traffic runs under it.
func NewManagerWithStrategy(strategy CreditStrategy, config CreditConfig) *Manager {
	m := &Manager{
		strategy: strategy,
		config:   config,
		sessions: make(map[uint64]*Session),
	}
	m.nextID.Store(1)
	m.nextTreeID.Store(2)
	anon := NewSession(0, "", false, "", "")
	m.sessions[0] = anon
	return m
}

// CreateSession allocates a new session ID and registers the session.
func (m *Manager) CreateSession(clientAddr string, isGuest bool, username, domain string) *Session {
	id := m.nextID.Add(1) - 1
	s := NewSession(id, clientAddr, isGuest, username, domain)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) GetSession(sessionID uint64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// DeleteSession removes a session (LOGOFF). The anonymous session
// (ID 0) is never removed.
func (m *Manager) DeleteSession(sessionID uint64) {
	if sessionID == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) RequestStarted(sessionID uint64) {
	m.activeRequests.Add(1)
	m.totalOperations.Add(1)
	if s, ok := m.GetSession(sessionID); ok {
		s.RequestStarted()
	}
}

func (m *Manager) RequestCompleted(sessionID uint64) {
	m.activeRequests.Add(-1)
	if s, ok := m.GetSession(sessionID); ok {
		s.RequestCompleted()
	}
}

// Sessions returns every currently registered session, including the
// anonymous session (ID 0), for admin-API listing.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	count := len(m.sessions)
	m.mu.RUnlock()
	return ManagerStats{
		ActiveRequests:  m.activeRequests.Load(),
		TotalOperations: m.totalOperations.Load(),
		SessionCount:    count,
	}
}

func (m *Manager) GetSessionStats(sessionID uint64) *SessionStats {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return nil
	}
	stats := s.GetStats()
	return &stats
}

// GrantCredits computes how many credits to grant in the response to a
// request that asked for requested credits and charged charge credits,
// and applies the grant/consumption to the session's running balance.
func (m *Manager) GrantCredits(sessionID uint64, requested, charge uint16) uint16 {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return m.config.MinGrant
	}

	var grant uint16
	switch m.strategy {
	case StrategyFixed:
		grant = m.config.InitialGrant
	case StrategyEcho:
		grant = clampGrant(requested, m.config)
	default:
		grant = m.adaptiveGrant(s, requested)
	}

	if charge > 0 {
		s.ConsumeCredits(charge)
	}
	s.GrantCredits(grant)
	return grant
}

func clampGrant(requested uint16, cfg CreditConfig) uint16 {
	if requested == 0 {
		return cfg.InitialGrant
	}
	if requested < cfg.MinGrant {
		return cfg.MinGrant
	}
	if requested > cfg.MaxGrant {
		return cfg.MaxGrant
	}
	return requested
}

func (m *Manager) adaptiveGrant(s *Session, requested uint16) uint16 {
	cfg := m.config
	grant := clampGrant(requested, cfg)

	active := m.activeRequests.Load()
	sessionOutstanding := s.GetOutstandingRequests()

	switch {
	case sessionOutstanding >= cfg.AggressiveClientThreshold:
		grant = cfg.MinGrant
	case active >= cfg.LoadThresholdHigh:
		grant = cfg.MinGrant
		if requested > 0 && requested < grant {
			grant = requested
		}
	case active <= cfg.LoadThresholdLow:
		if grant < cfg.MaxGrant {
			grant = cfg.MaxGrant
		}
	}

	if grant < cfg.MinGrant {
		grant = cfg.MinGrant
	}
	if grant > cfg.MaxGrant {
		grant = cfg.MaxGrant
	}
	return grant
}

// AllocateTreeID hands out the next sequential tree ID, starting at 2.
// TreeID 1 is never allocated: ConnectTree assigns it to IPC$.
func (m *Manager) AllocateTreeID() uint32 {
	return m.nextTreeID.Add(1) - 1
}

// ConnectTree validates and installs a tree connect on a session,
// implementing the host/user allow-deny and guest policy a share
// carries. shareName is already the bare share name (server prefix
// stripped).
func (m *Manager) ConnectTree(sessionID uint64, shareName, clientHost, username string, isGuest bool, lookup ShareLookup) (*TreeConnect, wire.Status) {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return nil, wire.StatusUserSessionDeleted
	}

	share, ok := lookup.GetShare(shareName)
	if !ok {
		return nil, wire.StatusBadNetworkName
	}

	if len(share.AllowHosts) > 0 && !matchesAny(clientHost, share.AllowHosts) {
		return nil, wire.StatusAccessDenied
	}
	if matchesAny(clientHost, share.DenyHosts) {
		return nil, wire.StatusAccessDenied
	}

	if isGuest {
		if !share.AllowGuest {
			return nil, wire.StatusAccessDenied
		}
	} else {
		if matchesAny(username, share.InvalidUsers) {
			return nil, wire.StatusAccessDenied
		}
	}

	readOnly := !isGuest && !matchesAny(username, share.WriteList) && (len(share.WriteList) > 0 || matchesAny(username, share.ReadList))
	if len(share.ReadList) > 0 && !matchesAny(username, share.ReadList) && !matchesAny(username, share.WriteList) && !isGuest {
		return nil, wire.StatusAccessDenied
	}

	treeID := uint32(1)
	st := ShareTypeDisk
	if strings.EqualFold(shareName, "IPC$") || share.Pipe {
		st = ShareTypePipe
	} else {
		treeID = m.AllocateTreeID()
	}

	tc := &TreeConnect{
		TreeID:        treeID,
		SessionID:     sessionID,
		ShareName:     shareName,
		ShareType:     st,
		SharePath:     share.Path,
		Backend:       share.Backend,
		MaximalAccess: maximalAccessFor(readOnly),
		ReadOnly:      readOnly,
	}
	s.AddTree(tc)
	return tc, wire.StatusSuccess
}

func maximalAccessFor(readOnly bool) uint32 {
	const (
		fileReadData  = 0x00000001
		fileWriteData = 0x00000002
		fileExecute   = 0x00000020
		readControl   = 0x00020000
		synchronize   = 0x00100000
	)
	access := uint32(fileReadData | fileExecute | readControl | synchronize)
	if !readOnly {
		access |= fileWriteData
	}
	return access
}

// ParseSharePath extracts the bare share name from a \\server\share UNC
// path as sent in TREE_CONNECT.
func ParseSharePath(path string) string {
	path = strings.TrimPrefix(path, `\\`)
	parts := strings.SplitN(path, `\`, 2)
	if len(parts) < 2 {
		return ""
	}
	share := parts[1]
	if idx := strings.IndexByte(share, '\\'); idx >= 0 {
		share = share[:idx]
	}
	return share
}
