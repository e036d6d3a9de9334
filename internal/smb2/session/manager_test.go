package session

import (
	"sync"
	"testing"
)

func TestManagerCreateSession(t *testing.T) {
	mgr := NewDefaultManager()

	s := mgr.CreateSession("192.168.1.100:12345", true, "guest", "")
	if s.SessionID == 0 {
		t.Error("session ID should not be 0 (reserved for anonymous)")
	}
	if !s.IsGuest {
		t.Error("session should be guest")
	}
	if s.Username != "guest" {
		t.Errorf("username = %q, want %q", s.Username, "guest")
	}

	retrieved, ok := mgr.GetSession(s.SessionID)
	if !ok || retrieved != s {
		t.Error("session not found after creation, or not the same instance")
	}
}

func TestManagerDeleteSession(t *testing.T) {
	mgr := NewDefaultManager()

	s := mgr.CreateSession("client", false, "user1", "DOMAIN")
	mgr.DeleteSession(s.SessionID)

	if _, ok := mgr.GetSession(s.SessionID); ok {
		t.Error("session should be deleted")
	}
}

func TestManagerAnonymousSessionIsPermanent(t *testing.T) {
	mgr := NewDefaultManager()

	s, ok := mgr.GetSession(0)
	if !ok || s.SessionID != 0 {
		t.Fatal("anonymous session (ID 0) should always exist")
	}

	mgr.DeleteSession(0)
	if _, ok := mgr.GetSession(0); !ok {
		t.Error("anonymous session should not be deletable")
	}
}

func TestManagerFixedStrategy(t *testing.T) {
	config := DefaultCreditConfig()
	mgr := NewManagerWithStrategy(StrategyFixed, config)
	s := mgr.CreateSession("client", true, "guest", "")

	if grant := mgr.GrantCredits(s.SessionID, 10, 1); grant != config.InitialGrant {
		t.Errorf("fixed strategy: got %d, want %d", grant, config.InitialGrant)
	}
	if grant := mgr.GrantCredits(s.SessionID, 1000, 1); grant != config.InitialGrant {
		t.Errorf("fixed strategy: got %d, want %d", grant, config.InitialGrant)
	}
}

func TestManagerEchoStrategy(t *testing.T) {
	config := DefaultCreditConfig()
	mgr := NewManagerWithStrategy(StrategyEcho, config)
	s := mgr.CreateSession("client", true, "guest", "")

	tests := []struct {
		name      string
		requested uint16
		want      uint16
	}{
		{"ZeroReturnsInitial", 0, config.InitialGrant},
		{"BelowMinReturnsMin", 5, config.MinGrant},
		{"NormalRequest", 100, 100},
		{"LargeRequestClampsToMax", config.MaxGrant + 100, config.MaxGrant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if grant := mgr.GrantCredits(s.SessionID, tt.requested, 1); grant != tt.want {
				t.Errorf("got %d, want %d", grant, tt.want)
			}
		})
	}
}

func TestManagerAdaptiveStrategyWithinBounds(t *testing.T) {
	config := DefaultCreditConfig()
	mgr := NewManagerWithStrategy(StrategyAdaptive, config)
	s := mgr.CreateSession("client", true, "guest", "")

	grant := mgr.GrantCredits(s.SessionID, 256, 1)
	if grant < config.MinGrant || grant > config.MaxGrant {
		t.Errorf("grant %d out of bounds [%d,%d]", grant, config.MinGrant, config.MaxGrant)
	}
}

func TestManagerAdaptiveStrategyThrottlesAggressiveClient(t *testing.T) {
	config := DefaultCreditConfig()
	config.AggressiveClientThreshold = 10
	mgr := NewManagerWithStrategy(StrategyAdaptive, config)
	s := mgr.CreateSession("client", true, "guest", "")

	for i := 0; i < 50; i++ {
		mgr.RequestStarted(s.SessionID)
	}
	grant := mgr.GrantCredits(s.SessionID, 256, 0)
	for i := 0; i < 50; i++ {
		mgr.RequestCompleted(s.SessionID)
	}

	if grant != config.MinGrant {
		t.Errorf("aggressive client should be throttled to MinGrant, got %d", grant)
	}
}

func TestManagerRequestTracking(t *testing.T) {
	mgr := NewDefaultManager()
	s1 := mgr.CreateSession("client1", true, "guest", "")
	s2 := mgr.CreateSession("client2", true, "guest", "")

	mgr.RequestStarted(s1.SessionID)
	mgr.RequestStarted(s1.SessionID)
	mgr.RequestStarted(s2.SessionID)

	stats := mgr.GetStats()
	if stats.ActiveRequests != 3 {
		t.Errorf("ActiveRequests = %d, want 3", stats.ActiveRequests)
	}
	if s1.GetOutstandingRequests() != 2 {
		t.Errorf("session1 outstanding = %d, want 2", s1.GetOutstandingRequests())
	}

	mgr.RequestCompleted(s1.SessionID)
	mgr.RequestCompleted(s2.SessionID)

	stats = mgr.GetStats()
	if stats.ActiveRequests != 1 {
		t.Errorf("ActiveRequests after completion = %d, want 1", stats.ActiveRequests)
	}
}

func TestManagerCreditAccounting(t *testing.T) {
	mgr := NewDefaultManager()
	s := mgr.CreateSession("client", true, "guest", "")

	mgr.GrantCredits(s.SessionID, 256, 0)
	mgr.GrantCredits(s.SessionID, 128, 0)

	stats := mgr.GetSessionStats(s.SessionID)
	if stats == nil || stats.Granted == 0 {
		t.Fatal("granted credits should be non-zero")
	}

	hwm := s.GetHighWaterMark()
	if hwm == 0 {
		t.Error("high water mark should be > 0")
	}

	mgr.GrantCredits(s.SessionID, 100, 200)
	if s.GetHighWaterMark() < hwm {
		t.Error("high water mark should never decrease")
	}
}

func TestManagerConcurrentAccess(t *testing.T) {
	mgr := NewDefaultManager()

	const goroutines = 50
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			s := mgr.CreateSession("client", true, "guest", "")
			for j := 0; j < perGoroutine; j++ {
				mgr.RequestStarted(s.SessionID)
				mgr.GrantCredits(s.SessionID, 100, 1)
				mgr.RequestCompleted(s.SessionID)
			}
		}()
	}
	wg.Wait()

	stats := mgr.GetStats()
	if stats.TotalOperations != uint64(goroutines*perGoroutine) {
		t.Errorf("TotalOperations = %d, want %d", stats.TotalOperations, goroutines*perGoroutine)
	}
	if stats.ActiveRequests != 0 {
		t.Errorf("ActiveRequests after completion = %d, want 0", stats.ActiveRequests)
	}
}

func TestManagerSessionCount(t *testing.T) {
	mgr := NewDefaultManager()

	if stats := mgr.GetStats(); stats.SessionCount != 1 {
		t.Errorf("initial session count = %d, want 1 (anonymous)", stats.SessionCount)
	}

	s1 := mgr.CreateSession("client1", true, "guest", "")
	s2 := mgr.CreateSession("client2", true, "guest", "")
	if stats := mgr.GetStats(); stats.SessionCount != 3 {
		t.Errorf("session count = %d, want 3", stats.SessionCount)
	}

	mgr.DeleteSession(s1.SessionID)
	if stats := mgr.GetStats(); stats.SessionCount != 2 {
		t.Errorf("session count after delete = %d, want 2", stats.SessionCount)
	}

	mgr.DeleteSession(s2.SessionID)
	if stats := mgr.GetStats(); stats.SessionCount != 1 {
		t.Errorf("session count after all deletes = %d, want 1", stats.SessionCount)
	}
}

func TestCalculateCreditCharge(t *testing.T) {
	tests := []struct {
		bytes uint32
		want  uint16
	}{
		{0, 1},
		{1, 1},
		{65536, 1},
		{65537, 2},
		{128 * 1024, 2},
		{1024 * 1024, 16},
		{10 * 1024 * 1024, 160},
	}
	for _, tt := range tests {
		if got := CalculateCreditCharge(tt.bytes); got != tt.want {
			t.Errorf("CalculateCreditCharge(%d) = %d, want %d", tt.bytes, got, tt.want)
		}
	}
}

type fakeShareLookup struct {
	shares map[string]*ShareInfo
}

func (f *fakeShareLookup) GetShare(name string) (*ShareInfo, bool) {
	s, ok := f.shares[name]
	return s, ok
}

func TestConnectTreeUnknownShareRejected(t *testing.T) {
	mgr := NewDefaultManager()
	s := mgr.CreateSession("client", true, "guest", "")
	lookup := &fakeShareLookup{shares: map[string]*ShareInfo{}}

	_, status := mgr.ConnectTree(s.SessionID, "nope", "10.0.0.1", "guest", true, lookup)
	if status.IsSuccess() {
		t.Fatal("unknown share should not connect")
	}
}

func TestConnectTreeDeniedHost(t *testing.T) {
	mgr := NewDefaultManager()
	s := mgr.CreateSession("client", true, "guest", "")
	lookup := &fakeShareLookup{shares: map[string]*ShareInfo{
		"data": {Name: "data", AllowGuest: true, DenyHosts: []string{"10.0.0.1"}},
	}}

	_, status := mgr.ConnectTree(s.SessionID, "data", "10.0.0.1", "guest", true, lookup)
	if status.IsSuccess() {
		t.Fatal("denied host should not connect")
	}
}

func TestConnectTreeGuestRequiresAllowGuest(t *testing.T) {
	mgr := NewDefaultManager()
	s := mgr.CreateSession("client", true, "guest", "")
	lookup := &fakeShareLookup{shares: map[string]*ShareInfo{
		"data": {Name: "data", AllowGuest: false},
	}}

	_, status := mgr.ConnectTree(s.SessionID, "data", "10.0.0.1", "guest", true, lookup)
	if status.IsSuccess() {
		t.Fatal("guest should be rejected when share does not allow guest access")
	}
}

func TestConnectTreeSucceedsForAllowedUser(t *testing.T) {
	mgr := NewDefaultManager()
	s := mgr.CreateSession("client", false, "alice", "DOMAIN")
	lookup := &fakeShareLookup{shares: map[string]*ShareInfo{
		"data": {Name: "data", ReadList: []string{"alice"}},
	}}

	tc, status := mgr.ConnectTree(s.SessionID, "data", "10.0.0.1", "alice", false, lookup)
	if !status.IsSuccess() {
		t.Fatalf("expected success, got %v", status)
	}
	if !tc.ReadOnly {
		t.Error("user on read list only should get a read-only tree connect")
	}
}

func TestConnectTreeIPCIsAlwaysTreeIDOne(t *testing.T) {
	mgr := NewDefaultManager()
	s := mgr.CreateSession("client", true, "guest", "")
	lookup := &fakeShareLookup{shares: map[string]*ShareInfo{
		"IPC$": {Name: "IPC$", AllowGuest: true, Pipe: true},
	}}

	tc, status := mgr.ConnectTree(s.SessionID, "IPC$", "10.0.0.1", "guest", true, lookup)
	if !status.IsSuccess() {
		t.Fatalf("expected success, got %v", status)
	}
	if tc.TreeID != 1 {
		t.Errorf("IPC$ TreeID = %d, want 1", tc.TreeID)
	}
	if tc.ShareType != ShareTypePipe {
		t.Error("IPC$ should have ShareTypePipe")
	}
}

func TestParseSharePath(t *testing.T) {
	tests := map[string]string{
		`\\server\share`:      "share",
		`\\server\share\sub`:  "share",
		`\\192.168.1.1\data`:  "data",
		`notaunc`:             "",
	}
	for input, want := range tests {
		if got := ParseSharePath(input); got != want {
			t.Errorf("ParseSharePath(%q) = %q, want %q", input, got, want)
		}
	}
}
