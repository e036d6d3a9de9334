package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// resetRegistry gives each test its own registry so collector state
// (and collisions between promauto-registered names) doesn't leak
// across tests.
func resetRegistry(t *testing.T) {
	t.Helper()
	InitRegistry()
	t.Cleanup(func() {
		mu.Lock()
		enabled = false
		registry = nil
		mu.Unlock()
	})
}

func TestNewCollectorDisabledReturnsNil(t *testing.T) {
	mu.Lock()
	enabled = false
	registry = nil
	mu.Unlock()

	if c := NewCollector(); c != nil {
		t.Fatalf("NewCollector() with metrics disabled = %v, want nil", c)
	}
}

func TestNilCollectorMethodsAreNoops(t *testing.T) {
	var c *Collector
	c.RecordCommand("CREATE", "STATUS_SUCCESS", time.Millisecond)
	c.RecordCommandStart("CREATE")
	c.RecordCommandEnd("CREATE")
	c.RecordBytesTransferred("read", 1024)
	c.RecordCreditsGranted(8)
	c.RecordOplockBreak("none")
	c.SetActiveConnections(3)
	c.RecordConnectionAccepted()
	c.RecordConnectionClosed()
	c.RecordConnectionForceClosed()
	c.SetOpenFiles(5)
}

func TestCollectorRecordCommand(t *testing.T) {
	resetRegistry(t)
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() = nil with metrics enabled")
	}

	c.RecordCommand("CREATE", "STATUS_SUCCESS", 2*time.Millisecond)
	c.RecordCommand("CREATE", "STATUS_SUCCESS", 4*time.Millisecond)

	got := testutil.ToFloat64(c.commandsTotal.WithLabelValues("CREATE", "STATUS_SUCCESS"))
	if got != 2 {
		t.Fatalf("commandsTotal = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(c.commandDuration); n != 1 {
		t.Fatalf("commandDuration series count = %d, want 1", n)
	}
}

func TestCollectorRecordCommandInFlight(t *testing.T) {
	resetRegistry(t)
	c := NewCollector()

	c.RecordCommandStart("READ")
	if got := testutil.ToFloat64(c.commandsInFlight.WithLabelValues("READ")); got != 1 {
		t.Fatalf("commandsInFlight after start = %v, want 1", got)
	}
	c.RecordCommandEnd("READ")
	if got := testutil.ToFloat64(c.commandsInFlight.WithLabelValues("READ")); got != 0 {
		t.Fatalf("commandsInFlight after end = %v, want 0", got)
	}
}

func TestCollectorRecordOplockBreak(t *testing.T) {
	resetRegistry(t)
	c := NewCollector()

	c.RecordOplockBreak("None")
	c.RecordOplockBreak("None")
	c.RecordOplockBreak("II")

	if got := testutil.ToFloat64(c.oplockBreaksTotal.WithLabelValues("None")); got != 2 {
		t.Fatalf("oplockBreaksTotal[None] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.oplockBreaksTotal.WithLabelValues("II")); got != 1 {
		t.Fatalf("oplockBreaksTotal[II] = %v, want 1", got)
	}
}

func TestCollectorConnectionLifecycle(t *testing.T) {
	resetRegistry(t)
	c := NewCollector()

	c.RecordConnectionAccepted()
	c.RecordConnectionAccepted()
	c.SetActiveConnections(2)
	c.RecordConnectionClosed()
	c.SetActiveConnections(1)
	c.RecordConnectionForceClosed()

	if got := testutil.ToFloat64(c.connectionsAccepted); got != 2 {
		t.Fatalf("connectionsAccepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.connectionsClosed); got != 1 {
		t.Fatalf("connectionsClosed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.connectionsForceClosed); got != 1 {
		t.Fatalf("connectionsForceClosed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.activeConnections); got != 1 {
		t.Fatalf("activeConnections = %v, want 1", got)
	}
}

func TestIsEnabledTracksInitRegistry(t *testing.T) {
	mu.Lock()
	enabled = false
	registry = nil
	mu.Unlock()

	if IsEnabled() {
		t.Fatal("IsEnabled() = true before InitRegistry")
	}

	reg := InitRegistry()
	t.Cleanup(func() {
		mu.Lock()
		enabled = false
		registry = nil
		mu.Unlock()
	})

	if !IsEnabled() {
		t.Fatal("IsEnabled() = false after InitRegistry")
	}
	if GetRegistry() != reg {
		t.Fatal("GetRegistry() does not match the registry InitRegistry returned")
	}
}
