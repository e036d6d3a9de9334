package dispatch

import (
	"context"
	"testing"

	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/session"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func newTestConn() *Conn {
	persist := handle.NewPersistentAllocator()
	durable := handle.NewDurableTable(handle.NewMemDurableStore(), persist)
	return NewConn("127.0.0.1:1234", persist, durable)
}

func encodeHeader(h *wire.Header) []byte {
	return h.Encode()
}

func TestFileIDOffsetKnownCommands(t *testing.T) {
	cases := map[wire.Command]int{
		wire.CommandClose:         8,
		wire.CommandQueryDirectory: 8,
		wire.CommandRead:          16,
		wire.CommandWrite:         16,
		wire.CommandSetInfo:       16,
		wire.CommandQueryInfo:     24,
	}
	for cmd, want := range cases {
		got, ok := fileIDOffset(cmd)
		if !ok || got != want {
			t.Errorf("fileIDOffset(%v) = %d, %v; want %d, true", cmd, got, ok, want)
		}
	}
	if _, ok := fileIDOffset(wire.CommandNegotiate); ok {
		t.Error("fileIDOffset(NEGOTIATE) should report ok=false")
	}
}

func TestInjectFileIDOverwritesField(t *testing.T) {
	body := make([]byte, 32)
	for i := range body {
		body[i] = 0xAA
	}
	var fid [16]byte
	for i := range fid {
		fid[i] = byte(i)
	}
	out := injectFileID(wire.CommandRead, body, fid)
	if len(out) != len(body) {
		t.Fatalf("length changed: %d", len(out))
	}
	for i := 0; i < 16; i++ {
		if out[16+i] != byte(i) {
			t.Errorf("byte %d = %x, want %x", i, out[16+i], i)
		}
	}
	if out[0] != 0xAA {
		t.Error("bytes outside the FileId field must be untouched")
	}
}

func TestInjectFileIDTooShortBodyUnchanged(t *testing.T) {
	body := make([]byte, 4)
	out := injectFileID(wire.CommandRead, body, [16]byte{1})
	if len(out) != 4 {
		t.Fatalf("short body should be returned unchanged, got len %d", len(out))
	}
}

func TestCancelRegistryTrackAndCancel(t *testing.T) {
	r := NewCancelRegistry()
	called := false
	untrack := r.Track(42, func() { called = true })

	if r.Cancel(99) {
		t.Error("Cancel on unknown MessageID should report false")
	}
	if !r.Cancel(42) {
		t.Error("Cancel on tracked MessageID should report true")
	}
	if !called {
		t.Error("Cancel should have invoked the cancel func")
	}
	if r.Cancel(42) {
		t.Error("second Cancel on an already-cancelled MessageID should report false")
	}
	untrack()
}

func TestTableRegisterAndLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Register(wire.CommandEcho, Entry{
		Name: "ECHO",
		Handler: func(ctx context.Context, rc *RequestContext, body []byte) ([]byte, wire.Status) {
			return nil, wire.StatusSuccess
		},
	})

	e, ok := tbl.Lookup(wire.CommandEcho)
	if !ok || e.Name != "ECHO" {
		t.Fatalf("Lookup(ECHO) = %v, %v", e, ok)
	}
	if _, ok := tbl.Lookup(wire.CommandRead); ok {
		t.Error("unregistered command should not be found")
	}
}

func echoRequest(sessionID uint64, msgID uint64, related bool) []byte {
	h := &wire.Header{
		Command:   wire.CommandEcho,
		Credits:   8,
		MessageID: msgID,
		SessionID: sessionID,
	}
	if related {
		h.Flags |= wire.FlagRelated
	}
	body := make([]byte, 4)
	return append(encodeHeader(h), body...)
}

func TestProcessMessageSingleCommand(t *testing.T) {
	sessions := session.NewDefaultManager()
	tbl := NewTable()
	invoked := false
	tbl.Register(wire.CommandEcho, Entry{
		Name: "ECHO",
		Handler: func(ctx context.Context, rc *RequestContext, body []byte) ([]byte, wire.Status) {
			invoked = true
			return []byte{1, 2, 3, 4}, wire.StatusSuccess
		},
	})

	d := NewDispatcher(tbl, sessions)
	conn := newTestConn()

	resp := d.ProcessMessage(context.Background(), conn, echoRequest(0, 1, false))
	if !invoked {
		t.Fatal("handler was never invoked")
	}
	if len(resp) < wire.HeaderSize+4 {
		t.Fatalf("response too short: %d bytes", len(resp))
	}

	respHdr, err := wire.ParseHeader(resp)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if respHdr.Status != wire.StatusSuccess {
		t.Errorf("status = %v, want StatusSuccess", respHdr.Status)
	}
	if !respHdr.IsResponse() {
		t.Error("response header missing FlagResponse")
	}
}

func TestProcessMessageUnknownCommandReturnsNotImplemented(t *testing.T) {
	sessions := session.NewDefaultManager()
	tbl := NewTable()
	d := NewDispatcher(tbl, sessions)
	conn := newTestConn()

	resp := d.ProcessMessage(context.Background(), conn, echoRequest(0, 1, false))
	respHdr, err := wire.ParseHeader(resp)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if respHdr.Status != wire.StatusNotImplemented {
		t.Errorf("status = %v, want StatusNotImplemented", respHdr.Status)
	}
}

func TestProcessMessageCompoundChainInheritsSessionAndTree(t *testing.T) {
	sessions := session.NewDefaultManager()
	sess := sessions.CreateSession("127.0.0.1", false, "alice", "")

	tbl := NewTable()
	var seenSessions []uint64
	var seenTrees []uint32
	tbl.Register(wire.CommandEcho, Entry{
		Name: "ECHO",
		Handler: func(ctx context.Context, rc *RequestContext, body []byte) ([]byte, wire.Status) {
			seenSessions = append(seenSessions, rc.SessionID)
			seenTrees = append(seenTrees, rc.TreeID)
			return nil, wire.StatusSuccess
		},
	})

	d := NewDispatcher(tbl, sessions)
	conn := newTestConn()

	first := &wire.Header{
		Command:   wire.CommandEcho,
		Credits:   8,
		MessageID: 1,
		SessionID: sess.SessionID,
		TreeID:    3,
	}
	firstRaw := append(encodeHeader(first), make([]byte, 4)...)
	first.NextCommand = uint32(len(firstRaw))

	second := &wire.Header{
		Command:   wire.CommandEcho,
		Credits:   8,
		MessageID: 2,
		Flags:     wire.FlagRelated,
	}
	secondRaw := append(encodeHeader(second), make([]byte, 4)...)

	message := append(encodeHeader(first), firstRaw[wire.HeaderSize:]...)
	message = append(message, secondRaw...)

	d.ProcessMessage(context.Background(), conn, message)

	if len(seenSessions) != 2 {
		t.Fatalf("expected 2 sub-commands invoked, got %d", len(seenSessions))
	}
	if seenSessions[0] != sess.SessionID || seenSessions[1] != sess.SessionID {
		t.Errorf("related command should inherit SessionID: got %v, want both %d", seenSessions, sess.SessionID)
	}
	if seenTrees[0] != 3 || seenTrees[1] != 3 {
		t.Errorf("related command should inherit TreeID: got %v, want both 3", seenTrees)
	}
}
