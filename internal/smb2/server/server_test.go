package server

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/smbdfs/smbd/internal/registry/memory"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handlers"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	deps := handlers.NewDeps(memory.New(), "TESTSRV", [16]byte{1})
	table := dispatch.NewTable()
	handlers.RegisterAll(table, deps)

	cfg := Config{Addr: "127.0.0.1:0", Timeouts: Timeouts{Shutdown: 2 * time.Second}}
	return New(cfg, table, deps)
}

// negotiateRequestFrame builds a complete NetBIOS-framed SMB2 NEGOTIATE
// request for one dialect.
func negotiateRequestFrame(messageID uint64) []byte {
	body := make([]byte, 36+2)
	binary.LittleEndian.PutUint16(body[0:2], 36)
	binary.LittleEndian.PutUint16(body[2:4], 1)
	binary.LittleEndian.PutUint16(body[36:38], uint16(wire.Dialect0300))

	hdr := &wire.Header{
		Command:   wire.CommandNegotiate,
		Credits:   1,
		MessageID: messageID,
	}
	msg := append(hdr.Encode(), body...)

	frame := make([]byte, 4+len(msg))
	frame[3] = byte(len(msg))
	frame[2] = byte(len(msg) >> 8)
	frame[1] = byte(len(msg) >> 16)
	copy(frame[4:], msg)
	return frame
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	payload, err := wire.ReadFrame(conn, DefaultMaxMessageSize)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	return payload
}

func TestServerServesNegotiateEndToEnd(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- s.Serve(ctx) }()

	addr := s.ListenAddr()
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetDeadline: %v", err)
	}

	if _, err := conn.Write(negotiateRequestFrame(1)); err != nil {
		t.Fatalf("Write negotiate request: %v", err)
	}

	respMsg := readFrame(t, conn)
	hdr, err := wire.ParseHeader(respMsg)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.Command != wire.CommandNegotiate {
		t.Errorf("response command = %v, want NEGOTIATE", hdr.Command)
	}
	if hdr.Status != wire.StatusSuccess {
		t.Errorf("response status = %v, want success", hdr.Status)
	}
	if !hdr.IsResponse() {
		t.Error("response header should have the response flag set")
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-serveDone; err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
}

func TestServerStopClosesListenerToNewConnections(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- s.Serve(ctx) }()

	addr := s.ListenAddr()

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	<-serveDone

	if _, err := net.DialTimeout("tcp", addr.String(), 200*time.Millisecond); err == nil {
		t.Error("dialing after Stop should fail, listener should be closed")
	}
}

func TestServerActiveConnectionsTracksLifecycle(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Serve(ctx)
	addr := s.ListenAddr()

	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for s.ActiveConnections() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.ActiveConnections() == 0 {
		t.Fatal("server should have registered the active connection")
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for s.ActiveConnections() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.ActiveConnections() != 0 {
		t.Error("server should drop the connection count after the client closes")
	}

	_ = s.Stop(context.Background())
}
