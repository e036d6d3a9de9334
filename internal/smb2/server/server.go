// Package server runs the SMB2 TCP listener: it accepts connections,
// builds the per-connection dispatch state, and drives graceful
// shutdown across every in-flight request. The command table and its
// collaborators (sessions, oplocks, the handle table, the registry) are
// built once by internal/smb2/handlers and shared across every
// connection this package accepts.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handle"
	"github.com/smbdfs/smbd/internal/smb2/handlers"
	"github.com/smbdfs/smbd/internal/smb2/oplock"
	"github.com/smbdfs/smbd/internal/smb2/session"
)

// Server listens for SMB2 connections and dispatches every request on
// them through a shared dispatch.Table.
type Server struct {
	config Config

	table *dispatch.Table
	deps  *handlers.Deps

	scanner *oplock.Scanner

	listenerMu sync.RWMutex
	listener   net.Listener

	activeConns   sync.WaitGroup
	connCount     atomic.Int32
	connSemaphore chan struct{}

	connections sync.Map // remote addr -> *conn

	shutdownOnce   sync.Once
	shutdown       chan struct{}
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc

	listenerReady chan struct{}

	// Metrics is optional; nil disables recording of connection
	// lifecycle counts.
	Metrics ConnectionRecorder

	// DispatchMetrics is optional; nil disables per-command recording.
	// Set to the same collector as Metrics: a Dispatcher is built fresh
	// per accepted connection (newConn), so Server holds this narrow
	// interface and hands it to each one rather than exposing the
	// Dispatcher itself.
	DispatchMetrics dispatch.CommandRecorder
}

// ConnectionRecorder receives connection lifecycle counts for metrics
// export. internal/metrics.Collector implements this.
type ConnectionRecorder interface {
	SetActiveConnections(n int32)
	RecordConnectionAccepted()
	RecordConnectionClosed()
	RecordConnectionForceClosed()
}

// New builds a Server that dispatches through table, populated by
// handlers.RegisterAll(table, deps) before the first connection is
// accepted.
func New(config Config, table *dispatch.Table, deps *handlers.Deps) *Server {
	config.applyDefaults()

	var sem chan struct{}
	if config.MaxConnections > 0 {
		sem = make(chan struct{}, config.MaxConnections)
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		config:         config,
		table:          table,
		deps:           deps,
		scanner:        oplock.NewScanner(deps.Oplocks, config.OplockSweepPeriod),
		connSemaphore:  sem,
		shutdown:       make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancel,
		listenerReady:  make(chan struct{}),
	}
}

// Serve binds the listener and accepts connections until ctx is
// cancelled or Stop is called. It blocks until the listener closes.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Addr, err)
	}

	s.listenerMu.Lock()
	s.listener = ln
	s.listenerMu.Unlock()
	close(s.listenerReady)

	s.scanner.Start()
	defer s.scanner.Stop()

	if s.config.MetricsLogInterval > 0 {
		go s.logMetrics(s.shutdownCtx)
	}

	go func() {
		select {
		case <-ctx.Done():
			s.initiateShutdown()
		case <-s.shutdown:
		}
	}()

	logx.Info("smb2 server listening", "addr", ln.Addr().String())

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logx.Warn("smb2 server: accept failed", "error", err)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		s.connCount.Add(1)
		s.activeConns.Add(1)
		c := newConn(s, conn)
		s.connections.Store(conn.RemoteAddr().String(), c)
		if s.Metrics != nil {
			s.Metrics.RecordConnectionAccepted()
			s.Metrics.SetActiveConnections(s.connCount.Load())
		}

		go func() {
			defer func() {
				s.connections.Delete(conn.RemoteAddr().String())
				s.connCount.Add(-1)
				s.activeConns.Done()
				if s.Metrics != nil {
					s.Metrics.RecordConnectionClosed()
					s.Metrics.SetActiveConnections(s.connCount.Load())
				}
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
			}()
			c.serve(s.shutdownCtx)
		}()
	}
}

// ListenAddr blocks until the listener is bound and returns its
// address. Used by tests that start Serve in a goroutine and need the
// OS-assigned port.
func (s *Server) ListenAddr() net.Addr {
	<-s.listenerReady
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	return s.listener.Addr()
}

// Ready reports, without blocking, whether the listener has bound its
// address and Serve is actively accepting connections. Used by the
// control plane's readiness probe.
func (s *Server) Ready() bool {
	select {
	case <-s.listenerReady:
		return true
	default:
		return false
	}
}

// ActiveConnections reports the number of currently accepted
// connections.
func (s *Server) ActiveConnections() int {
	return int(s.connCount.Load())
}

// Sessions returns every session currently registered across the
// server, for the control plane's admin listing.
func (s *Server) Sessions() []*session.Session {
	return s.deps.Sessions.Sessions()
}

// OpenFiles returns every handle-table entry open across every
// accepted connection, for the control plane's admin listing.
func (s *Server) OpenFiles() []*handle.OpenFile {
	var out []*handle.OpenFile
	s.connections.Range(func(_, v any) bool {
		c := v.(*conn)
		out = append(out, c.dispatchConn.Handles.All()...)
		return true
	})
	return out
}

// Stop initiates a graceful shutdown: the listener stops accepting,
// in-flight requests are given ctx's deadline (or config.Timeouts.Shutdown
// if ctx carries none) to finish, and any connection still open after
// that is force-closed.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	timeout := s.config.Timeouts.Shutdown
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.forceCloseConnections()
		return fmt.Errorf("server: shutdown timed out after %s, forced remaining connections closed", timeout)
	}
}

func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.RLock()
		ln := s.listener
		s.listenerMu.RUnlock()
		if ln != nil {
			_ = ln.Close()
		}
		s.interruptBlockingReads()
		s.cancelRequests()
	})
}

func (s *Server) gracefulShutdown() error {
	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(s.config.Timeouts.Shutdown):
		s.forceCloseConnections()
		return nil
	}
}

// interruptBlockingReads sets a short read deadline on every tracked
// connection so a goroutine blocked in ReadFrame wakes up and observes
// the shutdown context instead of waiting out its full idle timeout.
func (s *Server) interruptBlockingReads() {
	deadline := time.Now().Add(100 * time.Millisecond)
	s.connections.Range(func(_, v any) bool {
		c := v.(*conn)
		_ = c.raw.SetReadDeadline(deadline)
		return true
	})
}

func (s *Server) forceCloseConnections() {
	s.connections.Range(func(_, v any) bool {
		c := v.(*conn)
		_ = c.raw.Close()
		if s.Metrics != nil {
			s.Metrics.RecordConnectionForceClosed()
		}
		return true
	})
}

func (s *Server) logMetrics(ctx context.Context) {
	ticker := time.NewTicker(s.config.MetricsLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logx.Info("smb2 server metrics", "active_connections", s.connCount.Load())
		}
	}
}
