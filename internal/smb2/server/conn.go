package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/smb2/bufpool"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/wire"
)

// conn is one accepted TCP connection's read loop and dispatch state.
// Requests on the same connection may be processed concurrently (a
// slow CREATE shouldn't stall a concurrent READ), but responses are
// serialized through writeMu so two goroutines never interleave
// partial frames on the wire.
type conn struct {
	server *Server
	raw    net.Conn

	dispatchConn *dispatch.Conn
	dispatcher   *dispatch.Dispatcher

	requestSem chan struct{}
	wg         sync.WaitGroup
	writeMu    sync.Mutex
}

func newConn(s *Server, raw net.Conn) *conn {
	dispatcher := dispatch.NewDispatcher(s.table, s.deps.Sessions)
	if s.DispatchMetrics != nil {
		dispatcher.Metrics = s.DispatchMetrics
	}
	return &conn{
		server:       s,
		raw:          raw,
		dispatchConn: dispatch.NewConn(raw.RemoteAddr().String(), s.deps.Persist, s.deps.Durable),
		dispatcher:   dispatcher,
		requestSem:   make(chan struct{}, s.config.MaxRequestsPerConnection),
	}
}

// serve runs the read loop until the connection closes, ctx is
// cancelled, or the idle timeout elapses.
func (c *conn) serve(ctx context.Context) {
	defer c.handleClose()

	lc := logx.NewLogContext(c.raw.RemoteAddr().String())
	ctx = logx.WithContext(ctx, lc)

	for {
		if c.server.config.Timeouts.Idle > 0 {
			_ = c.raw.SetReadDeadline(time.Now().Add(c.server.config.Timeouts.Idle))
		}

		message, err := wire.ReadFrameAlloc(c.raw, c.server.config.MaxMessageSize, bufpool.Get)
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			bufpool.Put(message)
			return
		case c.requestSem <- struct{}{}:
		}

		c.wg.Add(1)
		go func() {
			defer func() {
				bufpool.Put(message)
				<-c.requestSem
				c.wg.Done()
				if r := recover(); r != nil {
					logx.ErrorCtx(ctx, "smb2 connection: request handler panicked", "recover", r)
				}
			}()
			c.handle(ctx, message)
		}()
	}
}

func (c *conn) handle(ctx context.Context, message []byte) {
	resp := c.dispatcher.ProcessMessage(ctx, c.dispatchConn, message)
	if len(resp) == 0 {
		return
	}

	if c.server.config.Timeouts.Write > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.server.config.Timeouts.Write))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wire.WriteFrame(c.raw, resp); err != nil {
		logx.WarnCtx(ctx, "smb2 connection: write response failed", "error", err)
	}
}

func (c *conn) handleClose() {
	if r := recover(); r != nil {
		logx.Error("smb2 connection: read loop panicked", "recover", r)
	}
	c.wg.Wait()
	_ = c.raw.Close()
}
