package controlplane

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/smbdfs/smbd/internal/controlplane/auth"
	"github.com/smbdfs/smbd/internal/controlplane/handlers"
	"github.com/smbdfs/smbd/internal/logx"
)

// Server runs the control plane's HTTP admin API: health checks,
// Prometheus /metrics, admin login, and read-only session/open-file
// listings.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer builds a Server. provider supplies the live session/open
// listings (normally the running *smb2/server.Server); ready, if
// non-nil, reports whether the SMB2 listener is accepting connections.
func NewServer(config Config, provider handlers.SessionProvider, ready func() bool) (*Server, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:               config.JWT.Secret,
		Issuer:               "smbd",
		AccessTokenDuration:  config.JWT.AccessTokenDuration,
		RefreshTokenDuration: config.JWT.RefreshTokenDuration,
	})

	router := newRouter(config, jwtService, provider, ready)

	return &Server{
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		config: config,
	}, nil
}

// Start serves the admin API until ctx is cancelled, then gracefully
// shuts down within a 5 second grace period.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logx.Info("controlplane: listening", "addr", s.config.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("controlplane: serve: %w", err)
	}
}

// Stop gracefully shuts down the admin API; safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("controlplane: shutdown: %w", err)
		} else {
			logx.Info("controlplane: stopped")
		}
	})
	return shutdownErr
}
