package commands

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/internal/config"
	"github.com/smbdfs/smbd/internal/controlplane"
	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/metrics"
	"github.com/smbdfs/smbd/internal/registry"
	"github.com/smbdfs/smbd/internal/registry/memory"
	registrysql "github.com/smbdfs/smbd/internal/registry/sql"
	"github.com/smbdfs/smbd/internal/smb2/dispatch"
	"github.com/smbdfs/smbd/internal/smb2/handlers"
	"github.com/smbdfs/smbd/internal/smb2/server"
	"github.com/smbdfs/smbd/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the smbd server",
	Long: `Start the smbd SMB2/SMB3 server in the foreground.

Use --config to specify a configuration file, or it will use the
default location at $XDG_CONFIG_HOME/smbd/config.yaml.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logx.Init(logx.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	traceShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := traceShutdown(ctx); err != nil {
			logx.Error("telemetry shutdown error", "error", err)
		}
	}()

	profileShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profileShutdown(); err != nil {
			logx.Error("profiling shutdown error", "error", err)
		}
	}()

	logx.Info("smbd starting", "version", Version, "commit", Commit)

	reg, closeRegistry, err := openRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open registry: %w", err)
	}
	if closeRegistry != nil {
		defer closeRegistry()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector = metrics.NewCollector()
		logx.Info("metrics enabled", "addr", cfg.Metrics.Addr)
	}

	guid, err := serverGUID()
	if err != nil {
		return fmt.Errorf("failed to generate server GUID: %w", err)
	}

	deps := handlers.NewDeps(reg, cfg.Server.Name, guid)
	if collector != nil {
		deps.Oplocks.Metrics = collector
	}

	table := dispatch.NewTable()
	handlers.RegisterAll(table, deps)

	smbServer := server.New(cfg.ToServerConfig(), table, deps)
	if collector != nil {
		smbServer.Metrics = collector
		smbServer.DispatchMetrics = collector
	}

	var metricsHTTP *http.Server
	if cfg.Metrics.Enabled {
		metricsHTTP = &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Error("metrics server error", "error", err)
			}
		}()
	}

	var cpServer *controlplane.Server
	if cfg.ControlPlane.Enabled {
		cpServer, err = controlplane.NewServer(cfg.ToControlPlaneConfig(), smbServer, smbServer.Ready)
		if err != nil {
			return fmt.Errorf("failed to build control plane: %w", err)
		}
		go func() {
			if err := cpServer.Start(ctx); err != nil {
				logx.Error("control plane error", "error", err)
			}
		}()
		logx.Info("control plane enabled", "addr", cfg.ControlPlane.Addr)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- smbServer.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logx.Info("smbd is running", "addr", cfg.Server.Addr)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logx.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logx.Error("smb2 server error", "error", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if cpServer != nil {
		if err := cpServer.Stop(shutdownCtx); err != nil {
			logx.Error("control plane shutdown error", "error", err)
		}
	}
	if metricsHTTP != nil {
		if err := metricsHTTP.Shutdown(shutdownCtx); err != nil {
			logx.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := smbServer.Stop(shutdownCtx); err != nil {
		logx.Error("smb2 server shutdown error", "error", err)
		return err
	}

	logx.Info("smbd stopped gracefully")
	return nil
}

// openRegistry builds the user/share registry per cfg.Database.Kind. The
// returned close func is nil for both kinds: the in-memory registry has
// nothing to release, and the SQL registry has no Close, so its database
// connection stays open for the life of the process.
func openRegistry(ctx context.Context, cfg *config.Config) (registry.Registry, func(), error) {
	switch cfg.Database.Kind {
	case "sql":
		reg, err := registrysql.New(ctx, cfg.ToRegistrySQLConfig())
		if err != nil {
			return nil, nil, err
		}
		return reg, nil, nil
	default:
		return memory.New(), nil, nil
	}
}

// serverGUID generates the 16-byte GUID this process advertises in
// NEGOTIATE responses and srvsvc's NetrServerGetInfo. It's derived
// fresh per process start rather than persisted, matching the CORE
// spec's "regenerate per process" stance on server identity.
func serverGUID() ([16]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		var zero [16]byte
		if _, ferr := rand.Read(zero[:]); ferr != nil {
			return zero, err
		}
		return zero, nil
	}
	return [16]byte(id), nil
}
