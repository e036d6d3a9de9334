package controlplane

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smbdfs/smbd/internal/controlplane/auth"
	"github.com/smbdfs/smbd/internal/controlplane/handlers"
	cpmiddleware "github.com/smbdfs/smbd/internal/controlplane/middleware"
	"github.com/smbdfs/smbd/internal/logx"
	"github.com/smbdfs/smbd/internal/metrics"
)

// newRouter builds the chi router: unauthenticated health and metrics
// endpoints, a login endpoint, and JWT-protected read-only listings of
// sessions, tree connects, and open files.
func newRouter(cfg Config, jwtService *auth.JWTService, provider handlers.SessionProvider, ready func() bool) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(ready)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(cfg.AdminUsername, cfg.AdminPasswordHash, jwtService)
	sessionHandler := handlers.NewSessionHandler(provider)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(cpmiddleware.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(cpmiddleware.JWTAuth(jwtService))

			r.Get("/sessions", sessionHandler.List)
			r.Get("/opens", sessionHandler.ListOpens)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logx.Debug("controlplane request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
