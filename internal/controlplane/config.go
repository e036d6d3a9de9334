package controlplane

import (
	"fmt"
	"time"
)

// EnvJWTSecret is consulted in preference to Config.JWT.Secret, so the
// signing key never needs to be committed to disk. Mirrors
// internal/config.EnvControlPlaneSecret, which is where cmd/smbd
// actually reads it from before building a Config.
const EnvJWTSecret = "SMBD_CONTROLPLANE_JWT_SECRET"

// JWTConfig configures bearer-token auth for the admin API.
type JWTConfig struct {
	Secret               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// Config configures the control plane's HTTP server.
type Config struct {
	Addr string
	JWT  JWTConfig

	// AdminUsername/AdminPasswordHash authenticate the single admin
	// identity /api/v1/auth/login accepts. AdminPasswordHash is a
	// bcrypt hash produced by HashPassword.
	AdminUsername     string
	AdminPasswordHash string
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.JWT.AccessTokenDuration == 0 {
		c.JWT.AccessTokenDuration = 15 * time.Minute
	}
	if c.JWT.RefreshTokenDuration == 0 {
		c.JWT.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("controlplane: jwt secret must be at least 32 characters, set via %s or config", EnvJWTSecret)
	}
	if c.AdminPasswordHash == "" {
		return fmt.Errorf("controlplane: admin password hash is required")
	}
	return nil
}
