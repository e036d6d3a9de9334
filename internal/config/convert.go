package config

import (
	"github.com/smbdfs/smbd/internal/controlplane"
	"github.com/smbdfs/smbd/internal/fsbackend/local"
	"github.com/smbdfs/smbd/internal/fsbackend/s3backend"
	"github.com/smbdfs/smbd/internal/registry/sql"
	"github.com/smbdfs/smbd/internal/smb2/server"
)

// ToServerConfig builds the internal/smb2/server.Config this
// configuration describes, for passing to server.New.
func (c *Config) ToServerConfig() server.Config {
	return server.Config{
		Addr:                     c.Server.Addr,
		MaxConnections:           c.Server.MaxConnections,
		MaxRequestsPerConnection: c.Server.MaxRequestsPerConnection,
		MaxMessageSize:           c.Server.MaxMessageSize.Int(),
		Timeouts: server.Timeouts{
			Read:     c.Server.Timeouts.Read,
			Write:    c.Server.Timeouts.Write,
			Idle:     c.Server.Timeouts.Idle,
			Shutdown: c.Server.Timeouts.Shutdown,
		},
		MetricsLogInterval: c.Server.MetricsLogInterval,
		OplockSweepPeriod:  c.Server.OplockSweepPeriod,
	}
}

// ToRegistrySQLConfig builds a registry/sql.Config from the database
// section. Only meaningful when Database.Kind == "sql"; callers should
// use registry/memory.New() directly for Kind == "memory".
func (c *Config) ToRegistrySQLConfig() sql.Config {
	driver := sql.DriverSQLite
	if c.Database.Driver == "postgres" {
		driver = sql.DriverPostgres
	}
	return sql.Config{
		Driver:        driver,
		SQLitePath:    c.Database.SQLitePath,
		PostgresDSN:   c.Database.PostgresDSN,
		MaxOpenConns:  c.Database.MaxOpenConns,
		MaxIdleConns:  c.Database.MaxIdleConns,
		RunMigrations: c.Database.RunMigrations,
	}
}

// ToLocalBackendConfig builds the local-disk backend config a newly
// created share with no explicit backend falls back to.
func (c *Config) ToLocalBackendConfig() local.Config {
	return local.Config{
		BasePath:  c.Backend.Local.BasePath,
		CreateDir: c.Backend.Local.CreateDir,
		DirMode:   c.Backend.Local.DirMode,
		FileMode:  c.Backend.Local.FileMode,
	}
}

// ToS3BackendConfig builds the S3 backend config for shares rooted at
// an S3 prefix.
func (c *Config) ToS3BackendConfig() s3backend.Config {
	return s3backend.Config{
		Bucket:         c.Backend.S3.Bucket,
		Region:         c.Backend.S3.Region,
		Endpoint:       c.Backend.S3.Endpoint,
		KeyPrefix:      c.Backend.S3.KeyPrefix,
		ForcePathStyle: c.Backend.S3.ForcePathStyle,
	}
}

// ToControlPlaneConfig builds the internal/controlplane.Config this
// configuration describes, for passing to controlplane.NewServer.
func (c *Config) ToControlPlaneConfig() controlplane.Config {
	return controlplane.Config{
		Addr: c.ControlPlane.Addr,
		JWT: controlplane.JWTConfig{
			Secret:               c.ControlPlane.JWT.Secret,
			AccessTokenDuration:  c.ControlPlane.JWT.AccessTokenDuration,
			RefreshTokenDuration: c.ControlPlane.JWT.RefreshTokenDuration,
		},
		AdminUsername:     c.ControlPlane.AdminUsername,
		AdminPasswordHash: c.ControlPlane.AdminPasswordHash,
	}
}
