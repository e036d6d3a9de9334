package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags plus a handful of cross-field rules the
// tag language can't express (which fields are required depends on
// which Kind was selected).
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	switch cfg.Database.Kind {
	case "sql":
		switch cfg.Database.Driver {
		case "sqlite":
			if cfg.Database.SQLitePath == "" {
				return fmt.Errorf("database.sqlite_path is required when driver is sqlite")
			}
		case "postgres":
			if cfg.Database.PostgresDSN == "" {
				return fmt.Errorf("database.postgres_dsn is required when driver is postgres")
			}
		default:
			return fmt.Errorf("database.driver %q is not sqlite or postgres", cfg.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("database.kind %q is not memory or sql", cfg.Database.Kind)
	}

	switch cfg.Backend.Kind {
	case "local":
		if cfg.Backend.Local.BasePath == "" {
			return fmt.Errorf("backend.local.base_path is required when backend.kind is local")
		}
	case "s3":
		if cfg.Backend.S3.Bucket == "" {
			return fmt.Errorf("backend.s3.bucket is required when backend.kind is s3")
		}
	default:
		return fmt.Errorf("backend.kind %q is not local or s3", cfg.Backend.Kind)
	}

	if cfg.Handles.DurableStore == "badger" && cfg.Handles.BadgerPath == "" {
		return fmt.Errorf("handles.badger_path is required when handles.durable_store is badger")
	}

	if cfg.ControlPlane.Enabled && len(cfg.ControlPlane.JWT.Secret) < 32 {
		return fmt.Errorf("controlplane.jwt.secret must be at least 32 characters when controlplane is enabled")
	}
	if cfg.ControlPlane.Enabled && cfg.ControlPlane.AdminPasswordHash == "" {
		return fmt.Errorf("controlplane.admin_password_hash is required when controlplane is enabled")
	}

	return nil
}
