package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/fsbackend/local"
	"github.com/smbdfs/smbd/internal/fsbackend/s3backend"
)

// buildBackend materializes the fsbackend.Backend a shareModel row
// names, decoding its stored kind/config. Each share gets its own
// backend instance; nothing here is cached across calls, since shares
// are expected to be looked up once per TREE_CONNECT and held by the
// caller for the tree's lifetime.
func buildBackend(ctx context.Context, row *shareModel) (fsbackend.Backend, error) {
	switch row.BackendKind {
	case "local":
		var cfg local.Config
		if row.BackendConfig != "" {
			if err := json.Unmarshal([]byte(row.BackendConfig), &cfg); err != nil {
				return nil, fmt.Errorf("sql registry: decode local backend config for share %q: %w", row.Name, err)
			}
		}
		if cfg.BasePath == "" {
			cfg = local.DefaultConfig(row.Path)
		}
		return local.New(cfg)

	case "s3":
		var cfg s3backend.Config
		if row.BackendConfig != "" {
			if err := json.Unmarshal([]byte(row.BackendConfig), &cfg); err != nil {
				return nil, fmt.Errorf("sql registry: decode s3 backend config for share %q: %w", row.Name, err)
			}
		}
		return s3backend.NewFromConfig(ctx, cfg)

	default:
		return nil, fmt.Errorf("sql registry: unknown backend kind %q for share %q", row.BackendKind, row.Name)
	}
}

// encodeBackendConfig serializes a local.Config or s3backend.Config
// for storage in shareModel.BackendConfig. PutShare (used by seed/admin
// tooling, not the hot path) calls this once per write.
func encodeBackendConfig(kind string, cfg any) (string, error) {
	if cfg == nil {
		return "", nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("sql registry: encode %s backend config: %w", kind, err)
	}
	return string(b), nil
}
