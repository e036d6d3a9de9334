// Package share implements smbdctl's share management commands,
// talking directly to the SQL registry database for the same reason
// cmd/smbdctl/commands/user does.
package share

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/config"
	registrysql "github.com/smbdfs/smbd/internal/registry/sql"
)

// Cmd is the parent command for share management.
var Cmd = &cobra.Command{
	Use:   "share",
	Short: "Manage registry shares",
	Long: `Create, list, and delete the shares an smbd server exposes over
TREE_CONNECT.

Examples:
  smbdctl share list
  smbdctl share create --name docs --path /srv/docs
  smbdctl share delete docs`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(deleteCmd)
}

func openRegistry(ctx context.Context) (*registrysql.Registry, *config.Config, error) {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Kind != "sql" {
		return nil, nil, fmt.Errorf("database.kind is %q, not \"sql\"; smbdctl can only manage shares in a SQL-backed registry", cfg.Database.Kind)
	}
	reg, err := registrysql.New(ctx, cfg.ToRegistrySQLConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	return reg, cfg, nil
}
