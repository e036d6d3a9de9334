// Package user implements smbdctl's user management commands. These
// talk directly to the SQL registry database rather than the control
// plane's HTTP API: user accounts are dynamic configuration that, per
// internal/config's own package doc, "lives in the registry and is
// managed through smbdctl ... not this file."
package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/config"
	registrysql "github.com/smbdfs/smbd/internal/registry/sql"
)

// Cmd is the parent command for user management.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Manage registry user accounts",
	Long: `Create, list, and delete the accounts an smbd server
authenticates SESSION_SETUP requests against.

These commands open the registry database directly (the same one the
running smbd process reads from), rather than calling the control
plane's HTTP API, since user accounts are registry data rather
than runtime state.

Examples:
  smbdctl user list
  smbdctl user create --username alice
  smbdctl user delete alice`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(deleteCmd)
}

// openRegistry loads the server config and opens a direct connection to
// its SQL registry. Returns an error naming the fix when the configured
// registry is the in-memory kind, which smbdctl cannot reach out of
// process.
func openRegistry(ctx context.Context) (*registrysql.Registry, error) {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Kind != "sql" {
		return nil, fmt.Errorf("database.kind is %q, not \"sql\"; smbdctl can only manage users in a SQL-backed registry", cfg.Database.Kind)
	}
	reg, err := registrysql.New(ctx, cfg.ToRegistrySQLConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	return reg, nil
}
