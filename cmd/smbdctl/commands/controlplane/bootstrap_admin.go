package controlplane

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/cli/prompt"
	"github.com/smbdfs/smbd/internal/config"
	"github.com/smbdfs/smbd/internal/controlplane"
)

var (
	bootstrapUsername string
	bootstrapPassword string
)

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Set the control plane's admin username and password",
	Long: `Generate a bcrypt hash for the given admin password and write
both the username and hash into the config file's controlplane
section, replacing any existing admin credentials.

The server must be restarted (or the config reloaded) for the new
credentials to take effect.

Examples:
  smbdctl controlplane bootstrap-admin --username admin
  smbdctl controlplane bootstrap-admin`,
	RunE: runBootstrapAdmin,
}

func init() {
	bootstrapAdminCmd.Flags().StringVarP(&bootstrapUsername, "username", "u", "", "admin username (prompted if omitted)")
	bootstrapAdminCmd.Flags().StringVarP(&bootstrapPassword, "password", "p", "", "admin password (prompted if omitted)")
}

func runBootstrapAdmin(cmd *cobra.Command, args []string) error {
	username := bootstrapUsername
	var err error
	if username == "" {
		username, err = prompt.InputRequired("Admin username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := bootstrapPassword
	if password == "" {
		password, err = prompt.PasswordWithConfirmation("Admin password", "Confirm password", 8)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	hash, err := controlplane.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	path := cmdutil.Flags.ConfigFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ControlPlane.AdminUsername = username
	cfg.ControlPlane.AdminPasswordHash = hash

	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Admin credentials for %q written to %s.\n", username, path)
	return nil
}
