// Package commands implements smbdctl's CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	controlplanecmd "github.com/smbdfs/smbd/cmd/smbdctl/commands/controlplane"
	sessioncmd "github.com/smbdfs/smbd/cmd/smbdctl/commands/session"
	sharecmd "github.com/smbdfs/smbd/cmd/smbdctl/commands/share"
	usercmd "github.com/smbdfs/smbd/cmd/smbdctl/commands/user"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "smbdctl",
	Short: "smbd administration CLI",
	Long: `smbdctl administers an smbd SMB2/SMB3 server.

User and share commands talk directly to a sql-backed registry database
(the same one smbd's "database.kind: sql" config points at); session and
health commands talk to the server's running control plane over HTTP.

Use "smbdctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigFile, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "smbd configuration file (for user/share commands)")
	rootCmd.PersistentFlags().String("server", "", "control plane URL (overrides saved login)")
	rootCmd.PersistentFlags().String("token", "", "bearer token (overrides saved login)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessioncmd.Cmd)
	rootCmd.AddCommand(usercmd.Cmd)
	rootCmd.AddCommand(sharecmd.Cmd)
	rootCmd.AddCommand(controlplanecmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
