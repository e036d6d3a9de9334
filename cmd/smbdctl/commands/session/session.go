// Package session implements smbdctl's read-only session/open-file
// listing commands, backed by the control plane's /api/v1/sessions and
// /api/v1/opens endpoints.
package session

import "github.com/spf13/cobra"

// Cmd is the parent command for session inspection.
var Cmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect live SMB2 sessions and open files",
	Long: `List the SMB2 sessions, tree connects, and open files a running
smbd server currently holds, via its control plane API.

Examples:
  smbdctl session list
  smbdctl session opens`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(opensCmd)
}
