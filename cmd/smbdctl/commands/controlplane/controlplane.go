// Package controlplane implements smbdctl's control plane
// administration commands, which edit the server's config file
// directly rather than calling the running control plane over HTTP.
package controlplane

import "github.com/spf13/cobra"

// Cmd is the parent command for control plane administration.
var Cmd = &cobra.Command{
	Use:   "controlplane",
	Short: "Administer the control plane's own configuration",
	Long: `Commands that edit the smbd config file itself, as opposed to
talking to a running server's HTTP API.

Examples:
  smbdctl controlplane bootstrap-admin`,
}

func init() {
	Cmd.AddCommand(bootstrapAdminCmd)
}
