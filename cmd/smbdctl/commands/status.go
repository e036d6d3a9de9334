package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the connected server's health",
	Long: `Check the control plane's liveness and readiness endpoints and
display the server's service name, start time, and uptime.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	health, err := client.Health()
	if err != nil {
		fmt.Println("Status:   unreachable")
		fmt.Printf("Error:    %v\n", err)
		return nil
	}

	readyErr := client.Ready()

	fmt.Printf("Service:  %s\n", health.Service)
	fmt.Printf("Started:  %s\n", health.StartedAt)
	fmt.Printf("Uptime:   %s\n", health.Uptime)
	if readyErr != nil {
		fmt.Println("SMB2:     not ready")
	} else {
		fmt.Println("SMB2:     ready")
	}
	return nil
}
