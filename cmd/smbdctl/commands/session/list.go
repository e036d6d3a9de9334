package session

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active SMB2 sessions",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	sessions, err := client.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	rows := output.NewRows("SESSION ID", "CLIENT", "USER", "DOMAIN", "GUEST", "TREES", "CREATED")
	for _, s := range sessions {
		guest := "no"
		if s.IsGuest {
			guest = "yes"
		}
		rows.Add(
			fmt.Sprintf("%d", s.SessionID),
			s.ClientAddr,
			s.Username,
			s.Domain,
			guest,
			fmt.Sprintf("%d", len(s.Trees)),
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return output.PrintTable(os.Stdout, rows)
}
