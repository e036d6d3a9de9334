package session

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/cli/output"
)

var opensCmd = &cobra.Command{
	Use:   "opens",
	Short: "List open files across all sessions",
	RunE:  runOpens,
}

func runOpens(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	opens, err := client.ListOpens()
	if err != nil {
		return fmt.Errorf("failed to list open files: %w", err)
	}

	rows := output.NewRows("SESSION ID", "TREE ID", "PATH", "KIND", "DELETE PENDING", "OPENED")
	for _, o := range opens {
		kind := "file"
		if o.IsDirectory {
			kind = "dir"
		}
		if o.IsPipe {
			kind = "pipe"
		}
		pending := ""
		if o.DeletePending {
			pending = "yes"
		}
		rows.Add(
			fmt.Sprintf("%d", o.SessionID),
			fmt.Sprintf("%d", o.TreeID),
			o.Path,
			kind,
			pending,
			o.OpenedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return output.PrintTable(os.Stdout, rows)
}
