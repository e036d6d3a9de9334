package share

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry shares",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reg, _, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	shares, err := reg.ListShares(ctx)
	if err != nil {
		return fmt.Errorf("failed to list shares: %w", err)
	}

	rows := output.NewRows("NAME", "PATH", "GUEST", "PERMISSION", "PIPE")
	for _, s := range shares {
		guest := "no"
		if s.AllowGuest {
			guest = "yes"
		}
		pipe := "no"
		if s.Pipe {
			pipe = "yes"
		}
		rows.Add(s.Name, s.Path, guest, s.DefaultPermission, pipe)
	}

	return output.PrintTable(os.Stdout, rows)
}
