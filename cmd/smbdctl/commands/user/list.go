package user

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry user accounts",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reg, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	users, err := reg.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	rows := output.NewRows("USERNAME", "DOMAIN", "DISABLED")
	for _, u := range users {
		disabled := "no"
		if u.Disabled {
			disabled = "yes"
		}
		rows.Add(u.Username, u.Domain, disabled)
	}

	return output.PrintTable(os.Stdout, rows)
}
