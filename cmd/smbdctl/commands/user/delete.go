package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	username := args[0]

	reg, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("user", username, deleteForce, func() error {
		if err := reg.DeleteUser(ctx, username); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
