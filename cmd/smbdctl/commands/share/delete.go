package share

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a share",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	reg, _, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("share", name, deleteForce, func() error {
		if err := reg.DeleteShare(ctx, name); err != nil {
			return fmt.Errorf("failed to delete share: %w", err)
		}
		return nil
	})
}
