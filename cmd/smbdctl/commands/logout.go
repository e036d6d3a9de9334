package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/internal/cli/credentials"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the saved control plane session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}
