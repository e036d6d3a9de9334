package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/cli/prompt"
	"github.com/smbdfs/smbd/internal/registry"
	"github.com/smbdfs/smbd/internal/smb2/session"
)

var (
	createUsername string
	createDomain   string
	createPassword string
	createDisabled bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or replace a user account",
	Long: `Create a registry user account, or replace an existing one with
the same username. The password is never stored: only its NT hash
(MD4 of the UTF-16LE password) is written to the registry.

Examples:
  smbdctl user create --username alice
  smbdctl user create --username alice --domain CORP --password hunter2`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createUsername, "username", "u", "", "account username (required)")
	createCmd.Flags().StringVarP(&createDomain, "domain", "d", "", "NTLM domain/workgroup")
	createCmd.Flags().StringVarP(&createPassword, "password", "p", "", "account password (prompted if omitted)")
	createCmd.Flags().BoolVar(&createDisabled, "disabled", false, "create the account disabled")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	username := createUsername
	var err error
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := createPassword
	if password == "" {
		password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 1)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	reg, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	u := &registry.User{
		Username: username,
		Domain:   createDomain,
		NTHash:   session.NTHash(password),
		Disabled: createDisabled,
	}
	if err := reg.PutUser(ctx, u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %q created.\n", username)
	return nil
}
