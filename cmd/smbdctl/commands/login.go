package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/adminclient"
	"github.com/smbdfs/smbd/internal/cli/credentials"
	"github.com/smbdfs/smbd/internal/cli/prompt"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a control plane and save the session",
	Long: `Authenticate with an smbd control plane and save the session for
subsequent session/status commands.

Examples:
  smbdctl login --server http://localhost:8445 --username admin
  smbdctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "control plane URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "admin username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "admin password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	serverURLStr := loginServer
	if serverURLStr == "" {
		if sess, err := store.Load(); err == nil && sess.ServerURL != "" {
			serverURLStr = sess.ServerURL
		}
	}
	if serverURLStr == "" {
		return fmt.Errorf("no server URL specified; run 'smbdctl login --server http://host:port'")
	}

	parsed, err := url.Parse(serverURLStr)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
		serverURLStr = parsed.String()
	}

	username := loginUsername
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := loginPassword
	if password == "" {
		password, err = prompt.Password("Password")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	client := adminclient.New(serverURLStr)
	fmt.Printf("Logging in to %s as %s...\n", serverURLStr, username)
	tokens, err := client.Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	sess := &credentials.Session{
		ServerURL:    serverURLStr,
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("Logged in as %s. Credentials saved to %s\n", username, store.Path())
	return nil
}
