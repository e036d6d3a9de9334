// Package cmdutil provides shared helpers for smbdctl's subcommands.
package cmdutil

import (
	"fmt"
	"strings"

	"github.com/smbdfs/smbd/internal/adminclient"
	"github.com/smbdfs/smbd/internal/cli/credentials"
	"github.com/smbdfs/smbd/internal/cli/prompt"
)

// Flags holds global flag values subcommands read.
var Flags = &GlobalFlags{}

// GlobalFlags are persistent flags set on the root command.
type GlobalFlags struct {
	ConfigFile string
	ServerURL  string
	Token      string
}

// GetAuthenticatedClient builds an adminclient.Client for the control
// plane, preferring --server/--token overrides, then a saved login from
// "smbdctl login", refreshing an expired access token along the way.
func GetAuthenticatedClient() (*adminclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return adminclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	sess, err := store.Load()
	if err != nil {
		return nil, err
	}

	url := sess.ServerURL
	if Flags.ServerURL != "" {
		url = Flags.ServerURL
	}
	if url == "" {
		return nil, fmt.Errorf("no server configured; run 'smbdctl login --server <url>'")
	}

	token := sess.AccessToken
	if Flags.Token != "" {
		token = Flags.Token
	}

	if sess.IsExpired() && sess.HasRefreshToken() {
		client := adminclient.New(url)
		tokens, err := client.Refresh(sess.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("session expired; run 'smbdctl login' to re-authenticate")
		}
		sess.AccessToken = tokens.AccessToken
		sess.RefreshToken = tokens.RefreshToken
		sess.ExpiresAt = tokens.ExpiresAt
		if err := store.Save(sess); err != nil {
			return nil, fmt.Errorf("failed to save refreshed tokens: %w", err)
		}
		token = tokens.AccessToken
	}

	if token == "" {
		return nil, fmt.Errorf("no access token; run 'smbdctl login' first")
	}

	return adminclient.New(url).WithToken(token), nil
}

// HandleAbort turns a prompt abort into a quiet no-op, passing any other
// error through unchanged.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("Aborted.")
		return nil
	}
	return err
}

// RunDeleteWithConfirmation prompts for confirmation (skipped when force
// is set) before running deleteFn.
func RunDeleteWithConfirmation(resourceType, name string, force bool, deleteFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s %q?", resourceType, name), force)
	if err != nil {
		return HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}
	if err := deleteFn(); err != nil {
		return err
	}
	fmt.Printf("%s %q deleted.\n", resourceType, name)
	return nil
}

// ParseCommaSeparatedList splits and trims a comma-separated flag value.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
