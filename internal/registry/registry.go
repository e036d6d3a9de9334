// Package registry defines the user and share directory the SMB2
// server consults for authentication and TREE_CONNECT policy: who a
// user is (for NTLM verification) and what shares exist and under what
// access rules.
package registry

import (
	"context"
	"errors"

	"github.com/smbdfs/smbd/internal/fsbackend"
	"github.com/smbdfs/smbd/internal/smb2/session"
)

var (
	ErrUserNotFound  = errors.New("registry: user not found")
	ErrShareNotFound = errors.New("registry: share not found")
)

// User is an account the registry can authenticate a SESSION_SETUP
// against.
type User struct {
	Username string
	Domain   string
	// NTHash is the MD4 of the UTF-16LE password (NT OWF), used by both
	// the NTLMv1 and NTLMv2 response verifiers.
	NTHash [16]byte
	Disabled bool
}

// Share describes one exported tree, its backend, and its access
// policy.
type Share struct {
	Name    string
	Path    string
	Pipe    bool
	Backend fsbackend.Backend

	AllowGuest        bool
	DefaultPermission string
	AllowHosts        []string
	DenyHosts         []string
	InvalidUsers      []string
	ReadList          []string
	WriteList         []string
}

// UserLookup resolves a username to its authentication record.
type UserLookup interface {
	FindUser(ctx context.Context, username string) (*User, error)
}

// ShareDirectory resolves share names to their records. It does not
// itself satisfy session.ShareLookup; ShareLookupAdapter below adapts a
// Registry for session.Manager.ConnectTree.
type ShareDirectory interface {
	FindShare(ctx context.Context, name string) (*Share, error)
	ListShares(ctx context.Context) ([]*Share, error)
}

// Registry composes both lookups; it is the single collaborator the
// SESSION_SETUP and TREE_CONNECT handlers depend on.
type Registry interface {
	UserLookup
	ShareDirectory
}

// ShareLookupAdapter adapts a Registry to session.ShareLookup (a
// synchronous, context-free interface) for session.Manager.ConnectTree.
type ShareLookupAdapter struct {
	Registry Registry
}

func (a ShareLookupAdapter) GetShare(name string) (*session.ShareInfo, bool) {
	share, err := a.Registry.FindShare(context.Background(), name)
	if err != nil {
		return nil, false
	}
	return &session.ShareInfo{
		Name:              share.Name,
		Path:              share.Path,
		Pipe:              share.Pipe,
		Backend:           share.Backend,
		AllowGuest:        share.AllowGuest,
		DefaultPermission: share.DefaultPermission,
		AllowHosts:        share.AllowHosts,
		DenyHosts:         share.DenyHosts,
		InvalidUsers:      share.InvalidUsers,
		ReadList:          share.ReadList,
		WriteList:         share.WriteList,
	}, true
}

var _ session.ShareLookup = ShareLookupAdapter{}
