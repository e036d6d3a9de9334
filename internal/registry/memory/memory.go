// Package memory provides an in-memory registry.Registry. All data is
// lost on restart. It starts empty and holds only the records added
// through PutUser/PutShare; nothing in internal/config populates it.
package memory

import (
	"context"
	"sync"

	"github.com/smbdfs/smbd/internal/registry"
)

// Registry is a thread-safe, ephemeral registry.Registry.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]*registry.User
	shares map[string]*registry.Share
}

func New() *Registry {
	return &Registry{
		users:  make(map[string]*registry.User),
		shares: make(map[string]*registry.Share),
	}
}

func copyUser(u *registry.User) *registry.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func copyShare(s *registry.Share) *registry.Share {
	if s == nil {
		return nil
	}
	c := *s
	c.AllowHosts = append([]string(nil), s.AllowHosts...)
	c.DenyHosts = append([]string(nil), s.DenyHosts...)
	c.InvalidUsers = append([]string(nil), s.InvalidUsers...)
	c.ReadList = append([]string(nil), s.ReadList...)
	c.WriteList = append([]string(nil), s.WriteList...)
	return &c
}

// PutUser registers or replaces a user record.
func (r *Registry) PutUser(u *registry.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.Username] = copyUser(u)
}

// PutShare registers or replaces a share record.
func (r *Registry) PutShare(s *registry.Share) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shares[s.Name] = copyShare(s)
}

func (r *Registry) FindUser(ctx context.Context, username string) (*registry.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, registry.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *Registry) FindShare(ctx context.Context, name string) (*registry.Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shares[name]
	if !ok {
		return nil, registry.ErrShareNotFound
	}
	return copyShare(s), nil
}

func (r *Registry) ListShares(ctx context.Context) ([]*registry.Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*registry.Share, 0, len(r.shares))
	for _, s := range r.shares {
		out = append(out, copyShare(s))
	}
	return out, nil
}

var _ registry.Registry = (*Registry)(nil)
