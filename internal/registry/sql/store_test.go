package sql

import (
	"context"
	"testing"

	"github.com/smbdfs/smbd/internal/fsbackend/local"
	"github.com/smbdfs/smbd/internal/registry"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(context.Background(), Config{Driver: DriverSQLite, SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestPutAndFindUser(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	u := &registry.User{Username: "alice", Domain: "CORP", NTHash: [16]byte{1, 2, 3}}
	if err := r.PutUser(ctx, u); err != nil {
		t.Fatalf("PutUser: %v", err)
	}

	got, err := r.FindUser(ctx, "alice")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if got.Domain != "CORP" || got.NTHash != u.NTHash {
		t.Errorf("FindUser = %+v, want domain CORP and matching hash", got)
	}
}

func TestFindUserUnknownReturnsErrUserNotFound(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.FindUser(context.Background(), "nobody"); err != registry.ErrUserNotFound {
		t.Errorf("FindUser(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestPutUserRejectsMissingUsername(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.PutUser(context.Background(), &registry.User{}); err == nil {
		t.Error("PutUser with empty username should fail validation")
	}
}

func TestPutAndFindShareRebuildsLocalBackend(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	root := t.TempDir()

	share := &registry.Share{
		Name:       "data",
		Path:       "/",
		AllowGuest: false,
		ReadList:   []string{"alice"},
		WriteList:  []string{"alice"},
	}
	if err := r.PutShare(ctx, share, "local", local.DefaultConfig(root)); err != nil {
		t.Fatalf("PutShare: %v", err)
	}

	got, err := r.FindShare(ctx, "data")
	if err != nil {
		t.Fatalf("FindShare: %v", err)
	}
	if got.Backend == nil {
		t.Fatal("FindShare should rebuild a live backend")
	}
	if len(got.ReadList) != 1 || got.ReadList[0] != "alice" {
		t.Errorf("ReadList = %v, want [alice]", got.ReadList)
	}

	if _, err := got.Backend.CreateFile(ctx, "hello.txt"); err != nil {
		t.Errorf("CreateFile via rebuilt backend: %v", err)
	}
}

func TestListSharesReturnsAllRows(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	root := t.TempDir()

	for _, name := range []string{"one", "two"} {
		share := &registry.Share{Name: name, Path: "/"}
		if err := r.PutShare(ctx, share, "local", local.DefaultConfig(root)); err != nil {
			t.Fatalf("PutShare(%s): %v", name, err)
		}
	}

	shares, err := r.ListShares(ctx)
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}
	if len(shares) != 2 {
		t.Errorf("ListShares returned %d shares, want 2", len(shares))
	}
}

func TestListUsersReturnsAllRowsOrderedByUsername(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"bob", "alice"} {
		if err := r.PutUser(ctx, &registry.User{Username: name}); err != nil {
			t.Fatalf("PutUser(%s): %v", name, err)
		}
	}

	users, err := r.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListUsers returned %d users, want 2", len(users))
	}
	if users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("ListUsers = [%s %s], want [alice bob]", users[0].Username, users[1].Username)
	}
}

func TestDeleteUserRemovesRow(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	if err := r.PutUser(ctx, &registry.User{Username: "alice"}); err != nil {
		t.Fatalf("PutUser: %v", err)
	}
	if err := r.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := r.FindUser(ctx, "alice"); err != registry.ErrUserNotFound {
		t.Errorf("FindUser after delete = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteUserUnknownReturnsErrUserNotFound(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.DeleteUser(context.Background(), "nobody"); err != registry.ErrUserNotFound {
		t.Errorf("DeleteUser(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteShareRemovesRow(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	root := t.TempDir()

	share := &registry.Share{Name: "data", Path: "/"}
	if err := r.PutShare(ctx, share, "local", local.DefaultConfig(root)); err != nil {
		t.Fatalf("PutShare: %v", err)
	}
	if err := r.DeleteShare(ctx, "data"); err != nil {
		t.Fatalf("DeleteShare: %v", err)
	}
	if _, err := r.FindShare(ctx, "data"); err != registry.ErrShareNotFound {
		t.Errorf("FindShare after delete = %v, want ErrShareNotFound", err)
	}
}

func TestDeleteShareUnknownReturnsErrShareNotFound(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.DeleteShare(context.Background(), "nobody"); err != registry.ErrShareNotFound {
		t.Errorf("DeleteShare(unknown) error = %v, want ErrShareNotFound", err)
	}
}

func TestPutSharePersistsUpdatesOnConflict(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	root := t.TempDir()

	share := &registry.Share{Name: "data", Path: "/", AllowGuest: false}
	if err := r.PutShare(ctx, share, "local", local.DefaultConfig(root)); err != nil {
		t.Fatalf("PutShare: %v", err)
	}

	share.AllowGuest = true
	if err := r.PutShare(ctx, share, "local", local.DefaultConfig(root)); err != nil {
		t.Fatalf("PutShare (update): %v", err)
	}

	got, err := r.FindShare(ctx, "data")
	if err != nil {
		t.Fatalf("FindShare: %v", err)
	}
	if !got.AllowGuest {
		t.Error("PutShare should update AllowGuest on an existing row, not leave the stale value")
	}

	all, err := r.ListShares(ctx)
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("PutShare(same name) should update, not insert a second row; got %d rows", len(all))
	}
}
