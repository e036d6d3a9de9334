package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smbdfs/smbd/internal/registry"
)

// Registry is a GORM-backed registry.Registry. One Registry wraps one
// database connection and is safe for concurrent use (GORM's *gorm.DB
// is itself a concurrency-safe handle over database/sql's pool).
type Registry struct {
	db       *gorm.DB
	validate *validator.Validate
}

// New opens a Registry per cfg. For DriverPostgres with
// cfg.RunMigrations set, the embedded schema is applied via
// golang-migrate before GORM opens the connection (see
// migrate_postgres.go); for DriverSQLite, GORM's AutoMigrate manages
// the schema directly, since there's no pure-Go golang-migrate SQLite
// driver in this module's dependency set.
func New(ctx context.Context, cfg Config) (*Registry, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case DriverPostgres:
		if cfg.RunMigrations {
			if err := runPostgresMigrations(ctx, cfg.PostgresDSN); err != nil {
				return nil, fmt.Errorf("sql registry: run migrations: %w", err)
			}
		}
		dialector = postgres.Open(cfg.PostgresDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("sql registry: open database: %w", err)
	}

	if cfg.Driver == DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql registry: underlying database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.Driver == DriverSQLite || !cfg.RunMigrations {
		if err := db.AutoMigrate(allModels()...); err != nil {
			return nil, fmt.Errorf("sql registry: auto-migrate: %w", err)
		}
	}

	return &Registry{db: db, validate: validator.New()}, nil
}

func toUser(m *userModel) *registry.User {
	u := &registry.User{Username: m.Username, Domain: m.Domain, Disabled: m.Disabled}
	copy(u.NTHash[:], m.NTHash)
	return u
}

func (r *Registry) FindUser(ctx context.Context, username string) (*registry.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, registry.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql registry: find user %q: %w", username, err)
	}
	return toUser(&m), nil
}

// PutUser upserts a user record. Used by seed tooling and smbdctl's
// "user create", not by the SMB2 request path.
func (r *Registry) PutUser(ctx context.Context, u *registry.User) error {
	m := userModel{Username: u.Username, Domain: u.Domain, NTHash: append([]byte(nil), u.NTHash[:]...), Disabled: u.Disabled}
	if err := r.validate.Struct(&m); err != nil {
		return fmt.Errorf("sql registry: validate user: %w", err)
	}
	return r.db.WithContext(ctx).
		Assign(m).
		FirstOrCreate(&m, userModel{Username: u.Username}).Error
}

// ListUsers returns every registered user, ordered by username. Used by
// smbdctl's "user list".
func (r *Registry) ListUsers(ctx context.Context) ([]*registry.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).Order("username").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql registry: list users: %w", err)
	}
	out := make([]*registry.User, 0, len(rows))
	for i := range rows {
		out = append(out, toUser(&rows[i]))
	}
	return out, nil
}

// DeleteUser removes a user record. Used by smbdctl's "user delete".
func (r *Registry) DeleteUser(ctx context.Context, username string) error {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&userModel{})
	if res.Error != nil {
		return fmt.Errorf("sql registry: delete user %q: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return registry.ErrUserNotFound
	}
	return nil
}

func (r *Registry) toShare(ctx context.Context, m *shareModel) (*registry.Share, error) {
	backend, err := buildBackend(ctx, m)
	if err != nil {
		return nil, err
	}
	return &registry.Share{
		Name:              m.Name,
		Path:              m.Path,
		Pipe:              m.Pipe,
		Backend:           backend,
		AllowGuest:        m.AllowGuest,
		DefaultPermission: m.DefaultPermission,
		AllowHosts:        decodeStringList(m.AllowHostsJSON),
		DenyHosts:         decodeStringList(m.DenyHostsJSON),
		InvalidUsers:      decodeStringList(m.InvalidUsersJSON),
		ReadList:          decodeStringList(m.ReadListJSON),
		WriteList:         decodeStringList(m.WriteListJSON),
	}, nil
}

func (r *Registry) FindShare(ctx context.Context, name string) (*registry.Share, error) {
	var m shareModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, registry.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql registry: find share %q: %w", name, err)
	}
	return r.toShare(ctx, &m)
}

func (r *Registry) ListShares(ctx context.Context) ([]*registry.Share, error) {
	var rows []shareModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql registry: list shares: %w", err)
	}
	out := make([]*registry.Share, 0, len(rows))
	for i := range rows {
		share, err := r.toShare(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, share)
	}
	return out, nil
}

// PutShare upserts a share record. backendKind/backendConfig name and
// serialize the backend to rebuild on every FindShare/ListShares call
// (a registry.Share's Backend field can't itself be stored).
func (r *Registry) PutShare(ctx context.Context, share *registry.Share, backendKind string, backendConfig any) error {
	encodedConfig, err := encodeBackendConfig(backendKind, backendConfig)
	if err != nil {
		return err
	}
	m := shareModel{
		Name:              share.Name,
		Path:              share.Path,
		Pipe:              share.Pipe,
		BackendKind:       backendKind,
		BackendConfig:     encodedConfig,
		AllowGuest:        share.AllowGuest,
		DefaultPermission: share.DefaultPermission,
		AllowHostsJSON:    encodeStringList(share.AllowHosts),
		DenyHostsJSON:     encodeStringList(share.DenyHosts),
		InvalidUsersJSON:  encodeStringList(share.InvalidUsers),
		ReadListJSON:      encodeStringList(share.ReadList),
		WriteListJSON:     encodeStringList(share.WriteList),
	}
	if err := r.validate.Struct(&m); err != nil {
		return fmt.Errorf("sql registry: validate share: %w", err)
	}
	return r.db.WithContext(ctx).
		Assign(m).
		FirstOrCreate(&m, shareModel{Name: share.Name}).Error
}

// DeleteShare removes a share record. Used by smbdctl's "share delete".
func (r *Registry) DeleteShare(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&shareModel{})
	if res.Error != nil {
		return fmt.Errorf("sql registry: delete share %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return registry.ErrShareNotFound
	}
	return nil
}

var _ registry.Registry = (*Registry)(nil)
