package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type storedCredential struct {
	bun.BaseModel `bun:"table:session_credentials,alias:cred"`

	Role         string     `bun:"role,pk" json:"role"`
	AccessToken  string     `bun:"access_token,notnull" json:"access_token"`
	RefreshToken string     `bun:"refresh_token" json:"refresh_token,omitempty"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunStore is the durable TokenStore: a single-row-per-role bun table that
// survives a full reload of the process. Read failures degrade to absent so
// an unavailable database reads as unauthenticated.
type BunStore struct {
	db     *bun.DB
	logger Logger
}

// BunStoreOption customizes a BunStore.
type BunStoreOption func(*BunStore)

// WithBunStoreLogger overrides the logger used for degraded reads.
func WithBunStoreLogger(logger Logger) BunStoreOption {
	return func(s *BunStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewBunStore creates a durable store on the given bun handle.
func NewBunStore(db *bun.DB, opts ...BunStoreOption) *BunStore {
	s := &BunStore{db: db, logger: defLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQLiteStore opens (or creates) a sqlite-backed BunStore at path and
// ensures its schema. Use ":memory:" for throwaway stores.
func OpenSQLiteStore(ctx context.Context, path string, opts ...BunStoreOption) (*BunStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open credential store")
	}

	store := NewBunStore(bun.NewDB(sqldb, sqlitedialect.New()), opts...)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Init creates the credential table when missing.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*storedCredential)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize credential store").
			WithTextCode(TextCodeStorageUnavailable)
	}
	return nil
}

// Set upserts the role's credentials. Exactly one row per role.
func (s *BunStore) Set(ctx context.Context, role Role, creds Credentials) error {
	now := time.Now()
	rec := &storedCredential{
		Role:         string(role),
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		UpdatedAt:    &now,
	}

	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (role) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist credentials").
			WithTextCode(TextCodeStorageUnavailable)
	}
	return nil
}

// Get returns the role's credentials. Any storage failure degrades to absent.
func (s *BunStore) Get(ctx context.Context, role Role) (Credentials, bool) {
	rec := &storedCredential{}
	err := s.db.NewSelect().
		Model(rec).
		Where("role = ?", string(role)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("credential store read failed, treating as absent", "role", role, "error", err)
		}
		return Credentials{}, false
	}

	if rec.AccessToken == "" {
		return Credentials{}, false
	}

	return Credentials{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Role:         role,
	}, true
}

// Clear removes the role's row only.
func (s *BunStore) Clear(ctx context.Context, role Role) error {
	_, err := s.db.NewDelete().
		Model((*storedCredential)(nil)).
		Where("role = ?", string(role)).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear credentials").
			WithTextCode(TextCodeStorageUnavailable)
	}
	return nil
}

// ClearAll removes every role's row.
func (s *BunStore) ClearAll(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*storedCredential)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear credentials").
			WithTextCode(TextCodeStorageUnavailable)
	}
	return nil
}
