package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"unimart/internal/models"
	"unimart/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS admins (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS listings (
	id              TEXT PRIMARY KEY,
	owner_id        TEXT NOT NULL REFERENCES users(id),
	name            TEXT NOT NULL,
	price           DOUBLE PRECISION NOT NULL,
	rollno          TEXT NOT NULL,
	collegename     TEXT NOT NULL,
	googledrivelink TEXT NOT NULL,
	description     TEXT NOT NULL,
	dept            TEXT NOT NULL,
	phoneno         TEXT NOT NULL,
	approved_status BOOLEAN NOT NULL DEFAULT FALSE,
	approved_string TEXT NOT NULL DEFAULT 'Pending',
	photo_key       TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT listings_state_agrees CHECK (approved_status = (approved_string = 'Approved'))
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS admins_email_lower_idx ON admins (lower(email));
CREATE INDEX IF NOT EXISTS listings_owner_id_idx ON listings (owner_id);
CREATE INDEX IF NOT EXISTS listings_approved_string_idx ON listings (approved_string);
`

type Store struct {
	pool     *pgxpool.Pool
	users    *AccountRepository
	admins   *AccountRepository
	listings *ListingRepository
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		users:    NewAccountRepository(pool, "users", models.AccountKindUser),
		admins:   NewAccountRepository(pool, "admins", models.AccountKindAdmin),
		listings: NewListingRepository(pool),
	}
}

// EnsureSchema creates missing tables and indexes. It never alters existing
// ones.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.AccountStore    { return s.users }
func (s *Store) Admins() repository.AccountStore   { return s.admins }
func (s *Store) Listings() repository.ListingStore { return s.listings }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
