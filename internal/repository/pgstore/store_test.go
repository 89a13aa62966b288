package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimart/internal/models"
	"unimart/internal/repository"
	"unimart/internal/repository/storetest"
)

// testDSNEnv names a scratch database; its tables are truncated by the tests.
const testDSNEnv = "UNIMART_TEST_POSTGRES_DSN"

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	require.NoError(t, New(pool).EnsureSchema(ctx))
	return pool
}

func emptyStore(t *testing.T, pool *pgxpool.Pool) *Store {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE listings, users, admins`)
	require.NoError(t, err)
	return New(pool)
}

func TestStoreBehaviour(t *testing.T) {
	pool := testPool(t)
	storetest.Run(t, func(t *testing.T) repository.Store { return emptyStore(t, pool) })
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, New(pool).EnsureSchema(context.Background()))
}

func TestStateColumnsMustAgree(t *testing.T) {
	pool := testPool(t)
	s := emptyStore(t, pool)
	ctx := context.Background()

	owner, err := s.Users().Create(ctx, models.Account{Name: "A", Email: "a@x.com", PasswordHash: []byte("h")})
	require.NoError(t, err)

	l := models.Listing{OwnerID: owner.ID, Name: "Book"}
	l.MarkPending()
	l, err = s.Listings().Append(ctx, l)
	require.NoError(t, err)

	l.ApprovedStatus = true
	err = s.Listings().Replace(ctx, l)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "got %v", err)
	assert.Equal(t, "listings_state_agrees", pgErr.ConstraintName)

	stored, err := s.Listings().Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, stored.State())
	assert.False(t, stored.ApprovedStatus)
}
