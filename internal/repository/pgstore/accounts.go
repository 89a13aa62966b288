package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"unimart/internal/ids"
	"unimart/internal/models"
	"unimart/internal/repository"
)

const uniqueViolation = "23505"

// AccountRepository stores one account kind in its own table.
type AccountRepository struct {
	pool  *pgxpool.Pool
	table string
	kind  models.AccountKind
}

func NewAccountRepository(pool *pgxpool.Pool, table string, kind models.AccountKind) *AccountRepository {
	return &AccountRepository{pool: pool, table: table, kind: kind}
}

func (r *AccountRepository) Create(ctx context.Context, account models.Account) (models.Account, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`, r.table)

	account.ID = ids.New()
	account.Kind = r.kind

	err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Account{}, repository.ErrDuplicateEmail
		}
		return models.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM %s WHERE lower(email) = lower($1)
	`, r.table)

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM %s WHERE id = $1
	`, r.table)

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	query := fmt.Sprintf(`
		UPDATE %s SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, r.table)

	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) scanOne(row pgx.Row) (models.Account, error) {
	account := models.Account{Kind: r.kind}
	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, repository.ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
