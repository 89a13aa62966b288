package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"unimart/internal/models"
	"unimart/internal/repository"
	"unimart/internal/security"
)

type AuthService struct {
	users  repository.AccountStore
	admins repository.AccountStore
	tokens *security.TokenService
	log    zerolog.Logger
}

func NewAuthService(store repository.Store, tokens *security.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  store.Users(),
		admins: store.Admins(),
		tokens: tokens,
		log:    log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *AuthService) accounts(kind models.AccountKind) repository.AccountStore {
	if kind == models.AccountKindAdmin {
		return s.admins
	}
	return s.users
}

func scopeFor(kind models.AccountKind) security.Scope {
	if kind == models.AccountKindAdmin {
		return security.ScopeAdmin
	}
	return security.ScopeUser
}

// Register creates a user account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Account, error) {
	return s.create(ctx, s.users, input)
}

func (s *AuthService) create(ctx context.Context, store repository.AccountStore, input RegisterInput) (models.Account, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	switch {
	case input.Name == "":
		return models.Account{}, missing("name")
	case input.Email == "":
		return models.Account{}, missing("email")
	case input.Password == "":
		return models.Account{}, missing("password")
	}

	if _, err := store.FindByEmail(ctx, input.Email); err == nil {
		return models.Account{}, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return models.Account{}, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Account{}, err
	}

	account, err := store.Create(ctx, models.Account{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Login returns a token scoped to kind. Unknown emails and wrong passwords
// produce the same error.
func (s *AuthService) Login(ctx context.Context, kind models.AccountKind, email string, password string) (string, error) {
	account, err := s.accounts(kind).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("stored password hash unreadable")
		return "", ErrInvalidCredentials
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(account.ID, scopeFor(kind))
}

// UpdatePassword replaces a user's password. The caller is not
// re-authenticated.
func (s *AuthService) UpdatePassword(ctx context.Context, email string, password string) error {
	if password == "" {
		return missing("password")
	}

	account, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrUnknownAccount
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, kind models.AccountKind, id string) (models.Account, error) {
	account, err := s.accounts(kind).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("load profile: %w", err)
	}
	return account, nil
}

// EnsureAdmin creates the admin account unless one with the same email
// exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, input RegisterInput) (bool, error) {
	_, err := s.create(ctx, s.admins, input)
	switch {
	case err == nil:
		s.log.Info().Str("email", normalizeEmail(input.Email)).Msg("admin account created")
		return true, nil
	case errors.Is(err, repository.ErrDuplicateEmail):
		return false, nil
	default:
		return false, err
	}
}
