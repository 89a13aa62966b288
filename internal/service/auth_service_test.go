package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimart/internal/models"
	"unimart/internal/repository"
	"unimart/internal/security"
)

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account := f.registerUser(t, "A", "a@x.com", "p1")
	assert.Equal(t, "a@x.com", account.Email)
	assert.NotEqual(t, []byte("p1"), account.PasswordHash)

	_, err := f.auth.Register(ctx, RegisterInput{Name: "A2", Email: "  A@X.com ", Password: "other"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestRegisterReportsFirstMissingField(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		input RegisterInput
		field string
	}{
		{RegisterInput{Email: "a@x.com", Password: "p"}, "name"},
		{RegisterInput{Name: "A", Email: "   ", Password: "p"}, "email"},
		{RegisterInput{Name: "A", Email: "a@x.com"}, "password"},
	}
	for _, tc := range cases {
		_, err := f.auth.Register(context.Background(), tc.input)
		var missingErr *MissingFieldError
		require.True(t, errors.As(err, &missingErr), "expected missing field for %+v", tc.input)
		assert.Equal(t, tc.field, missingErr.Field)
	}
}

func TestLoginFailsUniformly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "A", "a@x.com", "p1")

	_, err := f.auth.Login(ctx, models.AccountKindUser, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, models.AccountKindUser, "nobody@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, models.AccountKindAdmin, "a@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "user credentials must not open an admin session")
}

func TestLoginIssuesScopedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.registerUser(t, "A", "a@x.com", "p1")

	token, err := f.auth.Login(ctx, models.AccountKindUser, "A@x.com", "p1")
	require.NoError(t, err)

	subject, err := f.tokens.Verify(token, security.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, account.ID, subject)

	_, err = f.tokens.Verify(token, security.ScopeAdmin)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "A", "a@x.com", "p1")

	require.NoError(t, f.auth.UpdatePassword(ctx, "a@x.com", "p2"))

	_, err := f.auth.Login(ctx, models.AccountKindUser, "a@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, models.AccountKindUser, "a@x.com", "p2")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.auth.UpdatePassword(ctx, "ghost@x.com", "p3"), ErrUnknownAccount)
}

func TestProfileByKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.registerUser(t, "A", "a@x.com", "p1")

	profile, err := f.auth.Profile(ctx, models.AccountKindUser, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", profile.Name)
	assert.Equal(t, "a@x.com", profile.Email)

	_, err = f.auth.Profile(ctx, models.AccountKindAdmin, account.ID)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := RegisterInput{Name: "Admin", Email: "admin@x.com", Password: "secret"}

	created, err := f.auth.EnsureAdmin(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.auth.EnsureAdmin(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)

	token, err := f.auth.Login(ctx, models.AccountKindAdmin, "admin@x.com", "secret")
	require.NoError(t, err)
	_, err = f.tokens.Verify(token, security.ScopeAdmin)
	assert.NoError(t, err)

	_, err = f.auth.Login(ctx, models.AccountKindUser, "admin@x.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
