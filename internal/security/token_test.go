package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("secret", "acct-1", ScopeUser, time.Hour)
	require.NoError(t, err)

	subject, err := ParseToken(token, "secret", ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", subject)
}

func TestParseTokenRejections(t *testing.T) {
	valid, err := IssueToken("secret", "acct-1", ScopeUser, time.Hour)
	require.NoError(t, err)
	expired, err := issueTokenAt("secret", "acct-1", ScopeUser, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	cases := map[string]struct {
		token  string
		secret string
		scope  Scope
	}{
		"wrong secret": {valid, "other", ScopeUser},
		"wrong scope":  {valid, "secret", ScopeAdmin},
		"expired":      {expired, "secret", ScopeUser},
		"malformed":    {"not-a-jwt", "secret", ScopeUser},
		"bearer":       {"Bearer " + valid, "secret", ScopeUser},
		"empty":        {"", "secret", ScopeUser},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.token, tc.secret, tc.scope)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	issuedAt := time.Now().Add(-59 * time.Minute)
	token, err := issueTokenAt("secret", "acct-1", ScopeUser, time.Hour, issuedAt)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret", ScopeUser)
	assert.NoError(t, err)
}

func TestTokenServiceSeparatesScopes(t *testing.T) {
	svc := NewTokenService("user-secret", "admin-secret", time.Hour)

	userToken, err := svc.Issue("u1", ScopeUser)
	require.NoError(t, err)
	adminToken, err := svc.Issue("a1", ScopeAdmin)
	require.NoError(t, err)

	subject, err := svc.Verify(userToken, ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, "u1", subject)

	subject, err = svc.Verify(adminToken, ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, "a1", subject)

	_, err = svc.Verify(userToken, ScopeAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Verify(adminToken, ScopeUser)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceSharedSecretStillScoped(t *testing.T) {
	svc := NewTokenService("shared", "", time.Hour)

	userToken, err := svc.Issue("u1", ScopeUser)
	require.NoError(t, err)

	_, err = svc.Verify(userToken, ScopeAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	_, err := IssueToken("secret", "", ScopeUser, time.Hour)
	assert.Error(t, err)
}
