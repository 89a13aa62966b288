package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope names the account kind a token was issued for. User and admin gates
// accept only their own scope.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

// ErrInvalidToken covers bad signatures, expiry, malformed input and scope
// mismatches alike.
var ErrInvalidToken = errors.New("invalid token")

type SessionClaims struct {
	AccountID string `json:"id"`
	jwt.RegisteredClaims
}

func IssueToken(secret string, subjectID string, scope Scope, ttl time.Duration) (string, error) {
	return issueTokenAt(secret, subjectID, scope, ttl, time.Now())
}

func issueTokenAt(secret string, subjectID string, scope Scope, ttl time.Duration, now time.Time) (string, error) {
	if subjectID == "" {
		return "", errors.New("sign jwt: empty subject")
	}

	claims := SessionClaims{
		AccountID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{string(scope)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// ParseToken verifies tokenStr for scope and returns its subject id.
func ParseToken(tokenStr string, secret string, scope Scope) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithAudience(string(scope)),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// TokenService binds the per-scope secrets and the token lifetime.
type TokenService struct {
	userSecret  string
	adminSecret string
	ttl         time.Duration
}

func NewTokenService(userSecret string, adminSecret string, ttl time.Duration) *TokenService {
	if adminSecret == "" {
		adminSecret = userSecret
	}
	return &TokenService{
		userSecret:  userSecret,
		adminSecret: adminSecret,
		ttl:         ttl,
	}
}

func (s *TokenService) Issue(subjectID string, scope Scope) (string, error) {
	return IssueToken(s.secret(scope), subjectID, scope, s.ttl)
}

func (s *TokenService) Verify(tokenStr string, scope Scope) (string, error) {
	return ParseToken(tokenStr, s.secret(scope), scope)
}

func (s *TokenService) secret(scope Scope) string {
	if scope == ScopeAdmin {
		return s.adminSecret
	}
	return s.userSecret
}
