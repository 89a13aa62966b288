package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unimart/internal/security"
)

const (
	ContextSubjectID = "subject_id"
	ContextScope     = "scope"
)

// TokenVerifier is satisfied by *security.TokenService.
type TokenVerifier interface {
	Verify(tokenStr string, scope security.Scope) (string, error)
}

// Auth admits requests carrying a valid token for scope. The Authorization
// header holds the bare token with no scheme prefix.
func Auth(tokens TokenVerifier, scope security.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied, no token provided"})
			return
		}

		subjectID, err := tokens.Verify(tokenStr, scope)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid token"})
			return
		}

		c.Set(ContextSubjectID, subjectID)
		c.Set(ContextScope, scope)

		c.Next()
	}
}

// SubjectID returns the account id admitted by Auth.
func SubjectID(c *gin.Context) string {
	return c.GetString(ContextSubjectID)
}
