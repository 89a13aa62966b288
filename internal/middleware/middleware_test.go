package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimart/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func gated(tokens *security.TokenService, scope security.Scope) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/whoami", Auth(tokens, scope), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": SubjectID(c), "scope": c.MustGet(ContextScope)})
	})
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

func TestAuthGate(t *testing.T) {
	tokens := security.NewTokenService("user-secret", "admin-secret", time.Hour)
	userGate := gated(tokens, security.ScopeUser)
	adminGate := gated(tokens, security.ScopeAdmin)

	userToken, err := tokens.Issue("u1", security.ScopeUser)
	require.NoError(t, err)
	adminToken, err := tokens.Issue("a1", security.ScopeAdmin)
	require.NoError(t, err)

	w := call(userGate, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied, no token provided", message(t, w))

	w = call(userGate, "garbage")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid token", message(t, w))

	w = call(userGate, "Bearer "+userToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, "the header carries the bare token")

	w = call(userGate, userToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","scope":"user"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, call(adminGate, userToken).Code)
	assert.Equal(t, http.StatusBadRequest, call(userGate, adminToken).Code)
	assert.Equal(t, http.StatusOK, call(adminGate, adminToken).Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	tokens := security.NewTokenService("user-secret", "", time.Hour)
	expired, err := security.IssueToken("user-secret", "u1", security.ScopeUser, -time.Minute)
	require.NoError(t, err)

	w := call(gated(tokens, security.ScopeUser), expired)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecoveryReturnsServerError(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(zerolog.New(&buf)), Recovery(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server Error", message(t, w))
	assert.Contains(t, buf.String(), "panic recovered")
	requestID := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, requestID)
	assert.Contains(t, buf.String(), `"request_id":"`+requestID+`"`)
}

func TestRequestIDIsPropagated(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(zerolog.New(&buf)))
	r.GET("/", func(c *gin.Context) {
		reqLog := RequestLogger(c, zerolog.Nop())
		reqLog.Info().Msg("handled")
		zerolog.Ctx(c.Request.Context()).Info().Msg("from context")
		c.String(http.StatusOK, RequestIDFrom(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, 2, strings.Count(buf.String(), `"request_id":"abc-123"`))
}

func TestRequestIDReplacesMalformedIDs(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	for _, sent := range []string{"", "has space", "semi;colon", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if sent != "" {
			req.Header.Set(RequestIDHeader, sent)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(RequestIDHeader)
		assert.NotEqual(t, sent, got)
		assert.Len(t, got, 36, "replaced with a uuid")
		assert.Equal(t, got, w.Body.String())
	}
}

func TestRequestLoggerFallsBack(t *testing.T) {
	var buf bytes.Buffer
	fallback := zerolog.New(&buf)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	reqLog := RequestLogger(c, fallback)
	reqLog.Info().Msg("no middleware")

	assert.Contains(t, buf.String(), "no middleware")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestCORSAllowsAnyOriginByDefault(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://campus.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
