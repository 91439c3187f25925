package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"nnews-go/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/roles", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"roles": RolesFrom(c)})
	})
	return r
}

func get(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	m := token.NewJWTManager("secret", 1)
	tok, err := m.GenerateToken(1, "alice", []string{"admin"})
	require.NoError(t, err)
	r := newRouter(AuthMiddleware(m))

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token "+tok).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer garbage").Code)

	w := get(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roles":["admin"]}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	m := token.NewJWTManager("secret", 1)
	tok, err := m.GenerateToken(1, "alice", []string{"editor"})
	require.NoError(t, err)
	r := newRouter(OptionalAuth(m))

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roles":null}`, w.Body.String())

	w = get(r, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roles":null}`, w.Body.String())

	w = get(r, "Bearer "+tok)
	assert.JSONEq(t, `{"roles":["editor"]}`, w.Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := token.NewJWTManager("secret", 1)
	tok, err := m.GenerateToken(9, "alice", nil)
	require.NoError(t, err)
	r := newRouter(RequestLogger(zap.New(core).Sugar()), OptionalAuth(m))

	get(r, "Bearer "+tok)

	entries := logs.FilterMessage("HTTP Request Log").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusOK), fields["statusCode"])
	assert.Equal(t, "/roles", fields["path"])
	assert.Equal(t, int64(9), fields["userId"])
}
