package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	_, err := NewJWTManager("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	token, err := jm.GenerateToken(ctx, "mcp", []string{ScopeSync}, time.Hour)
	require.NoError(t, err)

	claims, err := jm.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "mcp", claims.Subject)
	assert.True(t, claims.HasScope(ScopeSync))
	assert.False(t, claims.HasScope(ScopeExec))
	assert.NotEmpty(t, claims.ID)
}

func TestJWTManager_Rejections(t *testing.T) {
	jm, _ := NewJWTManager("test-secret")
	other, _ := NewJWTManager("other-secret")
	ctx := context.Background()

	expired, err := jm.GenerateToken(ctx, "mcp", nil, -time.Minute)
	require.NoError(t, err)
	foreign, err := other.GenerateToken(ctx, "mcp", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong_secret", token: foreign},
		{name: "expired", token: expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jm.ValidateToken(ctx, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestClaims_AdminGrantsAll(t *testing.T) {
	c := &Claims{Scopes: []string{ScopeAdmin}}
	assert.True(t, c.HasScope(ScopeExec))
	assert.True(t, c.HasScope("anything"))
}

func newRouter(jm *JWTManager, scope string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(jm), RequireScope(scope), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	jm, _ := NewJWTManager("test-secret")
	ctx := context.Background()
	syncToken, _ := jm.GenerateToken(ctx, "cli", []string{ScopeSync}, time.Hour)
	execToken, _ := jm.GenerateToken(ctx, "cli", []string{ScopeExec}, time.Hour)

	tests := []struct {
		name     string
		url      string
		header   string
		expected int
	}{
		{name: "missing_token", url: "/protected", expected: http.StatusUnauthorized},
		{name: "wrong_scheme", url: "/protected", header: "Basic abc", expected: http.StatusUnauthorized},
		{name: "invalid_token", url: "/protected", header: "Bearer nope", expected: http.StatusUnauthorized},
		{name: "valid_header", url: "/protected", header: "Bearer " + syncToken, expected: http.StatusOK},
		{name: "query_fallback", url: "/protected?token=" + syncToken, expected: http.StatusOK},
		{name: "missing_scope", url: "/protected", header: "Bearer " + execToken, expected: http.StatusForbidden},
	}

	r := newRouter(jm, ScopeSync)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRequireAuth_DisabledWithoutManager(t *testing.T) {
	r := newRouter(nil, ScopeSync)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
