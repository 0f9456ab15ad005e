package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhadevelopes/a11yguard-sub001/pkg/jwt"
)

func setupRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewManager("test-secret", "", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", NewAuthMiddleware(tokens).RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetOrganizationID(c)+"/"+GetMemberID(c)+"/"+GetMemberRole(c))
	})
	return r, tokens
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	r, tokens := setupRouter(t)
	token, _, err := tokens.GenerateAccessToken("org-1", "m-1", "owner")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "org-1/m-1/owner", rec.Body.String())
}

func TestRequireAuthRejects(t *testing.T) {
	r, tokens := setupRouter(t)
	partial, _, err := tokens.GenerateAccessToken("org-1", "", "")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer nope",
		"partial claims": "Bearer " + partial,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)

	_, ok = BearerToken("Token abc")
	assert.False(t, ok)
}
