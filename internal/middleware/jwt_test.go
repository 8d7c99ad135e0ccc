package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SuperRPS/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("mw-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JwtAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("participant"))
	})
	return r
}

func TestJwtAuthMiddleware(t *testing.T) {
	r := newRouter()
	tok, err := auth.IssueToken(secret, "bob", time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"bearer header", "/me", "Bearer " + tok, http.StatusOK, "bob"},
		{"query token", "/me?token=" + tok, "", http.StatusOK, "bob"},
		{"missing", "/me", "", http.StatusUnauthorized, ""},
		{"garbage", "/me", "Bearer not-a-jwt", http.StatusUnauthorized, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestJwtAuthWrongSecret(t *testing.T) {
	r := newRouter()
	tok, err := auth.IssueToken([]byte("other"), "bob", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
