package middlewares

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/config"
	"custody/pkg/consts"
	"custody/utilities/jwt"
)

func newRouter(m *Middlewares) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", m.ValidateToken, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(consts.UserAddress))
	})
	r.GET("/admin", m.ValidateToken, m.IsAdminUser, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestValidateToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	jwt.SetKeyPair(key)
	config.SetConfig(&config.CustodyConfModel{AdminUsers: []string{"algorand:root-admin"}})

	aliceToken, _, err := jwt.GenerateJWT("alice", consts.Algorand, time.Hour)
	require.NoError(t, err)
	adminToken, _, err := jwt.GenerateJWT("root-admin", consts.Algorand, time.Hour)
	require.NoError(t, err)

	m := NewMiddlewares()
	r := newRouter(m)

	tests := []struct {
		name       string
		path       string
		address    string
		auth       string
		wantStatus int
		wantBody   string
	}{
		{name: "valid", path: "/me", address: "alice", auth: "Bearer " + aliceToken, wantStatus: http.StatusOK, wantBody: "alice"},
		{name: "missing header", path: "/me", address: "alice", wantStatus: http.StatusBadRequest},
		{name: "missing address", path: "/me", auth: "Bearer " + aliceToken, wantStatus: http.StatusBadRequest},
		{name: "token of another user", path: "/me", address: "bob", auth: "Bearer " + aliceToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", path: "/me", address: "alice", auth: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "not admin", path: "/admin", address: "alice", auth: "Bearer " + aliceToken, wantStatus: http.StatusForbidden},
		{name: "admin", path: "/admin", address: "root-admin", auth: "Bearer " + adminToken, wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			if tt.address != "" {
				req.Header.Set("X-USER-ADDRESS", tt.address)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}

	assert.Equal(t, 2, m.Cache.ItemCount())
}
