package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/TarunSAkkatangerhal/PrismWorklet/internal/auth"
)

func newAuthRouter(t *testing.T, clock func() time.Time) (*gin.Engine, *iauth.TokenService) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	tokens, err := iauth.NewTokenService(iauth.TokenConfig{
		Secret: "middleware-test-secret",
		Issuer: "prism-test",
		Clock:  clock,
	})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Auth(tokens))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserIDKey),
			"email":   c.GetString(CtxUserEmailKey),
			"role":    c.GetString(CtxUserRoleKey),
		})
	})
	r.GET("/admin", RequireRoles("Admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r, tokens
}

func TestAuthMissingHeader(t *testing.T) {
	r, _ := newAuthRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthValidToken(t *testing.T) {
	r, tokens := newAuthRouter(t, nil)

	pair, err := tokens.GeneratePair(iauth.TokenInput{UserID: "user-1", Email: "alice@example.com", Role: "Student"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice@example.com")
	require.Contains(t, w.Body.String(), "user-1")
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	r, tokens := newAuthRouter(t, nil)

	pair, err := tokens.GeneratePair(iauth.TokenInput{UserID: "user-1", Email: "alice@example.com", Role: "Student"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	r, tokens := newAuthRouter(t, func() time.Time { return clock() })

	pair, err := tokens.GeneratePair(iauth.TokenInput{UserID: "user-1", Email: "alice@example.com", Role: "Student"})
	require.NoError(t, err)

	clock = func() time.Time { return now.Add(iauth.DefaultAccessTokenTTL + time.Minute) }

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestRequireRoles(t *testing.T) {
	r, tokens := newAuthRouter(t, nil)

	student, err := tokens.GeneratePair(iauth.TokenInput{UserID: "user-1", Email: "stu@example.com", Role: "Student"})
	require.NoError(t, err)
	admin, err := tokens.GeneratePair(iauth.TokenInput{UserID: "user-2", Email: "root@example.com", Role: "Admin"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+student.AccessToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin.AccessToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
