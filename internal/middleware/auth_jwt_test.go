package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// =====================
// helper
// =====================

func mustMakeJWT(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   float64(7),
		"email": "buyer@example.com",
		"role":  "USER",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

// AuthJWT を通った Identity を JSON で返すだけのルート
func newEcho(mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		who, ok := middleware.IdentityFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, who)
	}, mws...)
	return e
}

func serve(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Success(t *testing.T) {
	e := newEcho(middleware.AuthJWT(config.Config{JWTSecret: testSecret}))
	tok := mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, validClaims())

	rec := serve(e, "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"buyer@example.com"`)
	assert.Contains(t, rec.Body.String(), `"USER"`)
}

func TestAuthJWT_StringSubAndDefaultRole(t *testing.T) {
	var got model.Identity
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		got, _ = middleware.IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	}, middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

	tok := mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := serve(e, "bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, model.RoleUser, got.Role)
	assert.Empty(t, got.Email)
}

func TestAuthJWT_Rejects(t *testing.T) {
	e := newEcho(middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noSub := validClaims()
	delete(noSub, "sub")
	badRole := validClaims()
	badRole["role"] = 1

	cases := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + mustMakeJWT(t, jwt.SigningMethodHS256, "other", validClaims())},
		{"other alg", "Bearer " + mustMakeJWT(t, jwt.SigningMethodHS512, testSecret, validClaims())},
		{"expired", "Bearer " + mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, expired)},
		{"no sub", "Bearer " + mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, noSub)},
		{"role not string", "Bearer " + mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, badRole)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, tc.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		})
	}
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	e := newEcho(middleware.AuthJWT(config.Config{JWTSecret: testSecret}), middleware.AdminRoleGuard())

	user := mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, validClaims())
	rec := serve(e, "Bearer "+user)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"admin only"}`, rec.Body.String())

	adminClaims := validClaims()
	adminClaims["role"] = "ADMIN"
	admin := mustMakeJWT(t, jwt.SigningMethodHS256, testSecret, adminClaims)
	rec = serve(e, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleGuard_WithoutIdentity(t *testing.T) {
	e := newEcho(middleware.AdminRoleGuard())

	rec := serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
