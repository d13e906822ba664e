package serverutils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", JwtMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	return app
}

func TestJwtMiddlewareUsesConfiguredSecret(t *testing.T) {
	SetJWTSecret("configured-secret")
	t.Cleanup(func() { SetJWTSecret("") })

	app := newProtectedApp()
	tokenStr := signToken(t, "configured-secret", jwt.MapClaims{"user_id": "u-1"})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestJwtMiddlewareRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("configured-secret")
	t.Cleanup(func() { SetJWTSecret("") })

	app := newProtectedApp()
	tokenStr := signToken(t, "some-other-secret", jwt.MapClaims{"user_id": "u-1"})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestJwtMiddlewareMissingToken(t *testing.T) {
	app := newProtectedApp()

	res, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestJWTSecretFallsBackToEnv(t *testing.T) {
	SetJWTSecret("")
	t.Setenv("JWT_SECRET", "env-secret")

	assert.Equal(t, []byte("env-secret"), JWTSecret())

	SetJWTSecret("configured-secret")
	t.Cleanup(func() { SetJWTSecret("") })
	assert.Equal(t, []byte("configured-secret"), JWTSecret())
}
