package serverutils

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	userId := uuid.New()

	app := fiber.New()
	app.Get("/me", JwtMiddleware, func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": userId.String()}), fiber.StatusUnauthorized},
		{"no user id", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}), fiber.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"user_id": userId.String()}), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			if tt.code == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, userId.String(), string(body))
			}
		})
	}
}
