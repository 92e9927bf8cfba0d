package middleware

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin", AdminTokenMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAdminTokenMiddleware_Unconfigured(t *testing.T) {
	app := newAdminTestApp()

	req, err := http.NewRequest(http.MethodGet, "/admin", nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminTokenMiddleware_TokenChecks(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "secret-token")
	app := newAdminTestApp()

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", fiber.StatusUnauthorized},
		{"wrong token", "nope", fiber.StatusUnauthorized},
		{"valid token", "secret-token", fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/admin", nil)
			require.NoError(t, err)
			if tt.token != "" {
				req.Header.Set("X-Admin-Token", tt.token)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
