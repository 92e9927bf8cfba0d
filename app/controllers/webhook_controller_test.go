package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWebhookEcho(t *testing.T) {
	app := fiber.New()
	app.Get("/api/webhook", HandleWebhookEcho)

	req := httptestRequest(t, http.MethodGet, "/api/webhook?topic=payment&id=123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		TS     string            `json:"ts"`
		Echo   map[string]string `json:"echo"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.TS)
	assert.Equal(t, "payment", body.Echo["topic"])
	assert.Equal(t, "123", body.Echo["id"])
}

func httptestRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	return req
}
