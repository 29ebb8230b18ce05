package middleware

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })
	app.Get("/missing", func(*fiber.Ctx) error { panic(pkgError.NotFoundError("bot x not found")) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"code":"NOT_FOUND_ERROR","message":"bot x not found"}`, string(body))
}

func TestBasicAuth(t *testing.T) {
	_, err := BasicAuth(nil)
	assert.Error(t, err)
	_, err = BasicAuth([]string{"admin"})
	assert.Error(t, err)

	guard, err := BasicAuth([]string{"admin:secret", " ops:pw "})
	require.NoError(t, err)
	app := fiber.New()
	app.Get("/private", guard, func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ops:pw")))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
