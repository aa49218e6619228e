package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatedApp(apiSecret, adminSecret string) *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/client", APIKeyMiddleware(apiSecret), ok)
	app.Get("/admin", AdminKeyMiddleware(adminSecret), ok)
	return app
}

func status(t *testing.T, app *fiber.App, path string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestAPIKeyMiddleware(t *testing.T) {
	app := newGatedApp("client-secret", "admin-secret")

	assert.Equal(t, http.StatusOK, status(t, app, "/client", map[string]string{HeaderAPIKey: "client-secret"}))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/client", map[string]string{HeaderAPIKey: "wrong"}))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/client", nil))
	// admin key does not open client routes
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/client", map[string]string{HeaderAdminKey: "client-secret"}))
}

func TestAdminKeyMiddleware(t *testing.T) {
	app := newGatedApp("client-secret", "admin-secret")

	assert.Equal(t, http.StatusOK, status(t, app, "/admin", map[string]string{HeaderAdminKey: "admin-secret"}))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/admin", map[string]string{HeaderAdminKey: "client-secret"}))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/admin", map[string]string{HeaderAPIKey: "admin-secret"}))
}

func TestUnsetSecretRejectsEverything(t *testing.T) {
	app := newGatedApp("", "")

	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/client", map[string]string{HeaderAPIKey: ""}))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/admin", map[string]string{HeaderAdminKey: "anything"}))
}

func TestUnauthorizedBody(t *testing.T) {
	app := newGatedApp("s", "s")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Unauthorized: Access denied"}`, string(body))
}
