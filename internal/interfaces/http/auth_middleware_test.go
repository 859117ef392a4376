package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

const mwSecret = "middleware-test-secret"

func signed(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := jwt.Generate(mwSecret, userID, role, "backoffice-test", 5)
	require.NoError(t, err)
	return "Bearer " + tok
}

// whoami devuelve lo que los middlewares dejaron en Locals.
func whoami(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
}

func call(t *testing.T, app *fiber.App, path, auth string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body := map[string]string{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestRequireRole_TablaDeAcceso(t *testing.T) {
	app := fiber.New()
	app.Get("/caja", apphttp.AuthMiddleware(mwSecret), apphttp.RequireRole("admin", "vendedor"), whoami)
	app.Get("/gerencia", apphttp.AuthMiddleware(mwSecret), apphttp.RequireRole("admin"), whoami)

	cases := []struct {
		name   string
		path   string
		auth   string
		status int
		code   string
	}{
		{"vendedor en caja", "/caja", signed(t, "u-1", "vendedor"), http.StatusOK, ""},
		{"admin en gerencia", "/gerencia", signed(t, "u-2", "admin"), http.StatusOK, ""},
		{"vendedor en gerencia", "/gerencia", signed(t, "u-1", "vendedor"), http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", "/caja", signed(t, "u-3", ""), http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin header", "/caja", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"esquema distinto", "/caja", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"firma ajena", "/caja", "Bearer a.b.c", http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, tc.path, tc.auth)
			assert.Equal(t, tc.status, status)
			if tc.code != "" {
				assert.Equal(t, tc.code, body["code"])
			}
		})
	}
}

func TestAuthMiddleware_CargaLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/yo", apphttp.AuthMiddleware(mwSecret), whoami)

	status, body := call(t, app, "/yo", signed(t, "u-caixa", "vendedor"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-caixa", body["user_id"])
	assert.Equal(t, "vendedor", body["role"])
}

func TestAuthMiddleware_SecretoDistintoRechaza(t *testing.T) {
	other, err := jwt.Generate("otro-secreto", "u-1", "admin", "x", 5)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/yo", apphttp.AuthMiddleware(mwSecret), whoami)

	status, body := call(t, app, "/yo", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", body["code"])
}

func TestOptionalAuth_SinHeaderPasaAnonimo(t *testing.T) {
	app := fiber.New()
	app.Get("/registro", apphttp.OptionalAuth(mwSecret), whoami)

	status, body := call(t, app, "/registro", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["user_id"])
	assert.Empty(t, body["role"])

	status, body = call(t, app, "/registro", signed(t, "u-9", "admin"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["role"])

	// Header presente pero inválido no degrada a anónimo.
	status, body = call(t, app, "/registro", "Bearer basura")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", body["code"])
}

func TestRequireRole_RespuestaUsaErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Get("/gerencia", apphttp.AuthMiddleware(mwSecret), apphttp.RequireRole("admin"), whoami)

	req := httptest.NewRequest(http.MethodGet, "/gerencia", nil)
	req.Header.Set("Authorization", signed(t, "u-1", "vendedor"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "FORBIDDEN", out.Code)
	assert.NotEmpty(t, out.Message)
}
