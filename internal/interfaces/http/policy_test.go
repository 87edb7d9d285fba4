package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/firmbill-api/internal/application/auth"
	apphttp "github.com/jhoicas/firmbill-api/internal/interfaces/http"
	"github.com/jhoicas/firmbill-api/internal/ratelimit"
	pkgjwt "github.com/jhoicas/firmbill-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testOwnerID   = "00000000-0000-0000-0000-000000000001"
	testMemberID  = "00000000-0000-0000-0000-000000000002"
	testFirmID    = "00000000-0000-0000-0000-0000000000f1"
	testIssuer    = "firmbill-test"
	testExpMin    = 60
)

// fakeResolver resuelve identidades desde un mapa en memoria, como lo haría
// el use case de auth contra la DB.
type fakeResolver struct {
	identities map[string]*auth.Identity
}

func (f *fakeResolver) Resolve(_ context.Context, userID, firmID string) (*auth.Identity, error) {
	id, ok := f.identities[userID]
	if !ok || id.FirmID != firmID {
		return nil, nil
	}
	return id, nil
}

func newTestResolver() *fakeResolver {
	return &fakeResolver{identities: map[string]*auth.Identity{
		testOwnerID:  {UserID: testOwnerID, FirmID: testFirmID, Role: "owner"},
		testMemberID: {UserID: testMemberID, FirmID: testFirmID, Role: "member"},
	}}
}

type testEnv struct {
	app   *fiber.App
	store *ratelimit.Store
	now   time.Time
}

// buildTestApp monta una app mínima con el middleware de identidad y una ruta
// por política; el handler dummy responde 200 si la cadena lo deja pasar.
func buildTestApp(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	env.store = ratelimit.New(0, ratelimit.WithClock(func() time.Time { return env.now }))
	t.Cleanup(env.store.Stop)

	guard := apphttp.NewGuard(env.store, nil, nil)
	app := fiber.New()
	app.Use(apphttp.Identify(testJWTSecret, newTestResolver(), nil))

	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) }

	app.Get("/protected", guard.Protect("test.protected", apphttp.Policy{Auth: true}), ok)
	app.Get("/owner-only", guard.Protect("test.owner", apphttp.Policy{Roles: []string{"owner"}}), ok)
	app.Post("/limited", guard.Protect("test.limited", apphttp.Policy{
		Rate: &apphttp.RateLimit{Limit: 2, Window: time.Minute},
	}), ok)
	app.Post("/bounded", guard.Protect("test.bounded", apphttp.Policy{
		Bounds: map[string]apphttp.Bounds{"password": {Min: 8, Max: 72}},
	}), ok)
	app.Get("/bounded/:code", guard.Protect("test.bounded_param", apphttp.Policy{
		Bounds: map[string]apphttp.Bounds{"code": {Min: 1, Max: 4}},
	}), ok)

	env.app = app
	return env
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	role := "member"
	if userID == testOwnerID {
		role = "owner"
	}
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testFirmID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doRequest(t *testing.T, app *fiber.App, method, path, authHeader string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// ──────────────────────────────────────────────────────────────────────────────
// Puerta de autenticación
// ──────────────────────────────────────────────────────────────────────────────

func TestGuard_SinToken_Retorna401(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/protected", "", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
}

func TestGuard_TokenInvalido_Retorna401(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/protected", "Bearer token.invalido.aqui", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Un token válido de una cuenta que ya no existe en storage no identifica.
func TestGuard_TokenDeCuentaBorrada_Retorna401(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/protected",
		tokenFor(t, "00000000-0000-0000-0000-00000000dead"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// El firm_id del token debe coincidir con el de la fila almacenada.
func TestGuard_TokenConFirmAjena_Retorna401(t *testing.T) {
	env := buildTestApp(t)
	tok, err := pkgjwt.Generate(testJWTSecret, testOwnerID, "otra-firma", "owner", testIssuer, testExpMin)
	require.NoError(t, err)
	resp := doRequest(t, env.app, http.MethodGet, "/protected", "Bearer "+tok, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGuard_TokenValido_Pasa(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/protected", tokenFor(t, testMemberID), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// errResolver simula un fallo de storage al resolver la identidad.
type errResolver struct{}

func (errResolver) Resolve(_ context.Context, _, _ string) (*auth.Identity, error) {
	return nil, errors.New("conexión rechazada")
}

// Un fallo de storage al resolver no equivale a "cuenta borrada": la petición
// falla con 500 en vez de degradarse a un 401 silencioso.
func TestIdentify_FalloDeStorage_Retorna500NoUn401(t *testing.T) {
	app := fiber.New()
	app.Use(apphttp.Identify(testJWTSecret, errResolver{}, nil))
	app.Get("/protected", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	resp := doRequest(t, app, http.MethodGet, "/protected", tokenFor(t, testMemberID), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "INTERNAL", body["code"])
}

// Sin token el resolver ni se consulta: la petición sigue anónima.
func TestIdentify_FalloDeStorage_NoAfectaAnonimos(t *testing.T) {
	app := fiber.New()
	app.Use(apphttp.Identify(testJWTSecret, errResolver{}, nil))
	app.Get("/open", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	resp := doRequest(t, app, http.MethodGet, "/open", "", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Puerta de rol
// ──────────────────────────────────────────────────────────────────────────────

func TestGuard_OwnerAccedeRutaOwner(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/owner-only", tokenFor(t, testOwnerID), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuard_MemberBloqueadoEnRutaOwner_NombraRoles(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/owner-only", tokenFor(t, testMemberID), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "FORBIDDEN", body["code"])
	assert.Equal(t, []any{"owner"}, body["required_roles"],
		"el error debe nombrar los roles requeridos")
}

// Una ruta con rol requiere identidad aunque Auth no esté marcado.
func TestGuard_AnonimoEnRutaOwner_Retorna401(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodGet, "/owner-only", "", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Puerta de rate limit
// ──────────────────────────────────────────────────────────────────────────────

func TestGuard_RateLimit_N1EsimaRechazadaConRetryAfter(t *testing.T) {
	env := buildTestApp(t)

	for i := 0; i < 2; i++ {
		resp := doRequest(t, env.app, http.MethodPost, "/limited", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "llamada %d dentro del límite", i+1)
		resp.Body.Close()
	}

	resp := doRequest(t, env.app, http.MethodPost, "/limited", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	body := decodeError(t, resp)
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Greater(t, body["retry_after_seconds"], float64(0))
}

func TestGuard_RateLimit_VentanaNuevaReinstala(t *testing.T) {
	env := buildTestApp(t)

	for i := 0; i < 3; i++ {
		resp := doRequest(t, env.app, http.MethodPost, "/limited", "", nil)
		resp.Body.Close()
	}

	env.now = env.now.Add(time.Minute + time.Second)
	resp := doRequest(t, env.app, http.MethodPost, "/limited", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode,
		"la primera llamada tras expirar la ventana debe pasar")
}

// Cada identidad tiene su propia ventana; un caller autenticado no comparte
// la key anónima.
func TestGuard_RateLimit_KeysIndependientesPorIdentidad(t *testing.T) {
	env := buildTestApp(t)

	for i := 0; i < 3; i++ {
		resp := doRequest(t, env.app, http.MethodPost, "/limited", "", nil)
		resp.Body.Close()
	}

	resp := doRequest(t, env.app, http.MethodPost, "/limited", tokenFor(t, testMemberID), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode,
		"agotar la key anónima no debe afectar a un caller autenticado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Puerta de longitud de argumentos
// ──────────────────────────────────────────────────────────────────────────────

func TestGuard_Bounds_PasswordCorta_Nombra_ArgumentoYBound(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodPost, "/bounded", "", fiber.Map{"password": "corta"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])
	assert.Equal(t, "password", body["argument"])
	assert.Equal(t, "min", body["bound"])
}

func TestGuard_Bounds_PasswordLarga_ViolaMax(t *testing.T) {
	env := buildTestApp(t)
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'x'
	}
	resp := doRequest(t, env.app, http.MethodPost, "/bounded", "", fiber.Map{"password": string(long)})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "max", body["bound"])
}

func TestGuard_Bounds_CampoAusenteCuentaComoVacio(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodPost, "/bounded", "", fiber.Map{"otro": "campo"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "password", body["argument"])
	assert.Equal(t, "min", body["bound"])
}

func TestGuard_Bounds_ValorValido_Pasa(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodPost, "/bounded", "", fiber.Map{"password": "suficientemente-larga"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Los límites miden caracteres, no bytes: 40 eñes caben en un Max de 72
// aunque ocupen 80 bytes en UTF-8.
func TestGuard_Bounds_MideCaracteresNoBytes(t *testing.T) {
	env := buildTestApp(t)
	resp := doRequest(t, env.app, http.MethodPost, "/bounded", "",
		fiber.Map{"password": strings.Repeat("ñ", 40)})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuard_Bounds_RouteParam(t *testing.T) {
	env := buildTestApp(t)

	resp := doRequest(t, env.app, http.MethodGet, "/bounded/abcd", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, env.app, http.MethodGet, "/bounded/demasiado-largo", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "code", body["argument"])
	assert.Equal(t, "max", body["bound"])
}
