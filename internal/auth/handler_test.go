// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(env *testEnv) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(env.svc).RegisterRoutes(r, middleware.Authenticator(env.svc))
	return r
}

func call(t *testing.T, router http.Handler, method, path, token, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	}
	return rr.Code, env
}

func TestRegisterRouteHintsDetectiveOnboarding(t *testing.T) {
	router := newTestRouter(newTestEnv(t))

	tests := []struct {
		name     string
		role     string
		nextStep string
	}{
		{"buyer", "", ""},
		{"detective", "detective", NextStepCreateProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"email":"` + tt.name + `@example.com","password":"` + strongPassword +
				`","name":"Sam Spade","role":"` + tt.role + `"}`

			status, env := call(t, router, http.MethodPost, "/auth/register", "", body)
			require.Equal(t, http.StatusCreated, status)

			var resp AuthResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tt.nextStep, resp.NextStep)
		})
	}
}

func TestRegisterRouteRejectsAdmin(t *testing.T) {
	router := newTestRouter(newTestEnv(t))

	body := `{"email":"root@example.com","password":"` + strongPassword + `","name":"Root","role":"admin"}`
	status, _ := call(t, router, http.MethodPost, "/auth/register", "", body)

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRefreshRouteReportsReuse(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	first := env.register(t, "")

	body := `{"refresh_token":"` + first.Tokens.RefreshToken + `"}`

	status, _ := call(t, router, http.MethodPost, "/auth/refresh", "", body)
	require.Equal(t, http.StatusOK, status)

	status, resp := call(t, router, http.MethodPost, "/auth/refresh", "", body)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TOKEN_REUSE_DETECTED", resp.Error.Code)
}

func TestLoginRouteWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	env.register(t, "")

	var email string
	for _, u := range env.users.users {
		email = u.Email
	}

	status, resp := call(t, router, http.MethodPost, "/auth/login", "",
		`{"email":"`+email+`","password":"wrong-password-1"}`)

	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestRevokeSessionRoute(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)
	auth := env.register(t, "")
	token := auth.Tokens.AccessToken

	status, _ := call(t, router, http.MethodDelete, "/auth/sessions/not-a-uuid", token, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, router, http.MethodDelete, "/auth/sessions/0b7c4e2a-1d3f-4a6b-9c8e-5f2a7d1b3c4e", token, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, router, http.MethodDelete, "/auth/sessions/0b7c4e2a-1d3f-4a6b-9c8e-5f2a7d1b3c4e", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
