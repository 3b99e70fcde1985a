// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

func withRole(role access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &access.Principal{ID: "u-1", Role: role}
			next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
		})
	}
}

func fixedCount(n int, err error) PendingCounter {
	return func(context.Context) (int, error) { return n, err }
}

func serve(t *testing.T, h *Handler, role access.Role, path string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r, withRole(role), middleware.RequireAdmin)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func TestPendingStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		PendingApplications: fixedCount(4, nil),
		PendingClaims:       fixedCount(0, errors.New("relation does not exist")),
	})

	rr := serve(t, h, access.RoleAdmin, "/admin/stats/pending")
	require.Equal(t, http.StatusOK, rr.Code)

	var body envelope[PendingStats]
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, 4, body.Data.Applications)
	assert.Equal(t, -1, body.Data.Claims)
}

func TestSystemStatsReportsUnhealthyDependencies(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DBPing:              func(context.Context) error { return nil },
		RedisPing:           func(context.Context) error { return errors.New("connection refused") },
		PendingApplications: fixedCount(2, nil),
		PendingClaims:       fixedCount(1, nil),
	})

	rr := serve(t, h, access.RoleAdmin, "/admin/stats")
	require.Equal(t, http.StatusOK, rr.Code)

	var body envelope[SystemStatsResponse]
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.True(t, body.Data.Database.Healthy)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Nil(t, body.Data.Database.Stats)
	assert.Equal(t, PendingStats{Applications: 2, Claims: 1}, body.Data.Pending)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}

func TestStatsRequireAdmin(t *testing.T) {
	h := NewHandler(HandlerConfig{})

	for _, role := range []access.Role{access.RoleUser, access.RoleDetective} {
		rr := serve(t, h, role, "/admin/stats")
		assert.Equal(t, http.StatusForbidden, rr.Code, role)
	}
}
