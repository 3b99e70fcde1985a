// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/config"
	"github.com/carterperez-dev/finddetectives/internal/health"
)

func newTestServer(h Readiness) *Server {
	return New(Config{
		ServerConfig: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		HealthHandler: h,
	})
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	srv := newTestServer(nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestPanicIsRecovered(t *testing.T) {
	srv := newTestServer(nil)
	srv.Router().Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestShutdownFlipsReadiness(t *testing.T) {
	h := health.NewHandler(nil)
	srv := newTestServer(h)
	h.RegisterRoutes(srv.Router())

	require.NoError(t, srv.Shutdown(context.Background(), 0))

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
