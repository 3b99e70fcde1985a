// AngelaMos | 2026
// handler_test.go

package review

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

func asPrincipal(p *access.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p != nil {
				r = r.WithContext(middleware.WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(p *access.Principal) (*chi.Mux, *stubRepo) {
	svc, repo := newTestService()
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/services", func(r chi.Router) {
		h.RegisterServiceRoutes(r, asPrincipal(p), asPrincipal(p))
	})
	h.RegisterRoutes(r, asPrincipal(p), asPrincipal(p))
	return r, repo
}

func TestCreateReviewUsesServiceFromPath(t *testing.T) {
	router, repo := newTestRouter(other)

	req := httptest.NewRequest(
		http.MethodPost,
		"/services/"+serviceID+"/reviews",
		strings.NewReader(`{"rating":5,"comment":"thorough","service_id":"ignored"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, repo.reviews, 3)
}

func TestReviewRouteStatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		principal *access.Principal
		method    string
		path      string
		body      string
		status    int
	}{
		{"duplicate review", author, http.MethodPost, "/services/" + serviceID + "/reviews", `{"rating":5}`, http.StatusConflict},
		{"anonymous create", nil, http.MethodPost, "/services/" + serviceID + "/reviews", `{"rating":5}`, http.StatusUnauthorized},
		{"not author", other, http.MethodPatch, "/reviews/" + reviewOneID, `{"rating":1}`, http.StatusForbidden},
		{"missing review", author, http.MethodPatch, "/reviews/6f1c1f7e-3f0a-4c53-9b7e-0a3c2f6d9e99", `{"rating":1}`, http.StatusNotFound},
		{"public list", nil, http.MethodGet, "/services/" + serviceID + "/reviews", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(tt.principal)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}
