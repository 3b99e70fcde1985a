// AngelaMos | 2026
// handler_test.go

package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
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

func newTestRouter(f *fixture, p *access.Principal) *chi.Mux {
	h := NewHandler(f.catalog)

	r := chi.NewRouter()
	h.RegisterRoutes(r, asPrincipal(p), asPrincipal(p))
	h.RegisterAdminRoutes(r, asPrincipal(p), middleware.RequireAdmin)
	return r
}

func TestServiceRoutesStatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		plan      subscription.Plan
		principal *access.Principal
		method    string
		path      string
		body      string
		status    int
		code      string
	}{
		{
			name:      "category limit",
			plan:      subscription.PlanFree,
			principal: owner,
			method:    http.MethodPost,
			path:      "/services",
			body:      `{"category":"cyber","title":"Phone forensics","base_price":80}`,
			status:    http.StatusConflict,
			code:      "CATEGORY_LIMIT",
		},
		{
			name:      "created",
			plan:      subscription.PlanPro,
			principal: owner,
			method:    http.MethodPost,
			path:      "/services",
			body:      `{"category":"cyber","title":"Phone forensics","base_price":80}`,
			status:    http.StatusCreated,
		},
		{
			name:      "not owner",
			plan:      subscription.PlanFree,
			principal: rival,
			method:    http.MethodPatch,
			path:      "/services/" + svcOneID,
			body:      `{"title":"Mine now"}`,
			status:    http.StatusForbidden,
			code:      "NOT_OWNER",
		},
		{
			name:      "anonymous patch",
			plan:      subscription.PlanFree,
			method:    http.MethodPatch,
			path:      "/services/" + svcOneID,
			body:      `{"title":"Mine now"}`,
			status:    http.StatusUnauthorized,
		},
		{
			name:      "category admin only",
			plan:      subscription.PlanFree,
			principal: owner,
			method:    http.MethodPost,
			path:      "/admin/categories",
			body:      `{"slug":"fraud","name":"Fraud"}`,
			status:    http.StatusForbidden,
		},
		{
			name:   "missing service",
			plan:   subscription.PlanFree,
			method: http.MethodGet,
			path:   "/services/9c4e2a17-5b3d-4f08-a6e1-7d2c8b0f3e99",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newFixture(tt.plan), tt.principal)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.code != "" {
				var resp core.Response
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.code, resp.Error.Code)
			}
		})
	}
}

func TestListServicesHidesInactiveFromPublic(t *testing.T) {
	f := newFixture(subscription.PlanFree)
	f.services.services[svcTwoID] = &Service{ID: svcTwoID, DetectiveID: "det-1", Category: "cyber"}

	rr := httptest.NewRecorder()
	newTestRouter(f, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/services?min_price=abc", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), svcOneID)
	assert.NotContains(t, rr.Body.String(), svcTwoID)
}
