// AngelaMos | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes mounts the catalog routes. nested registers extra routes
// under /services, such as service reviews.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
	nested ...func(chi.Router),
) {
	r.Route("/services", func(r chi.Router) {
		for _, register := range nested {
			register(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.ListServices)
			r.Get("/{serviceID}", h.GetService)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/", h.CreateService)
			r.Patch("/{serviceID}", h.UpdateService)
		})
	})

	r.With(optionalAuth).Get("/categories", h.ListCategories)
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/categories", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/", h.CreateCategory)
		r.Patch("/{categoryID}", h.UpdateCategory)
	})
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListServicesParams{
		Pagination:  core.PaginationFromRequest(r),
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		DetectiveID: q.Get("detective_id"),
		MinPrice:    queryFloat(r, "min_price"),
		MaxPrice:    queryFloat(r, "max_price"),
	}

	services, total, err := h.catalog.ListServices(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		params,
	)
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	core.Paginated(
		w,
		ToServiceResponseList(services),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "serviceID")
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	s, err := h.catalog.GetService(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
	)
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	core.OK(w, ToServiceResponse(s))
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	s, err := h.catalog.CreateService(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	core.Created(w, ToServiceResponse(s))
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "serviceID")
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	s, err := h.catalog.UpdateService(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		payload,
	)
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	core.OK(w, ToServiceResponse(s))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.HandleError(w, err, "category")
		return
	}

	core.OK(w, ToCategoryResponseList(categories))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.catalog.CreateCategory(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "category")
		return
	}

	core.Created(w, ToCategoryResponse(c))
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "categoryID")
	if err != nil {
		core.HandleError(w, err, "category")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.catalog.UpdateCategory(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		payload,
	)
	if err != nil {
		core.HandleError(w, err, "category")
		return
	}

	core.OK(w, ToCategoryResponse(c))
}

func queryFloat(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
