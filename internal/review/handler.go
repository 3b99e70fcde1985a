// AngelaMos | 2026
// handler.go

package review

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/reviews", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.List)
		r.With(authenticator).Patch("/{reviewID}", h.Update)
	})
}

// RegisterServiceRoutes adds the nested review routes to the /services
// router.
func (h *Handler) RegisterServiceRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.With(optionalAuth).Get("/{serviceID}/reviews", h.ListForService)
	r.With(authenticator).Post("/{serviceID}/reviews", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Pagination: core.PaginationFromRequest(r),
		ServiceID:  q.Get("service_id"),
		UserID:     q.Get("user_id"),
	}

	reviews, total, err := h.service.List(r.Context(), middleware.GetPrincipal(r.Context()), params)
	if err != nil {
		core.HandleError(w, err, "review")
		return
	}

	core.Paginated(w, ToResponseList(reviews), params.Page, params.PageSize, total)
}

func (h *Handler) ListForService(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "serviceID")
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	params := ListParams{
		Pagination: core.PaginationFromRequest(r),
		ServiceID:  id,
	}

	reviews, total, err := h.service.List(r.Context(), middleware.GetPrincipal(r.Context()), params)
	if err != nil {
		core.HandleError(w, err, "review")
		return
	}

	core.Paginated(w, ToResponseList(reviews), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "serviceID")
	if err != nil {
		core.HandleError(w, err, "service")
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	req.ServiceID = id

	rv, err := h.service.Create(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "review")
		return
	}

	core.Created(w, ToResponse(rv))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "reviewID")
	if err != nil {
		core.HandleError(w, err, "review")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	rv, err := h.service.Update(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		payload,
	)
	if err != nil {
		core.HandleError(w, err, "review")
		return
	}

	core.OK(w, ToResponse(rv))
}
