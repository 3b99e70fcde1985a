// AngelaMos | 2026
// handler.go

package application

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public submit endpoint behind submitLimit and
// the admin review endpoint behind authenticator and adminOnly.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly, submitLimit func(http.Handler) http.Handler,
) {
	r.Route("/applications", func(r chi.Router) {
		r.With(submitLimit).Post("/", h.Submit)
		r.With(authenticator, adminOnly).Patch("/{applicationID}", h.Review)
	})

	r.Route("/admin/applications", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Get("/{applicationID}", h.Get)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	app, err := h.service.Submit(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.Created(w, SubmittedResponse{
		ID:        app.ID,
		Status:    app.Status,
		CreatedAt: app.CreatedAt,
	})
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "applicationID")
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	app, err := h.service.Review(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		req,
	)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.OK(w, ToResponse(app))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Pagination: core.PaginationFromRequest(r),
		Status:     lifecycle.Status(q.Get("status")),
		Email:      q.Get("email"),
	}

	apps, total, err := h.service.List(r.Context(), middleware.GetPrincipal(r.Context()), params)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.Paginated(w, ToResponseList(apps), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "applicationID")
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	app, err := h.service.Get(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
	)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.OK(w, ToResponse(app))
}
