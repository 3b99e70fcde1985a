// AngelaMos | 2026
// handler.go

package detective

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
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
	r.Route("/detectives", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.List)
			r.Get("/{detectiveID}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/", h.Create)
			r.Get("/me", h.GetMine)
			r.Get("/me/plan", h.GetPlan)
			r.Patch("/{detectiveID}", h.Update)
		})
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/detectives", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/", h.CreateUnclaimed)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Pagination:  core.PaginationFromRequest(r),
		Search:      q.Get("search"),
		Country:     q.Get("country"),
		Status:      Status(q.Get("status")),
		Plan:        subscription.Plan(q.Get("plan")),
		IsClaimable: core.QueryBool(r, "claimable"),
		IsVerified:  core.QueryBool(r, "verified"),
	}

	viewer := middleware.GetPrincipal(r.Context())

	detectives, total, err := h.service.List(r.Context(), viewer, params)
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.Paginated(
		w,
		ToResponseList(detectives, viewer),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "detectiveID")
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	viewer := middleware.GetPrincipal(r.Context())

	d, err := h.service.Get(r.Context(), viewer, id)
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.OK(w, ToResponse(d, viewer))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDetectiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	p := middleware.GetPrincipal(r.Context())

	d, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.Created(w, ToResponse(d, p))
}

func (h *Handler) CreateUnclaimed(w http.ResponseWriter, r *http.Request) {
	var req CreateUnclaimedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	p := middleware.GetPrincipal(r.Context())

	d, err := h.service.CreateUnclaimed(r.Context(), p, req)
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.Created(w, ToResponse(d, p))
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	d, err := h.service.GetMine(r.Context(), p)
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.OK(w, ToResponse(d, p))
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.Plan(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.OK(w, plan)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "detectiveID")
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	p := middleware.GetPrincipal(r.Context())

	d, err := h.service.Update(r.Context(), p, id, payload)
	if err != nil {
		core.HandleError(w, err, "detective")
		return
	}

	core.OK(w, ToResponse(d, p))
}
