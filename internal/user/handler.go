// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
		r.Patch("/{userID}", h.UpdateUser)
	})
}

// RegisterAdminRoutes registers admin-only user management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
		r.Delete("/{userID}", h.DeleteUser)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetUser(r.Context(), p, p.ID)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		core.Unauthorized(w, "")
		return
	}

	h.update(w, r, p, p.ID)
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Delete(r.Context(), p, p.ID); err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.NoContent(w)
}

// UpdateUser serves both the self PATCH and the admin PUT. The whitelist
// tier is picked from the caller's role, not from the route.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "userID")
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	h.update(
		w,
		r,
		middleware.GetPrincipal(r.Context()),
		id,
	)
}

func (h *Handler) update(
	w http.ResponseWriter,
	r *http.Request,
	p *access.Principal,
	id string,
) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.Update(r.Context(), p, id, payload)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Pagination: core.PaginationFromRequest(r),
		Search:     r.URL.Query().Get("search"),
		Role:       access.Role(r.URL.Query().Get("role")),
	}

	users, total, err := h.service.List(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		params,
	)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "userID")
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	user, err := h.service.GetUser(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
	)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "userID")
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.SetRole(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		access.Role(req.Role),
	)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "userID")
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	err = h.service.Delete(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
	)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.NoContent(w)
}
