// AngelaMos | 2026
// handler.go

package claim

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly, submitLimit func(http.Handler) http.Handler,
) {
	r.Route("/claims", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(submitLimit)
			r.Post("/", h.Submit)
			r.Post("/documents", h.UploadDocument)
		})

		r.With(authenticator, adminOnly).Patch("/{claimID}", h.Review)
	})

	r.Route("/admin/claims", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Get("/{claimID}", h.Get)
		r.Get("/{claimID}/documents", h.Documents)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.service.Submit(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	core.Created(w, SubmittedResponse{ID: c.ID, Status: c.Status, CreatedAt: c.CreatedAt})
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	upload, err := h.service.UploadDocument(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "document")
		return
	}

	core.Created(w, upload)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "claimID")
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	result, err := h.service.Review(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
		req,
	)
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	core.OK(w, ReviewResponse{
		Claim:      ToResponse(result.Claim),
		WasNewUser: result.WasNewUser,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Pagination:  core.PaginationFromRequest(r),
		Status:      lifecycle.Status(q.Get("status")),
		DetectiveID: q.Get("detective_id"),
	}

	claims, total, err := h.service.List(r.Context(), middleware.GetPrincipal(r.Context()), params)
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	core.Paginated(w, ToResponseList(claims), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "claimID")
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	c, err := h.service.Get(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	core.OK(w, ToResponse(c))
}

func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := core.URLParamID(r, "claimID")
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	links, err := h.service.DocumentLinks(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		id,
	)
	if err != nil {
		core.HandleError(w, err, "claim")
		return
	}

	core.OK(w, links)
}
