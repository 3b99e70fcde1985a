// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
)

// NextStepCreateProfile tells a freshly registered detective that the
// account has no listing yet.
const NextStepCreateProfile = "create_detective_profile"

var errTokenReuse = core.NewAppError(
	core.ErrTokenRevoked,
	"security alert: token reuse detected, all sessions revoked",
	http.StatusUnauthorized,
	"TOKEN_REUSE_DETECTED",
)

// authErrors is checked in order before falling back to core.HandleError.
var authErrors = []struct {
	target error
	resp   *core.AppError
}{
	{ErrTokenReuse, errTokenReuse},
	{ErrInvalidCredentials, core.UnauthorizedError("invalid email or password")},
	{ErrEmailExists, core.DuplicateError("email")},
	{core.ErrTokenExpired, core.TokenExpiredError()},
	{core.ErrTokenRevoked, core.TokenRevokedError()},
	{core.ErrTokenInvalid, core.TokenInvalidError()},
}

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
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	resp, err := h.service.Login(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		writeError(w, err, "user")
		return
	}

	core.OK(w, resp)
}

// Register signs up a buyer or a detective. Detectives get a next_step hint
// pointing at profile creation.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	resp, err := h.service.Register(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		writeError(w, err, "user")
		return
	}

	if access.Role(resp.User.Role) == access.RoleDetective {
		resp.NextStep = NextStepCreateProfile
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		writeError(w, err, "token")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req RefreshRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken, claims); err != nil {
		writeError(w, err, "token")
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.LogoutAll(r.Context(), p.ID); err != nil {
		writeError(w, err, "user")
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.GetActiveSessions(r.Context(), p.ID)
	if err != nil {
		writeError(w, err, "session")
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	sessionID, err := core.URLParamID(r, "sessionID")
	if err == nil {
		err = h.service.RevokeSession(r.Context(), p.ID, sessionID)
	}
	if err != nil {
		writeError(w, err, "session")
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	err := h.service.ChangePassword(r.Context(), p.ID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, ErrInvalidCredentials) {
		core.JSONError(w, core.UnauthorizedError("current password is incorrect"))
		return
	}
	if err != nil {
		writeError(w, err, "user")
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), p.ID)
	if err != nil {
		writeError(w, err, "user")
		return
	}

	core.OK(w, user)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, validate bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if validate {
		if err := h.validator.Struct(dst); err != nil {
			core.BadRequest(w, core.FormatValidationError(err))
			return false
		}
	}

	return true
}

// caller returns the authenticated principal of any role.
func caller(w http.ResponseWriter, r *http.Request) (*access.Principal, bool) {
	p := middleware.GetPrincipal(r.Context())
	if err := access.Require(p); err != nil {
		core.HandleError(w, err, "user")
		return nil, false
	}
	return p, true
}

func writeError(w http.ResponseWriter, err error, resource string) {
	for _, m := range authErrors {
		if errors.Is(err, m.target) {
			core.JSONError(w, m.resp)
			return
		}
	}
	core.HandleError(w, err, resource)
}
