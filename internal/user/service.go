// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/auth"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/fieldguard"
)

type Service struct {
	repo      Repository
	validator *validator.Validate
	logger    *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
	role access.Role,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// GetUser returns id to its owner or to an admin.
func (s *Service) GetUser(
	ctx context.Context,
	p *access.Principal,
	id string,
) (*User, error) {
	if err := access.RequireOwner(p, id); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.repo.GetByID(ctx, id)
}

// Update applies the whitelisted part of payload. Role is never on the
// whitelist; SetRole is the only way to change it. A payload with nothing
// writable returns the stored user untouched.
func (s *Service) Update(
	ctx context.Context,
	p *access.Principal,
	id string,
	payload map[string]any,
) (*User, error) {
	if err := access.RequireOwner(p, id); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	tier := fieldguard.TierFor(p)
	if dropped := fieldguard.Dropped(fieldguard.KindUser, tier, payload); len(dropped) > 0 {
		s.logger.DebugContext(ctx, "dropped fields from user update",
			"user_id", id,
			"tier", tier.String(),
			"fields", dropped,
		)
	}

	fields := fieldguard.Sanitize(fieldguard.KindUser, tier, payload)
	if len(fields) == 0 {
		return s.repo.GetByID(ctx, id)
	}

	var patch Patch
	if err := core.DecodePatch(fields, &patch); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(patch); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	return s.repo.Update(ctx, id, patch.Columns())
}

// SetRole is the admin path for changing a role. Admins cannot change their
// own role so the last admin cannot lock everyone out by accident.
func (s *Service) SetRole(
	ctx context.Context,
	p *access.Principal,
	id string,
	role access.Role,
) (*User, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	if !role.Valid() {
		return nil, fmt.Errorf("set role: invalid role %q: %w", role, core.ErrInvalidInput)
	}

	if p.ID == id {
		return nil, core.ForbiddenError("cannot change your own role")
	}

	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user role changed",
		"user_id", id,
		"role", role,
		"admin_id", p.ID,
	)

	return s.repo.GetByID(ctx, id)
}

// Delete soft deletes id. Users may delete themselves; admins may delete
// anyone except another admin.
func (s *Service) Delete(
	ctx context.Context,
	p *access.Principal,
	id string,
) error {
	if err := access.RequireOwner(p, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if p.ID != id {
		target, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if target.IsAdmin() {
			return core.ForbiddenError("cannot delete admin users")
		}
	}

	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	p *access.Principal,
	params ListUsersParams,
) ([]User, int, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return s.repo.List(ctx, params)
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, strings.ToLower(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
