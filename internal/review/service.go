// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/catalog"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/fieldguard"
)

type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (*catalog.Service, error)
}

type Service struct {
	repo      Repository
	services  ServiceLookup
	validator *validator.Validate
	logger    *slog.Logger
}

func NewService(repo Repository, services ServiceLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		services:  services,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (s *Service) Create(
	ctx context.Context,
	p *access.Principal,
	req CreateReviewRequest,
) (*Review, error) {
	if err := access.Require(p, access.RoleUser); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("service")
	}
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, core.NotFoundError("service")
	}

	rv := &Review{
		ID:          uuid.New().String(),
		ServiceID:   svc.ID,
		UserID:      p.ID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		IsPublished: true,
	}

	if err := s.repo.Create(ctx, rv); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError("service already reviewed", "ALREADY_REVIEWED")
		}
		return nil, err
	}

	return rv, nil
}

// Update lets the author or an admin change a review through the review
// whitelist.
func (s *Service) Update(
	ctx context.Context,
	p *access.Principal,
	id string,
	payload map[string]any,
) (*Review, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.RequireOwner(p, rv.UserID, access.RoleUser, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	tier := fieldguard.TierFor(p)
	if dropped := fieldguard.Dropped(fieldguard.KindReview, tier, payload); len(dropped) > 0 {
		s.logger.DebugContext(ctx, "dropped fields from review update",
			"review_id", id,
			"fields", dropped,
		)
	}

	fields := fieldguard.Sanitize(fieldguard.KindReview, tier, payload)
	if len(fields) == 0 {
		return rv, nil
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

// List shows published reviews. Admins also see unpublished ones, and
// authors see their own.
func (s *Service) List(
	ctx context.Context,
	viewer *access.Principal,
	params ListParams,
) ([]Review, int, error) {
	params.PublishedOnly = true
	if viewer.IsAdmin() {
		params.PublishedOnly = false
	} else if viewer != nil && params.UserID == viewer.ID {
		params.PublishedOnly = false
	}

	return s.repo.List(ctx, params)
}
