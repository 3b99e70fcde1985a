// AngelaMos | 2026
// catalog.go

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/detective"
	"github.com/carterperez-dev/finddetectives/internal/fieldguard"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
)

// ErrCategoryLimit is returned when a write would put a detective in more
// active categories than their plan allows.
var ErrCategoryLimit = subscription.ErrCategoryLimit

// Detectives is the part of the detective store the catalog reads.
type Detectives interface {
	GetByID(ctx context.Context, id string) (*detective.Detective, error)
	GetByUserID(ctx context.Context, userID string) (*detective.Detective, error)
}

// Catalog owns service listings and the category taxonomy.
type Catalog struct {
	services   ServiceRepository
	categories CategoryRepository
	detectives Detectives
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewCatalog(
	services ServiceRepository,
	categories CategoryRepository,
	detectives Detectives,
	logger *slog.Logger,
) *Catalog {
	return &Catalog{
		services:   services,
		categories: categories,
		detectives: detectives,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

func (c *Catalog) CreateService(
	ctx context.Context,
	p *access.Principal,
	req CreateServiceRequest,
) (*Service, error) {
	if err := access.Require(p, access.RoleDetective); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	if err := c.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}
	if err := checkOffer(req.BasePrice, req.OfferPrice); err != nil {
		return nil, err
	}

	d, err := c.detectives.GetByUserID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("create service: detective profile: %w", err)
	}

	if err := c.requireActiveCategory(ctx, req.Category); err != nil {
		return nil, err
	}

	if err := c.checkCategoryLimit(ctx, d, "", req.Category); err != nil {
		return nil, err
	}

	s := &Service{
		ID:          uuid.New().String(),
		DetectiveID: d.ID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		OfferPrice:  req.OfferPrice,
		Images:      core.StringList(req.Images),
		IsActive:    true,
	}

	if err := c.services.Create(ctx, s); err != nil {
		return nil, err
	}

	return s, nil
}

// UpdateService applies the whitelisted part of payload for the owning
// detective or an admin. Moving a service into a new category or
// reactivating it is checked against the owner's plan.
func (c *Catalog) UpdateService(
	ctx context.Context,
	p *access.Principal,
	id string,
	payload map[string]any,
) (*Service, error) {
	s, err := c.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d, err := c.detectives.GetByID(ctx, s.DetectiveID)
	if err != nil {
		return nil, err
	}

	if err := access.RequireOwner(p, d.OwnerID(), access.RoleDetective, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	tier := fieldguard.TierFor(p)
	if dropped := fieldguard.Dropped(fieldguard.KindService, tier, payload); len(dropped) > 0 {
		c.logger.DebugContext(ctx, "dropped fields from service update",
			"service_id", id,
			"tier", tier.String(),
			"fields", dropped,
		)
	}

	fields := fieldguard.Sanitize(fieldguard.KindService, tier, payload)
	if len(fields) == 0 {
		return s, nil
	}

	var patch ServicePatch
	if err := core.DecodePatch(fields, &patch); err != nil {
		return nil, err
	}

	if err := c.validator.Struct(patch); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	base, offer := s.BasePrice, s.OfferPrice
	if patch.BasePrice != nil {
		base = *patch.BasePrice
	}
	if patch.OfferPrice != nil {
		offer = patch.OfferPrice
	}
	if err := checkOffer(base, offer); err != nil {
		return nil, err
	}

	category, active := s.Category, s.IsActive
	if patch.Category != nil {
		category = *patch.Category
		if err := c.requireActiveCategory(ctx, category); err != nil {
			return nil, err
		}
	}
	if patch.IsActive != nil {
		active = *patch.IsActive
	}

	if active {
		if err := c.checkCategoryLimit(ctx, d, s.ID, category); err != nil {
			return nil, err
		}
	}

	return c.services.Update(ctx, id, patch.Columns())
}

func checkOffer(base float64, offer *float64) error {
	if offer != nil && *offer > base {
		return core.ValidationError("offer_price must not exceed base_price")
	}
	return nil
}

func (c *Catalog) checkCategoryLimit(
	ctx context.Context,
	d *detective.Detective,
	excludeID, category string,
) error {
	current, err := c.services.ActiveCategories(ctx, d.ID, excludeID)
	if err != nil {
		return err
	}

	return subscription.CheckCategories(d.SubscriptionPlan, current, category)
}

func (c *Catalog) requireActiveCategory(ctx context.Context, slug string) error {
	cat, err := c.categories.GetBySlug(ctx, slug)
	if errors.Is(err, core.ErrNotFound) {
		return core.ValidationError(fmt.Sprintf("unknown category %q", slug))
	}
	if err != nil {
		return err
	}

	if !cat.IsActive {
		return core.ValidationError(fmt.Sprintf("category %q is not active", slug))
	}

	return nil
}

// RequireActiveCategories fails with a validation error naming the first
// slug that does not exist or is inactive.
func (c *Catalog) RequireActiveCategories(ctx context.Context, slugs []string) error {
	for _, slug := range slugs {
		if err := c.requireActiveCategory(ctx, slug); err != nil {
			return err
		}
	}
	return nil
}

// GetService hides inactive services from everyone but the owner and admins.
func (c *Catalog) GetService(
	ctx context.Context,
	viewer *access.Principal,
	id string,
) (*Service, error) {
	s, err := c.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.IsActive || viewer.IsAdmin() {
		return s, nil
	}

	if viewer != nil {
		d, err := c.detectives.GetByID(ctx, s.DetectiveID)
		if err == nil && d.OwnerID() == viewer.ID {
			return s, nil
		}
	}

	return nil, fmt.Errorf("get service: %w", core.ErrNotFound)
}

func (c *Catalog) ListServices(
	ctx context.Context,
	viewer *access.Principal,
	params ListServicesParams,
) ([]Service, int, error) {
	params.ActiveOnly = !viewer.IsAdmin()
	return c.services.List(ctx, params)
}

func (c *Catalog) ListCategories(
	ctx context.Context,
	viewer *access.Principal,
) ([]Category, error) {
	return c.categories.List(ctx, !viewer.IsAdmin())
}

func (c *Catalog) CreateCategory(
	ctx context.Context,
	p *access.Principal,
	req CreateCategoryRequest,
) (*Category, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	if err := c.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	cat := &Category{
		ID:          uuid.New().String(),
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	if err := c.categories.Create(ctx, cat); err != nil {
		return nil, err
	}

	return cat, nil
}

// UpdateCategory is admin only; the slug is immutable because services
// reference it.
func (c *Catalog) UpdateCategory(
	ctx context.Context,
	p *access.Principal,
	id string,
	payload map[string]any,
) (*Category, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	fields := fieldguard.Sanitize(fieldguard.KindServiceCategory, fieldguard.TierFor(p), payload)
	if len(fields) == 0 {
		return c.categories.GetByID(ctx, id)
	}

	var patch CategoryPatch
	if err := core.DecodePatch(fields, &patch); err != nil {
		return nil, err
	}

	if err := c.validator.Struct(patch); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	return c.categories.Update(ctx, id, patch.Columns())
}
