// AngelaMos | 2026
// service.go

package detective

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/fieldguard"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
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

// Create registers a profile owned by the calling detective. New profiles
// start pending until an admin activates them.
func (s *Service) Create(
	ctx context.Context,
	p *access.Principal,
	req CreateDetectiveRequest,
) (*Detective, error) {
	if err := access.Require(p, access.RoleDetective); err != nil {
		return nil, fmt.Errorf("create detective: %w", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	exists, err := s.repo.ExistsForUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.ConflictError("detective profile already exists", "PROFILE_EXISTS")
	}

	ownerID := p.ID
	d := newDetective(req)
	d.UserID = &ownerID
	d.Status = StatusPending

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "detective profile created",
		"detective_id", d.ID,
		"user_id", ownerID,
	)

	return d, nil
}

// CreateUnclaimed lets an admin publish a listing with no owner that its
// real operator can later claim.
func (s *Service) CreateUnclaimed(
	ctx context.Context,
	p *access.Principal,
	req CreateUnclaimedRequest,
) (*Detective, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("create unclaimed detective: %w", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	d := newDetective(req.CreateDetectiveRequest)
	d.Status = StatusActive
	d.IsVerified = req.IsVerified
	d.IsClaimable = true

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "unclaimed detective profile created",
		"detective_id", d.ID,
		"admin_id", p.ID,
	)

	return d, nil
}

func newDetective(req CreateDetectiveRequest) *Detective {
	return &Detective{
		ID:               uuid.New().String(),
		BusinessName:     req.BusinessName,
		Bio:              req.Bio,
		Location:         req.Location,
		Country:          strings.ToUpper(req.Country),
		Phone:            req.Phone,
		WhatsApp:         req.WhatsApp,
		Languages:        core.StringList(req.Languages),
		Recognitions:     Recognitions{},
		SubscriptionPlan: subscription.PlanFree,
	}
}

// Get returns an active profile to anyone. Inactive profiles are only
// visible to their owner and admins.
func (s *Service) Get(
	ctx context.Context,
	viewer *access.Principal,
	id string,
) (*Detective, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.Status != StatusActive && !canSeePrivate(d, viewer) {
		return nil, fmt.Errorf("get detective: %w", core.ErrNotFound)
	}

	return d, nil
}

func (s *Service) GetMine(
	ctx context.Context,
	p *access.Principal,
) (*Detective, error) {
	if err := access.Require(p); err != nil {
		return nil, fmt.Errorf("get own detective: %w", err)
	}

	return s.repo.GetByUserID(ctx, p.ID)
}

func (s *Service) Plan(
	ctx context.Context,
	p *access.Principal,
) (*PlanResponse, error) {
	d, err := s.GetMine(ctx, p)
	if err != nil {
		return nil, err
	}

	return &PlanResponse{
		Plan:     d.SubscriptionPlan,
		Features: subscription.FeaturesFor(d.SubscriptionPlan),
	}, nil
}

// Update applies the part of payload the caller may write. Owners are
// additionally limited by their plan: contact fields and recognitions are
// dropped, never cleared, when the plan does not unlock them. A payload with
// nothing left returns the stored profile untouched.
func (s *Service) Update(
	ctx context.Context,
	p *access.Principal,
	id string,
	payload map[string]any,
) (*Detective, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.RequireOwner(p, d.OwnerID(), access.RoleDetective, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("update detective: %w", err)
	}

	tier := fieldguard.TierFor(p)
	fields := fieldguard.Sanitize(fieldguard.KindDetective, tier, payload)
	if tier == fieldguard.TierSelf {
		fields = subscription.GatePatch(d.SubscriptionPlan, fields)
	}

	if len(fields) < len(payload) {
		s.logger.DebugContext(ctx, "dropped fields from detective update",
			"detective_id", id,
			"tier", tier.String(),
			"plan", d.SubscriptionPlan,
			"fields", droppedKeys(payload, fields),
		)
	}

	if len(fields) == 0 {
		return d, nil
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

func droppedKeys(payload, kept map[string]any) []string {
	var out []string
	for k := range payload {
		if _, ok := kept[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// List shows active profiles to the public. Admins may filter on any
// status.
func (s *Service) List(
	ctx context.Context,
	viewer *access.Principal,
	params ListParams,
) ([]Detective, int, error) {
	if !viewer.IsAdmin() {
		params.Status = StatusActive
	}

	return s.repo.List(ctx, params)
}
