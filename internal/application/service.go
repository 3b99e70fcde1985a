// AngelaMos | 2026
// service.go

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/catalog"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/detective"
	"github.com/carterperez-dev/finddetectives/internal/events"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
	"github.com/carterperez-dev/finddetectives/internal/metrics"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
	"github.com/carterperez-dev/finddetectives/internal/user"
)

type UserCreator interface {
	Create(ctx context.Context, u *user.User) error
}

type DetectiveCreator interface {
	Create(ctx context.Context, d *detective.Detective) error
}

type ServiceCreator interface {
	Create(ctx context.Context, s *catalog.Service) error
}

// Stores are the repositories an approval writes through. They are built
// from the transaction handle so every write commits or rolls back
// together.
type Stores struct {
	Applications Repository
	Users        UserCreator
	Detectives   DetectiveCreator
	Services     ServiceCreator
}

type StoreFactory func(tx core.DBTX) Stores

type CategoryChecker interface {
	RequireActiveCategories(ctx context.Context, slugs []string) error
}

type Service struct {
	repo       Repository
	tx         core.Transactor
	stores     StoreFactory
	categories CategoryChecker
	policy     core.PasswordPolicy
	publisher  events.Publisher
	metrics    *metrics.Metrics
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	tx core.Transactor,
	stores StoreFactory,
	categories CategoryChecker,
	policy core.PasswordPolicy,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		stores:     stores,
		categories: categories,
		policy:     policy,
		publisher:  publisher,
		metrics:    m,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// Submit stores a public application in the pending state. One open
// application per email is allowed at a time.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.categories.RequireActiveCategories(ctx, req.Categories); err != nil {
		return nil, err
	}

	pending, err := s.repo.ExistsPendingForEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, core.ConflictError(
			"an application for this email is already under review",
			"APPLICATION_PENDING",
		)
	}

	var passwordHash *string
	if req.Password != "" {
		if err := s.policy.Check(req.Password, email, req.FullName); err != nil {
			return nil, err
		}

		hash, err := core.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash applicant password: %w", err)
		}
		passwordHash = &hash
	}

	app := &Application{
		ID:              uuid.New().String(),
		FullName:        req.FullName,
		Email:           email,
		Phone:           req.Phone,
		BusinessName:    req.BusinessName,
		BusinessType:    BusinessType(req.BusinessType),
		Country:         strings.ToUpper(req.Country),
		Location:        req.Location,
		Bio:             req.Bio,
		Languages:       core.StringList(req.Languages),
		Categories:      core.StringList(req.Categories),
		StartingPrice:   req.StartingPrice,
		LicenseNumber:   req.LicenseNumber,
		LicenseCountry:  strings.ToUpper(req.LicenseCountry),
		YearsExperience: req.YearsExperience,
		PasswordHash:    passwordHash,
		Status:          lifecycle.StatusPending,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.Event{
		ID:        uuid.New().String(),
		Type:      events.ApplicationSubmitted,
		SubjectID: app.ID,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]any{"email": app.Email},
	})

	return app, nil
}

func (s *Service) Get(ctx context.Context, p *access.Principal, id string) (*Application, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	p *access.Principal,
	params ListParams,
) ([]Application, int, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return s.repo.List(ctx, params)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

// Review moves an application through the review state machine. Approval
// provisions the applicant's account and profile in the same transaction
// as the status change.
func (s *Service) Review(
	ctx context.Context,
	p *access.Principal,
	id string,
	req ReviewRequest,
) (*Application, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("review application: %w", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Transition(app.Status, req.Status); err != nil {
		return nil, fmt.Errorf("review application: %w", err)
	}

	if req.Status == lifecycle.StatusApproved {
		err = s.approve(ctx, p, app, req.ReviewNotes)
	} else {
		err = s.repo.Transition(ctx, id, req.Status, p.ID, req.ReviewNotes)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(metrics.WorkflowApplication, string(req.Status))
	s.logger.InfoContext(ctx, "application reviewed",
		"application_id", id,
		"status", string(req.Status),
		"reviewer_id", p.ID,
	)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, p, updated)

	return updated, nil
}

func (s *Service) approve(
	ctx context.Context,
	p *access.Principal,
	app *Application,
	notes string,
) error {
	passwordHash, temporary, err := s.credential(app)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		st := s.stores(tx)

		if err := st.Applications.Transition(
			ctx, app.ID, lifecycle.StatusApproved, p.ID, notes,
		); err != nil {
			return err
		}

		u := &user.User{
			ID:           uuid.New().String(),
			Email:        app.Email,
			PasswordHash: passwordHash,
			Name:         app.FullName,
			Role:         access.RoleDetective,
		}
		if err := st.Users.Create(ctx, u); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return core.ConflictError("email is already registered", "EMAIL_EXISTS")
			}
			return err
		}

		d := &detective.Detective{
			ID:               uuid.New().String(),
			UserID:           &u.ID,
			BusinessName:     app.BusinessName,
			Bio:              app.Bio,
			Location:         app.Location,
			Country:          app.Country,
			Phone:            app.Phone,
			Languages:        app.Languages,
			SubscriptionPlan: subscription.PlanFree,
			Status:           detective.StatusActive,
		}
		if err := st.Detectives.Create(ctx, d); err != nil {
			return err
		}

		for _, svc := range starterServices(app, d.ID) {
			if err := st.Services.Create(ctx, svc); err != nil {
				return err
			}
		}

		if err := st.Applications.SetOutcome(ctx, app.ID, u.ID, d.ID); err != nil {
			return err
		}

		if temporary {
			s.logger.InfoContext(ctx, "applicant account created with temporary credential",
				"application_id", app.ID,
				"user_id", u.ID,
			)
		}

		return nil
	})
}

func (s *Service) credential(app *Application) (string, bool, error) {
	if app.PasswordHash != nil && *app.PasswordHash != "" {
		return *app.PasswordHash, false, nil
	}

	temp, err := core.GenerateTemporaryPassword()
	if err != nil {
		return "", false, fmt.Errorf("generate temporary password: %w", err)
	}

	hash, err := core.HashPassword(temp)
	if err != nil {
		return "", false, fmt.Errorf("hash temporary password: %w", err)
	}

	return hash, true, nil
}

// starterServices lists one service per requested category, capped at what
// the free plan allows. Nothing is created without a starting price.
func starterServices(app *Application, detectiveID string) []*catalog.Service {
	if app.StartingPrice == nil {
		return nil
	}

	limit := subscription.FeaturesFor(subscription.PlanFree).MaxCategories
	categories := []string(app.Categories)
	if limit != subscription.Unlimited && len(categories) > limit {
		categories = categories[:limit]
	}

	out := make([]*catalog.Service, 0, len(categories))
	for _, category := range categories {
		out = append(out, &catalog.Service{
			ID:          uuid.New().String(),
			DetectiveID: detectiveID,
			Category:    category,
			Title:       app.BusinessName + " - " + category,
			Description: app.Bio,
			BasePrice:   *app.StartingPrice,
			Images:      core.StringList{},
			IsActive:    true,
		})
	}
	return out
}

func (s *Service) publishOutcome(ctx context.Context, p *access.Principal, app *Application) {
	var eventType string
	switch app.Status {
	case lifecycle.StatusApproved:
		eventType = events.ApplicationApproved
	case lifecycle.StatusRejected:
		eventType = events.ApplicationRejected
	default:
		return
	}

	payload := map[string]any{"email": app.Email}
	if app.UserID != nil {
		payload["user_id"] = *app.UserID
		payload["needs_password"] = app.PasswordHash == nil
	}
	if app.DetectiveID != nil {
		payload["detective_id"] = *app.DetectiveID
	}

	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ActorID:   p.ID,
		SubjectID: app.ID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
