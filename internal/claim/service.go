// AngelaMos | 2026
// service.go

package claim

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
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/detective"
	"github.com/carterperez-dev/finddetectives/internal/events"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
	"github.com/carterperez-dev/finddetectives/internal/metrics"
	"github.com/carterperez-dev/finddetectives/internal/saga"
	"github.com/carterperez-dev/finddetectives/internal/storage"
	"github.com/carterperez-dev/finddetectives/internal/user"
)

// Detectives is the part of the detective store an approval writes to.
type Detectives interface {
	GetByID(ctx context.Context, id string) (*detective.Detective, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	TransferOwnership(ctx context.Context, id, userID string) error
	RestoreOwnership(ctx context.Context, id string, prev detective.Ownership) error
}

// Users resolves and provisions claimant accounts.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	SetRole(ctx context.Context, id string, role access.Role) error
	Delete(ctx context.Context, id string) error
}

type Documents interface {
	PresignUpload(ctx context.Context, filename, contentType string) (*storage.Upload, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

type Service struct {
	repo       Repository
	detectives Detectives
	users      Users
	documents  Documents
	publisher  events.Publisher
	metrics    *metrics.Metrics
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	detectives Detectives,
	users Users,
	documents Documents,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		detectives: detectives,
		users:      users,
		documents:  documents,
		publisher:  publisher,
		metrics:    m,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// Submit records a public claim against an existing, claimable profile.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Claim, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	for _, key := range req.Documents {
		if !storage.IsClaimDocumentKey(key) {
			return nil, core.ValidationError(fmt.Sprintf("documents: unknown key %q", key))
		}
	}

	d, err := s.detectives.GetByID(ctx, req.DetectiveID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("detective")
	}
	if err != nil {
		return nil, err
	}
	if !d.Claimable() {
		return nil, fmt.Errorf("submit claim: %w", detective.ErrNotClaimable)
	}

	email := strings.ToLower(strings.TrimSpace(req.ClaimantEmail))

	pending, err := s.repo.ExistsPending(ctx, d.ID, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, core.ConflictError("a claim for this profile is already under review", "CLAIM_PENDING")
	}

	c := &Claim{
		ID:            uuid.New().String(),
		DetectiveID:   d.ID,
		ClaimantName:  req.ClaimantName,
		ClaimantEmail: email,
		ClaimantPhone: req.ClaimantPhone,
		Documents:     core.StringList(req.Documents),
		Details:       req.Details,
		Status:        lifecycle.StatusPending,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.Event{
		ID:        uuid.New().String(),
		Type:      events.ClaimSubmitted,
		SubjectID: c.ID,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]any{"detective_id": d.ID, "email": email},
	})

	return c, nil
}

// UploadDocument returns a presigned URL the claimant PUTs a supporting
// document to. The returned key goes into SubmitRequest.Documents.
func (s *Service) UploadDocument(
	ctx context.Context,
	req DocumentUploadRequest,
) (*storage.Upload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}
	if s.documents == nil {
		return nil, ErrDocumentsDisabled
	}
	return s.documents.PresignUpload(ctx, req.FileName, req.ContentType)
}

func (s *Service) Get(ctx context.Context, p *access.Principal, id string) (*Claim, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	p *access.Principal,
	params ListParams,
) ([]Claim, int, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, 0, fmt.Errorf("list claims: %w", err)
	}
	return s.repo.List(ctx, params)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

// DocumentLinks presigns a download URL for every document on the claim.
func (s *Service) DocumentLinks(
	ctx context.Context,
	p *access.Principal,
	id string,
) ([]DocumentLink, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if s.documents == nil && len(c.Documents) > 0 {
		return nil, ErrDocumentsDisabled
	}

	links := make([]DocumentLink, 0, len(c.Documents))
	for _, key := range c.Documents {
		u, err := s.documents.PresignDownload(ctx, key)
		if err != nil {
			return nil, err
		}
		links = append(links, DocumentLink{Key: key, URL: u})
	}

	return links, nil
}

// Review moves a claim through the review state machine. Approval transfers
// the profile to the claimant's account.
func (s *Service) Review(
	ctx context.Context,
	p *access.Principal,
	id string,
	req ReviewRequest,
) (*ApprovalResult, error) {
	if err := access.Require(p, access.RoleAdmin); err != nil {
		return nil, fmt.Errorf("review claim: %w", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Transition(c.Status, req.Status); err != nil {
		return nil, fmt.Errorf("review claim: %w", err)
	}

	result := &ApprovalResult{}
	if req.Status == lifecycle.StatusApproved {
		result, err = s.approve(ctx, p, c, req.ReviewNotes)
	} else {
		err = s.repo.Transition(ctx, id, req.Status, p.ID, req.ReviewNotes)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(metrics.WorkflowClaim, string(req.Status))
	s.logger.InfoContext(ctx, "claim reviewed",
		"claim_id", id,
		"status", string(req.Status),
		"reviewer_id", p.ID,
	)

	result.Claim, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, p, result)

	return result, nil
}

// approve runs the ownership transfer as a saga. Each step records its undo
// action, and any failure unwinds the recorded steps in reverse order.
func (s *Service) approve(
	ctx context.Context,
	p *access.Principal,
	c *Claim,
	notes string,
) (*ApprovalResult, error) {
	d, err := s.detectives.GetByID(ctx, c.DetectiveID)
	if err != nil {
		return nil, err
	}
	if !d.Claimable() {
		return nil, fmt.Errorf("approve claim: %w", detective.ErrNotClaimable)
	}

	sg := saga.New("claim_approval")

	claimant, wasNew, err := s.resolveClaimant(ctx, sg, c)
	if err != nil {
		return nil, s.abort(ctx, sg, c, err)
	}

	prev := d.Ownership()
	if err := s.detectives.TransferOwnership(ctx, d.ID, claimant.ID); err != nil {
		return nil, s.abort(ctx, sg, c, err)
	}
	sg.Record(ctx, "transfer_ownership", func(ctx context.Context) error {
		return s.detectives.RestoreOwnership(ctx, d.ID, prev)
	})

	if err := s.repo.Finalize(ctx, c.ID, p.ID, notes, claimant.ID); err != nil {
		return nil, s.abort(ctx, sg, c, err)
	}
	sg.Complete()

	return &ApprovalResult{ClaimantUserID: claimant.ID, WasNewUser: wasNew}, nil
}

// resolveClaimant finds or provisions the account that will own the
// profile. A new account gets a temporary credential and is deleted again
// on rollback; an existing plain user is promoted and demoted on rollback.
func (s *Service) resolveClaimant(
	ctx context.Context,
	sg *saga.Saga,
	c *Claim,
) (*user.User, bool, error) {
	u, err := s.users.GetByEmail(ctx, c.ClaimantEmail)
	if errors.Is(err, core.ErrNotFound) {
		u, err = s.createClaimant(ctx, c)
		if err != nil {
			return nil, false, err
		}
		sg.Record(ctx, "create_claimant", func(ctx context.Context) error {
			return s.users.Delete(ctx, u.ID)
		})
		return u, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	owns, err := s.detectives.ExistsForUser(ctx, u.ID)
	if err != nil {
		return nil, false, err
	}
	if owns {
		return nil, false, fmt.Errorf("resolve claimant: %w", ErrClaimantHasProfile)
	}

	if u.Role == access.RoleUser {
		if err := s.users.SetRole(ctx, u.ID, access.RoleDetective); err != nil {
			return nil, false, err
		}
		prevRole := u.Role
		sg.Record(ctx, "promote_claimant", func(ctx context.Context) error {
			return s.users.SetRole(ctx, u.ID, prevRole)
		})
	}

	return u, false, nil
}

func (s *Service) createClaimant(ctx context.Context, c *Claim) (*user.User, error) {
	temp, err := core.GenerateTemporaryPassword()
	if err != nil {
		return nil, fmt.Errorf("generate temporary password: %w", err)
	}

	hash, err := core.HashPassword(temp)
	if err != nil {
		return nil, fmt.Errorf("hash temporary password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Email:        c.ClaimantEmail,
		PasswordHash: hash,
		Name:         c.ClaimantName,
		Role:         access.RoleDetective,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// abort unwinds sg after cause. A clean rollback returns cause unchanged.
// A failed rollback is logged, counted, noted on the claim and reported as
// ErrCompensationFailed.
func (s *Service) abort(ctx context.Context, sg *saga.Saga, c *Claim, cause error) error {
	steps := sg.Len()
	err := sg.Compensate(ctx, cause)

	var compErr *saga.CompensationError
	if !errors.As(err, &compErr) {
		if steps > 0 {
			s.metrics.RecordCompensation(metrics.WorkflowClaim, metrics.OutcomeCompensated)
		}
		return err
	}

	undoErrors := make([]string, 0, len(compErr.Failed))
	for _, f := range compErr.Failed {
		undoErrors = append(undoErrors, f.Error())
	}

	s.logger.ErrorContext(ctx, "claim approval rollback failed",
		"claim_id", c.ID,
		"detective_id", c.DetectiveID,
		"cause", cause,
		"undo_errors", undoErrors,
	)
	s.metrics.RecordCompensation(metrics.WorkflowClaim, metrics.OutcomeFailed)

	if recErr := s.repo.RecordError(context.WithoutCancel(ctx), c.ID, err.Error()); recErr != nil {
		s.logger.WarnContext(ctx, "record claim error failed",
			"claim_id", c.ID,
			"error", recErr,
		)
	}

	return fmt.Errorf("%w: %w", ErrCompensationFailed, err)
}

func (s *Service) publishOutcome(ctx context.Context, p *access.Principal, r *ApprovalResult) {
	var eventType string
	payload := map[string]any{
		"detective_id": r.Claim.DetectiveID,
		"email":        r.Claim.ClaimantEmail,
	}

	switch r.Claim.Status {
	case lifecycle.StatusApproved:
		eventType = events.ClaimApproved
		payload["claimant_user_id"] = r.ClaimantUserID
		payload["was_new_user"] = r.WasNewUser
	case lifecycle.StatusRejected:
		eventType = events.ClaimRejected
	default:
		return
	}

	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ActorID:   p.ID,
		SubjectID: r.Claim.ID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
