// AngelaMos | 2026
// repository.go

package claim

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
)

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id string) (*Claim, error)
	ExistsPending(ctx context.Context, detectiveID, email string) (bool, error)
	Transition(ctx context.Context, id string, to lifecycle.Status, reviewerID, notes string) error
	Finalize(ctx context.Context, id, reviewerID, notes, claimantUserID string) error
	RecordError(ctx context.Context, id, message string) error
	List(ctx context.Context, params ListParams) ([]Claim, int, error)
	CountPending(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Claim) error {
	query := `
		INSERT INTO profile_claims (
			id, detective_id, claimant_name, claimant_email, claimant_phone,
			documents, details, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, c, query,
		c.ID,
		c.DetectiveID,
		c.ClaimantName,
		c.ClaimantEmail,
		c.ClaimantPhone,
		c.Documents,
		c.Details,
		c.Status,
	)
	if err != nil {
		return fmt.Errorf("create claim: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM profile_claims WHERE id = $1`

	var c Claim
	err := r.db.GetContext(ctx, &c, query, id)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("get claim: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}

	return &c, nil
}

func (r *repository) ExistsPending(ctx context.Context, detectiveID, email string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM profile_claims
			WHERE detective_id = $1 AND claimant_email = $2
				AND status IN ('pending', 'under_review')
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, detectiveID, email); err != nil {
		return false, fmt.Errorf("check pending claim: %w", err)
	}

	return exists, nil
}

func (r *repository) Transition(
	ctx context.Context,
	id string,
	to lifecycle.Status,
	reviewerID, notes string,
) error {
	return r.updateReviewable(ctx, "transition claim", id, map[string]any{
		"status":       to,
		"review_notes": notes,
		"reviewed_by":  reviewerID,
	})
}

// Finalize is the last step of an approval. It only succeeds while the
// claim is still reviewable, so two admins approving at once cannot both
// win.
func (r *repository) Finalize(
	ctx context.Context,
	id, reviewerID, notes, claimantUserID string,
) error {
	return r.updateReviewable(ctx, "finalize claim", id, map[string]any{
		"status":           lifecycle.StatusApproved,
		"review_notes":     notes,
		"reviewed_by":      reviewerID,
		"claimant_user_id": claimantUserID,
		"last_error":       nil,
	})
}

func (r *repository) updateReviewable(
	ctx context.Context,
	op, id string,
	cols map[string]any,
) error {
	query, args, err := core.Psql.Update("profile_claims").
		SetMap(cols).
		Set("reviewed_at", sq.Expr("NOW()")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": lifecycle.ReviewableStrings()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, lifecycle.ErrInvalidTransition)
	}

	return nil
}

// RecordError stores a diagnostic on a claim whose approval could not be
// rolled back cleanly.
func (r *repository) RecordError(ctx context.Context, id, message string) error {
	query := `UPDATE profile_claims SET last_error = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, message); err != nil {
		return fmt.Errorf("record claim error: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Claim, int, error) {
	params.Normalize()

	where := sq.And{}
	if params.Status != "" {
		where = append(where, sq.Eq{"status": params.Status})
	}
	if params.DetectiveID != "" {
		where = append(where, sq.Eq{"detective_id": params.DetectiveID})
	}

	countQuery, countArgs, err := core.Psql.Select("COUNT(*)").
		From("profile_claims").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count claims sql: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count claims: %w", err)
	}

	query, args, err := core.Psql.Select(claimColumns).
		From("profile_claims").
		Where(where).
		OrderBy("created_at ASC").
		Limit(params.Limit()).
		Offset(params.OffsetU64()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list claims sql: %w", err)
	}

	var claims []Claim
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list claims: %w", err)
	}

	return claims, total, nil
}

func (r *repository) CountPending(ctx context.Context) (int, error) {
	query, args, err := core.Psql.Select("COUNT(*)").
		From("profile_claims").
		Where(sq.Eq{"status": lifecycle.ReviewableStrings()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count pending claims sql: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count pending claims: %w", err)
	}

	return count, nil
}
