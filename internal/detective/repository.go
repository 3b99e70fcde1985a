// AngelaMos | 2026
// repository.go

package detective

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type Repository interface {
	Create(ctx context.Context, d *Detective) error
	GetByID(ctx context.Context, id string) (*Detective, error)
	GetByUserID(ctx context.Context, userID string) (*Detective, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	Update(ctx context.Context, id string, cols map[string]any) (*Detective, error)
	TransferOwnership(ctx context.Context, id, userID string) error
	RestoreOwnership(ctx context.Context, id string, prev Ownership) error
	List(ctx context.Context, params ListParams) ([]Detective, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Detective) error {
	query := `
		INSERT INTO detectives (
			id, user_id, business_name, bio, location, country, phone,
			whatsapp, languages, recognitions, subscription_plan, status,
			is_verified, is_claimed, is_claimable
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING earnings_total, created_at, updated_at`

	err := r.db.GetContext(ctx, d, query,
		d.ID,
		d.UserID,
		d.BusinessName,
		d.Bio,
		d.Location,
		d.Country,
		d.Phone,
		d.WhatsApp,
		d.Languages,
		d.Recognitions,
		d.SubscriptionPlan,
		d.Status,
		d.IsVerified,
		d.IsClaimed,
		d.IsClaimable,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create detective: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create detective: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Detective, error) {
	query := `SELECT ` + detectiveColumns + ` FROM detectives WHERE id = $1`

	var d Detective
	err := r.db.GetContext(ctx, &d, query, id)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("get detective: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get detective: %w", err)
	}

	return &d, nil
}

func (r *repository) GetByUserID(
	ctx context.Context,
	userID string,
) (*Detective, error) {
	query := `SELECT ` + detectiveColumns + ` FROM detectives WHERE user_id = $1`

	var d Detective
	err := r.db.GetContext(ctx, &d, query, userID)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("get detective by user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get detective by user: %w", err)
	}

	return &d, nil
}

func (r *repository) ExistsForUser(
	ctx context.Context,
	userID string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM detectives WHERE user_id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check detective exists: %w", err)
	}

	return exists, nil
}

// Update writes only cols and returns the stored row.
func (r *repository) Update(
	ctx context.Context,
	id string,
	cols map[string]any,
) (*Detective, error) {
	query, args, err := core.Psql.Update("detectives").
		SetMap(cols).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + detectiveColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update detective sql: %w", err)
	}

	var d Detective
	err = r.db.GetContext(ctx, &d, query, args...)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("update detective: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update detective: %w", err)
	}

	return &d, nil
}

// TransferOwnership hands an unclaimed profile to userID. The WHERE clause
// is the race guard: of two concurrent approvals only one sees a row.
func (r *repository) TransferOwnership(
	ctx context.Context,
	id, userID string,
) error {
	query := `
		UPDATE detectives
		SET user_id = $2, is_claimed = TRUE, is_claimable = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_claimable AND NOT is_claimed`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("transfer ownership: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("transfer ownership: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("transfer ownership: %w", ErrNotClaimable)
	}

	return nil
}

func (r *repository) RestoreOwnership(
	ctx context.Context,
	id string,
	prev Ownership,
) error {
	query := `
		UPDATE detectives
		SET user_id = $2, is_claimed = $3, is_claimable = $4, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id,
		prev.UserID,
		prev.IsClaimed,
		prev.IsClaimable,
	)
	if err != nil {
		return fmt.Errorf("restore ownership: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("restore ownership: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("restore ownership: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Detective, int, error) {
	params.Normalize()

	where := sq.And{}

	if params.Search != "" {
		pattern := "%" + core.EscapeLike(params.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"business_name": pattern},
			sq.ILike{"location": pattern},
		})
	}
	if params.Country != "" {
		where = append(where, sq.Eq{"country": strings.ToUpper(params.Country)})
	}
	if params.Status != "" {
		where = append(where, sq.Eq{"status": params.Status})
	}
	if params.Plan != "" {
		where = append(where, sq.Eq{"subscription_plan": params.Plan})
	}
	if params.IsClaimable != nil {
		where = append(where, sq.Eq{"is_claimable": *params.IsClaimable})
	}
	if params.IsVerified != nil {
		where = append(where, sq.Eq{"is_verified": *params.IsVerified})
	}

	countQuery, countArgs, err := core.Psql.Select("COUNT(*)").
		From("detectives").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count detectives sql: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count detectives: %w", err)
	}

	query, args, err := core.Psql.Select(detectiveColumns).
		From("detectives").
		Where(where).
		OrderBy("is_verified DESC", "created_at DESC").
		Limit(params.Limit()).
		Offset(params.OffsetU64()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list detectives sql: %w", err)
	}

	var detectives []Detective
	if err := r.db.SelectContext(ctx, &detectives, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list detectives: %w", err)
	}

	return detectives, total, nil
}
