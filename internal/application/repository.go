// AngelaMos | 2026
// repository.go

package application

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
)

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	ExistsPendingForEmail(ctx context.Context, email string) (bool, error)
	Transition(ctx context.Context, id string, to lifecycle.Status, reviewerID, notes string) error
	SetOutcome(ctx context.Context, id, userID, detectiveID string) error
	List(ctx context.Context, params ListParams) ([]Application, int, error)
	CountPending(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Application) error {
	query := `
		INSERT INTO detective_applications (
			id, full_name, email, phone, business_name, business_type,
			country, location, bio, languages, categories, starting_price,
			license_number, license_country, years_experience, password_hash,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, a, query,
		a.ID,
		a.FullName,
		a.Email,
		a.Phone,
		a.BusinessName,
		a.BusinessType,
		a.Country,
		a.Location,
		a.Bio,
		a.Languages,
		a.Categories,
		a.StartingPrice,
		a.LicenseNumber,
		a.LicenseCountry,
		a.YearsExperience,
		a.PasswordHash,
		a.Status,
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM detective_applications WHERE id = $1`

	var a Application
	err := r.db.GetContext(ctx, &a, query, id)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("get application: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &a, nil
}

func (r *repository) ExistsPendingForEmail(ctx context.Context, email string) (bool, error) {
	query, args, err := core.Psql.Select("1").
		Prefix("SELECT EXISTS(").
		From("detective_applications").
		Where(sq.Eq{"email": email, "status": lifecycle.ReviewableStrings()}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build pending application sql: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check pending application: %w", err)
	}

	return exists, nil
}

// Transition moves the application to `to` only while it is still
// reviewable. Losing a race to another reviewer surfaces as
// lifecycle.ErrInvalidTransition.
func (r *repository) Transition(
	ctx context.Context,
	id string,
	to lifecycle.Status,
	reviewerID, notes string,
) error {
	query, args, err := core.Psql.Update("detective_applications").
		Set("status", to).
		Set("review_notes", notes).
		Set("reviewed_by", reviewerID).
		Set("reviewed_at", sq.Expr("NOW()")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": lifecycle.ReviewableStrings()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transition application sql: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition application: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transition application: %w", lifecycle.ErrInvalidTransition)
	}

	return nil
}

func (r *repository) SetOutcome(ctx context.Context, id, userID, detectiveID string) error {
	query := `
		UPDATE detective_applications
		SET user_id = $2, detective_id = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, userID, detectiveID)
	if err != nil {
		return fmt.Errorf("set application outcome: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set application outcome: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set application outcome: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Application, int, error) {
	params.Normalize()

	where := sq.And{}
	if params.Status != "" {
		where = append(where, sq.Eq{"status": params.Status})
	}
	if params.Email != "" {
		where = append(where, sq.Eq{"email": params.Email})
	}

	countQuery, countArgs, err := core.Psql.Select("COUNT(*)").
		From("detective_applications").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count applications sql: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	query, args, err := core.Psql.Select(applicationColumns).
		From("detective_applications").
		Where(where).
		OrderBy("created_at ASC").
		Limit(params.Limit()).
		Offset(params.OffsetU64()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list applications sql: %w", err)
	}

	var apps []Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	return apps, total, nil
}

func (r *repository) CountPending(ctx context.Context) (int, error) {
	query, args, err := core.Psql.Select("COUNT(*)").
		From("detective_applications").
		Where(sq.Eq{"status": lifecycle.ReviewableStrings()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count pending applications sql: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count pending applications: %w", err)
	}

	return count, nil
}
