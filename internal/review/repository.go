// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type Repository interface {
	Create(ctx context.Context, rv *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, id string, cols map[string]any) (*Review, error)
	List(ctx context.Context, params ListParams) ([]Review, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create inserts rv. A user may review a service once; a second review
// surfaces as core.ErrDuplicateKey.
func (r *repository) Create(ctx context.Context, rv *Review) error {
	query := `
		INSERT INTO reviews (id, service_id, user_id, rating, comment, is_published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, rv, query,
		rv.ID,
		rv.ServiceID,
		rv.UserID,
		rv.Rating,
		rv.Comment,
		rv.IsPublished,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create review: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	var rv Review
	err := r.db.GetContext(ctx, &rv, query, id)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("get review: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &rv, nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	cols map[string]any,
) (*Review, error) {
	query, args, err := core.Psql.Update("reviews").
		SetMap(cols).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + reviewColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update review sql: %w", err)
	}

	var rv Review
	err = r.db.GetContext(ctx, &rv, query, args...)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("update review: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	return &rv, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Review, int, error) {
	params.Normalize()

	where := sq.And{}
	if params.ServiceID != "" {
		where = append(where, sq.Eq{"service_id": params.ServiceID})
	}
	if params.UserID != "" {
		where = append(where, sq.Eq{"user_id": params.UserID})
	}
	if params.PublishedOnly {
		where = append(where, sq.Eq{"is_published": true})
	}

	countQuery, countArgs, err := core.Psql.Select("COUNT(*)").
		From("reviews").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count reviews sql: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query, args, err := core.Psql.Select(reviewColumns).
		From("reviews").
		Where(where).
		OrderBy("created_at DESC").
		Limit(params.Limit()).
		Offset(params.OffsetU64()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reviews sql: %w", err)
	}

	var reviews []Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}
