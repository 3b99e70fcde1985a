// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Update(ctx context.Context, id string, cols map[string]any) (*Category, error)
	List(ctx context.Context, activeOnly bool) ([]Category, error)
}

type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id string) (*Service, error)
	Update(ctx context.Context, id string, cols map[string]any) (*Service, error)
	List(ctx context.Context, params ListServicesParams) ([]Service, int, error)
	ActiveCategories(ctx context.Context, detectiveID, excludeID string) ([]string, error)
}

type categoryRepository struct {
	db core.DBTX
}

func NewCategoryRepository(db core.DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO service_categories (id, slug, name, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, c, query,
		c.ID,
		c.Slug,
		c.Name,
		c.Description,
		c.IsActive,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	return r.getOne(ctx, "get category", "id", id)
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.getOne(ctx, "get category by slug", "slug", slug)
}

func (r *categoryRepository) getOne(
	ctx context.Context,
	op, column, value string,
) (*Category, error) {
	query, args, err := core.Psql.Select(categoryColumns).
		From("service_categories").
		Where(sq.Eq{column: value}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s sql: %w", op, err)
	}

	var c Category
	err = r.db.GetContext(ctx, &c, query, args...)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

func (r *categoryRepository) Update(
	ctx context.Context,
	id string,
	cols map[string]any,
) (*Category, error) {
	query, args, err := core.Psql.Update("service_categories").
		SetMap(cols).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + categoryColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update category sql: %w", err)
	}

	var c Category
	err = r.db.GetContext(ctx, &c, query, args...)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	return &c, nil
}

func (r *categoryRepository) List(
	ctx context.Context,
	activeOnly bool,
) ([]Category, error) {
	builder := core.Psql.Select(categoryColumns).
		From("service_categories").
		OrderBy("name ASC")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories sql: %w", err)
	}

	var categories []Category
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

type serviceRepository struct {
	db core.DBTX
}

func NewServiceRepository(db core.DBTX) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, s *Service) error {
	query := `
		INSERT INTO services (
			id, detective_id, category, title, description,
			base_price, offer_price, images, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, s, query,
		s.ID,
		s.DetectiveID,
		s.Category,
		s.Title,
		s.Description,
		s.BasePrice,
		s.OfferPrice,
		s.Images,
		s.IsActive,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	return nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	var s Service
	err := r.db.GetContext(ctx, &s, query, id)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("get service: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}

	return &s, nil
}

func (r *serviceRepository) Update(
	ctx context.Context,
	id string,
	cols map[string]any,
) (*Service, error) {
	query, args, err := core.Psql.Update("services").
		SetMap(cols).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + serviceColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update service sql: %w", err)
	}

	var s Service
	err = r.db.GetContext(ctx, &s, query, args...)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("update service: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	return &s, nil
}

func (r *serviceRepository) List(
	ctx context.Context,
	params ListServicesParams,
) ([]Service, int, error) {
	params.Normalize()

	where := sq.And{}

	if params.ActiveOnly {
		where = append(where, sq.Eq{"is_active": true})
	}
	if params.Search != "" {
		pattern := "%" + core.EscapeLike(params.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if params.Category != "" {
		where = append(where, sq.Eq{"category": params.Category})
	}
	if params.DetectiveID != "" {
		where = append(where, sq.Eq{"detective_id": params.DetectiveID})
	}
	if params.MinPrice != nil {
		where = append(where, sq.GtOrEq{"COALESCE(offer_price, base_price)": *params.MinPrice})
	}
	if params.MaxPrice != nil {
		where = append(where, sq.LtOrEq{"COALESCE(offer_price, base_price)": *params.MaxPrice})
	}

	countQuery, countArgs, err := core.Psql.Select("COUNT(*)").
		From("services").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count services sql: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}

	query, args, err := core.Psql.Select(serviceColumns).
		From("services").
		Where(where).
		OrderBy("created_at DESC").
		Limit(params.Limit()).
		Offset(params.OffsetU64()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list services sql: %w", err)
	}

	var services []Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}

	return services, total, nil
}

// ActiveCategories returns the distinct categories of a detective's active
// services, ignoring excludeID so an update can be checked against the
// others.
func (r *serviceRepository) ActiveCategories(
	ctx context.Context,
	detectiveID, excludeID string,
) ([]string, error) {
	builder := core.Psql.Select("DISTINCT category").
		From("services").
		Where(sq.Eq{"detective_id": detectiveID, "is_active": true})
	if excludeID != "" {
		builder = builder.Where(sq.NotEq{"id": excludeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active categories sql: %w", err)
	}

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("active categories: %w", err)
	}

	return categories, nil
}
