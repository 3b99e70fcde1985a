// AngelaMos | 2026
// catalog_test.go

package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/detective"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
)

type stubServices struct {
	mu       sync.Mutex
	services map[string]*Service
	updates  []map[string]any
}

func (s *stubServices) Create(ctx context.Context, svc *Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *svc
	s.services[svc.ID] = &c
	return nil
}

func (s *stubServices) GetByID(ctx context.Context, id string) (*Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *svc
	return &c, nil
}

func (s *stubServices) Update(ctx context.Context, id string, cols map[string]any) (*Service, error) {
	s.mu.Lock()
	s.updates = append(s.updates, maps.Clone(cols))
	svc, ok := s.services[id]
	if !ok {
		s.mu.Unlock()
		return nil, core.ErrNotFound
	}
	for k, v := range cols {
		switch k {
		case "title":
			svc.Title = v.(string)
		case "category":
			svc.Category = v.(string)
		case "is_active":
			svc.IsActive = v.(bool)
		case "base_price":
			svc.BasePrice = v.(float64)
		}
	}
	s.mu.Unlock()
	return s.GetByID(ctx, id)
}

func (s *stubServices) List(ctx context.Context, params ListServicesParams) ([]Service, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Service
	for _, svc := range s.services {
		if params.ActiveOnly && !svc.IsActive {
			continue
		}
		out = append(out, *svc)
	}
	return out, len(out), nil
}

func (s *stubServices) ActiveCategories(ctx context.Context, detectiveID, excludeID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	for _, svc := range s.services {
		if svc.DetectiveID == detectiveID && svc.IsActive && svc.ID != excludeID {
			seen[svc.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

type stubCategories struct {
	categories map[string]*Category
}

func (s *stubCategories) Create(ctx context.Context, c *Category) error {
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return core.ErrDuplicateKey
		}
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *stubCategories) GetByID(ctx context.Context, id string) (*Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubCategories) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *stubCategories) Update(ctx context.Context, id string, cols map[string]any) (*Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if v, ok := cols["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := cols["is_active"]; ok {
		c.IsActive = v.(bool)
	}
	return s.GetByID(ctx, id)
}

func (s *stubCategories) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	var out []Category
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

type stubDetectives struct {
	detectives map[string]*detective.Detective
}

func (s *stubDetectives) GetByID(ctx context.Context, id string) (*detective.Detective, error) {
	d, ok := s.detectives[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return d, nil
}

func (s *stubDetectives) GetByUserID(ctx context.Context, userID string) (*detective.Detective, error) {
	for _, d := range s.detectives {
		if d.OwnerID() == userID {
			return d, nil
		}
	}
	return nil, core.ErrNotFound
}

func ptr[T any](v T) *T { return &v }

const (
	svcOneID = "9c4e2a17-5b3d-4f08-a6e1-7d2c8b0f3e01"
	svcTwoID = "9c4e2a17-5b3d-4f08-a6e1-7d2c8b0f3e02"
)

var (
	owner = &access.Principal{ID: "user-owner", Role: access.RoleDetective}
	rival = &access.Principal{ID: "user-rival", Role: access.RoleDetective}
	buyer = &access.Principal{ID: "user-buyer", Role: access.RoleUser}
	admin = &access.Principal{ID: "user-admin", Role: access.RoleAdmin}
)

type fixture struct {
	catalog    *Catalog
	services   *stubServices
	categories *stubCategories
	detective  *detective.Detective
}

func newFixture(plan subscription.Plan) *fixture {
	d := &detective.Detective{
		ID:               "det-1",
		UserID:           ptr(owner.ID),
		SubscriptionPlan: plan,
		Status:           detective.StatusActive,
	}

	services := &stubServices{services: map[string]*Service{
		svcOneID: {
			ID:          svcOneID,
			DetectiveID: d.ID,
			Category:    "surveillance",
			Title:       "Surveillance",
			BasePrice:   100,
			IsActive:    true,
		},
	}}

	categories := &stubCategories{categories: map[string]*Category{
		"cat-1": {ID: "cat-1", Slug: "surveillance", Name: "Surveillance", IsActive: true},
		"cat-2": {ID: "cat-2", Slug: "background-checks", Name: "Background checks", IsActive: true},
		"cat-3": {ID: "cat-3", Slug: "cyber", Name: "Cyber", IsActive: true},
		"cat-4": {ID: "cat-4", Slug: "retired", Name: "Retired", IsActive: false},
	}}

	detectives := &stubDetectives{detectives: map[string]*detective.Detective{d.ID: d}}

	return &fixture{
		catalog: NewCatalog(
			services,
			categories,
			detectives,
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		),
		services:   services,
		categories: categories,
		detective:  d,
	}
}

func newServiceRequest(category string) CreateServiceRequest {
	return CreateServiceRequest{
		Category:  category,
		Title:     "Asset tracing",
		BasePrice: 250,
	}
}

func TestCreateServiceSameCategoryOnFreePlan(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	s, err := f.catalog.CreateService(context.Background(), owner, newServiceRequest("surveillance"))
	require.NoError(t, err)

	assert.Equal(t, "det-1", s.DetectiveID)
	assert.True(t, s.IsActive)
}

func TestCreateServiceSecondCategoryOnFreePlanHitsLimit(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	_, err := f.catalog.CreateService(context.Background(), owner, newServiceRequest("cyber"))

	require.ErrorIs(t, err, ErrCategoryLimit)
	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CATEGORY_LIMIT", appErr.Code)
	assert.Len(t, f.services.services, 1)
}

func TestCreateServiceProPlanAllowsThreeCategories(t *testing.T) {
	f := newFixture(subscription.PlanPro)
	ctx := context.Background()

	_, err := f.catalog.CreateService(ctx, owner, newServiceRequest("cyber"))
	require.NoError(t, err)
	_, err = f.catalog.CreateService(ctx, owner, newServiceRequest("background-checks"))
	require.NoError(t, err)

	f.categories.categories["cat-5"] = &Category{ID: "cat-5", Slug: "fraud", IsActive: true}
	_, err = f.catalog.CreateService(ctx, owner, newServiceRequest("fraud"))
	require.ErrorIs(t, err, ErrCategoryLimit)
}

func TestCreateServiceRejectsUnknownAndInactiveCategory(t *testing.T) {
	f := newFixture(subscription.PlanAgency)

	_, err := f.catalog.CreateService(context.Background(), owner, newServiceRequest("nope"))
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.catalog.CreateService(context.Background(), owner, newServiceRequest("retired"))
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateServiceRejectsOfferAboveBase(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	req := newServiceRequest("surveillance")
	req.OfferPrice = ptr(300.0)

	_, err := f.catalog.CreateService(context.Background(), owner, req)
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateServiceRequiresDetectiveRole(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	_, err := f.catalog.CreateService(context.Background(), buyer, newServiceRequest("surveillance"))
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.catalog.CreateService(context.Background(), nil, newServiceRequest("surveillance"))
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUpdateServiceMovingCategoryOnFreePlan(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	s, err := f.catalog.UpdateService(context.Background(), owner, svcOneID, map[string]any{
		"category": "cyber",
	})
	require.NoError(t, err)
	assert.Equal(t, "cyber", s.Category)
}

func TestUpdateServiceReactivationChecksLimit(t *testing.T) {
	f := newFixture(subscription.PlanFree)
	f.services.services[svcTwoID] = &Service{
		ID:          svcTwoID,
		DetectiveID: "det-1",
		Category:    "cyber",
		BasePrice:   50,
	}

	_, err := f.catalog.UpdateService(context.Background(), owner, svcTwoID, map[string]any{
		"is_active": true,
	})

	require.ErrorIs(t, err, ErrCategoryLimit)
	assert.Empty(t, f.services.updates)
}

func TestUpdateServiceDropsUnknownFields(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	_, err := f.catalog.UpdateService(context.Background(), owner, svcOneID, map[string]any{
		"title":        "Covert surveillance",
		"detective_id": "det-other",
	})
	require.NoError(t, err)

	require.Len(t, f.services.updates, 1)
	assert.Equal(t, map[string]any{"title": "Covert surveillance"}, f.services.updates[0])
}

func TestUpdateServiceOwnership(t *testing.T) {
	f := newFixture(subscription.PlanFree)
	payload := map[string]any{"title": "Hijacked listing"}

	_, err := f.catalog.UpdateService(context.Background(), rival, svcOneID, payload)
	require.ErrorIs(t, err, access.ErrNotOwner)

	_, err = f.catalog.UpdateService(context.Background(), buyer, svcOneID, payload)
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.catalog.UpdateService(context.Background(), admin, svcOneID, payload)
	require.NoError(t, err)
}

func TestGetServiceHidesInactiveFromPublic(t *testing.T) {
	f := newFixture(subscription.PlanFree)
	f.services.services[svcOneID].IsActive = false

	_, err := f.catalog.GetService(context.Background(), nil, svcOneID)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.catalog.GetService(context.Background(), rival, svcOneID)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.catalog.GetService(context.Background(), owner, svcOneID)
	require.NoError(t, err)

	_, err = f.catalog.GetService(context.Background(), admin, svcOneID)
	require.NoError(t, err)
}

func TestListCategoriesActiveOnlyForPublic(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	public, err := f.catalog.ListCategories(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, public, 3)

	all, err := f.catalog.ListCategories(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCategoryWritesAreAdminOnly(t *testing.T) {
	f := newFixture(subscription.PlanFree)
	ctx := context.Background()

	_, err := f.catalog.CreateCategory(ctx, owner, CreateCategoryRequest{Slug: "fraud", Name: "Fraud"})
	require.ErrorIs(t, err, core.ErrForbidden)

	c, err := f.catalog.CreateCategory(ctx, admin, CreateCategoryRequest{Slug: "fraud", Name: "Fraud"})
	require.NoError(t, err)
	assert.True(t, c.IsActive)

	_, err = f.catalog.UpdateCategory(ctx, owner, "cat-1", map[string]any{"name": "Watching"})
	require.ErrorIs(t, err, core.ErrForbidden)

	updated, err := f.catalog.UpdateCategory(ctx, admin, "cat-1", map[string]any{
		"name": "Watching",
		"slug": "watching",
	})
	require.NoError(t, err)
	assert.Equal(t, "Watching", updated.Name)
	assert.Equal(t, "surveillance", updated.Slug)
}

func TestRequireActiveCategories(t *testing.T) {
	f := newFixture(subscription.PlanFree)

	require.NoError(t, f.catalog.RequireActiveCategories(context.Background(), []string{"cyber", "surveillance"}))
	require.ErrorIs(t,
		f.catalog.RequireActiveCategories(context.Background(), []string{"cyber", "retired"}),
		core.ErrInvalidInput,
	)
}
