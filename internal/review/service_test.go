// AngelaMos | 2026
// service_test.go

package review

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/catalog"
	"github.com/carterperez-dev/finddetectives/internal/core"
)

const (
	serviceID   = "6f1c1f7e-3f0a-4c53-9b7e-0a3c2f6d9e11"
	reviewOneID = "6f1c1f7e-3f0a-4c53-9b7e-0a3c2f6d9e21"
	reviewTwoID = "6f1c1f7e-3f0a-4c53-9b7e-0a3c2f6d9e22"
)

type stubRepo struct {
	reviews map[string]*Review
	updates []map[string]any
}

func (r *stubRepo) Create(ctx context.Context, rv *Review) error {
	for _, existing := range r.reviews {
		if existing.ServiceID == rv.ServiceID && existing.UserID == rv.UserID {
			return core.ErrDuplicateKey
		}
	}
	c := *rv
	r.reviews[rv.ID] = &c
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (*Review, error) {
	rv, ok := r.reviews[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *rv
	return &c, nil
}

func (r *stubRepo) Update(ctx context.Context, id string, cols map[string]any) (*Review, error) {
	r.updates = append(r.updates, maps.Clone(cols))
	rv, ok := r.reviews[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if v, ok := cols["rating"]; ok {
		rv.Rating = v.(int)
	}
	if v, ok := cols["comment"]; ok {
		rv.Comment = v.(string)
	}
	if v, ok := cols["is_published"]; ok {
		rv.IsPublished = v.(bool)
	}
	return r.GetByID(ctx, id)
}

func (r *stubRepo) List(ctx context.Context, params ListParams) ([]Review, int, error) {
	var out []Review
	for _, rv := range r.reviews {
		if params.PublishedOnly && !rv.IsPublished {
			continue
		}
		out = append(out, *rv)
	}
	return out, len(out), nil
}

type stubServices map[string]*catalog.Service

func (s stubServices) GetByID(ctx context.Context, id string) (*catalog.Service, error) {
	svc, ok := s[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return svc, nil
}

var (
	author    = &access.Principal{ID: "user-author", Role: access.RoleUser}
	other     = &access.Principal{ID: "user-other", Role: access.RoleUser}
	detective = &access.Principal{ID: "user-det", Role: access.RoleDetective}
	admin     = &access.Principal{ID: "user-admin", Role: access.RoleAdmin}
)

func newTestService() (*Service, *stubRepo) {
	repo := &stubRepo{reviews: map[string]*Review{
		reviewOneID: {ID: reviewOneID, ServiceID: serviceID, UserID: author.ID, Rating: 4, IsPublished: true},
		reviewTwoID: {ID: reviewTwoID, ServiceID: serviceID, UserID: "user-x", Rating: 1, IsPublished: false},
	}}
	services := stubServices{
		serviceID: {ID: serviceID, IsActive: true},
	}
	return NewService(repo, services, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestCreateReview(t *testing.T) {
	svc, _ := newTestService()

	rv, err := svc.Create(context.Background(), other, CreateReviewRequest{
		ServiceID: serviceID,
		Rating:    5,
		Comment:   "Found my cat",
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, rv.UserID)
	assert.True(t, rv.IsPublished)
}

func TestCreateReviewTwiceConflicts(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), author, CreateReviewRequest{ServiceID: serviceID, Rating: 3})

	require.ErrorIs(t, err, core.ErrConflict)
}

func TestCreateReviewRequiresUserRole(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), detective, CreateReviewRequest{ServiceID: serviceID, Rating: 5})
	require.ErrorIs(t, err, core.ErrForbidden)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), other, CreateReviewRequest{ServiceID: serviceID, Rating: 9})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(context.Background(), other, CreateReviewRequest{
		ServiceID: "0b8f4a4e-0000-4000-8000-000000000000",
		Rating:    5,
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateReviewWhitelist(t *testing.T) {
	svc, repo := newTestService()

	rv, err := svc.Update(context.Background(), author, reviewOneID, map[string]any{
		"rating":     2,
		"user_id":    other.ID,
		"service_id": "elsewhere",
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, map[string]any{"rating": 2}, repo.updates[0])
	assert.Equal(t, author.ID, rv.UserID)
	assert.Equal(t, 2, rv.Rating)
}

func TestUpdateReviewOwnership(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Update(context.Background(), other, reviewOneID, map[string]any{"rating": 1})
	require.ErrorIs(t, err, access.ErrNotOwner)
	assert.Empty(t, repo.updates)

	rv, err := svc.Update(context.Background(), admin, reviewOneID, map[string]any{"is_published": false})
	require.NoError(t, err)
	assert.False(t, rv.IsPublished)
}

func TestListReviewsPublishedOnlyForPublic(t *testing.T) {
	svc, _ := newTestService()

	public, _, err := svc.List(context.Background(), nil, ListParams{ServiceID: serviceID})
	require.NoError(t, err)
	assert.Len(t, public, 1)

	all, _, err := svc.List(context.Background(), admin, ListParams{ServiceID: serviceID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
