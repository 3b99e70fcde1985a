// AngelaMos | 2026
// service_test.go

package detective

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
)

type stubRepo struct {
	mu         sync.Mutex
	detectives map[string]*Detective
	updates    []map[string]any
}

func newStubRepo(ds ...*Detective) *stubRepo {
	r := &stubRepo{detectives: make(map[string]*Detective)}
	for _, d := range ds {
		c := *d
		r.detectives[d.ID] = &c
	}
	return r
}

func (r *stubRepo) Create(ctx context.Context, d *Detective) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *d
	r.detectives[d.ID] = &c
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (*Detective, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.detectives[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *stubRepo) GetByUserID(ctx context.Context, userID string) (*Detective, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.detectives {
		if d.OwnerID() == userID {
			c := *d
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *stubRepo) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	_, err := r.GetByUserID(ctx, userID)
	return err == nil, nil
}

func (r *stubRepo) Update(ctx context.Context, id string, cols map[string]any) (*Detective, error) {
	r.mu.Lock()
	r.updates = append(r.updates, maps.Clone(cols))
	d, ok := r.detectives[id]
	if !ok {
		r.mu.Unlock()
		return nil, core.ErrNotFound
	}
	for k, v := range cols {
		switch k {
		case "bio":
			d.Bio = v.(string)
		case "phone":
			d.Phone = v.(string)
		case "whatsapp":
			d.WhatsApp = v.(string)
		case "recognitions":
			d.Recognitions = v.(Recognitions)
		case "is_verified":
			d.IsVerified = v.(bool)
		case "status":
			d.Status = Status(v.(string))
		case "subscription_plan":
			d.SubscriptionPlan = subscription.Plan(v.(string))
		}
	}
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *stubRepo) TransferOwnership(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.detectives[id]
	if !ok || !d.Claimable() {
		return ErrNotClaimable
	}
	d.UserID = &userID
	d.IsClaimed = true
	d.IsClaimable = false
	return nil
}

func (r *stubRepo) RestoreOwnership(ctx context.Context, id string, prev Ownership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.detectives[id]
	if !ok {
		return core.ErrNotFound
	}
	d.UserID = prev.UserID
	d.IsClaimed = prev.IsClaimed
	d.IsClaimable = prev.IsClaimable
	return nil
}

func (r *stubRepo) List(ctx context.Context, params ListParams) ([]Detective, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Detective
	for _, d := range r.detectives {
		if params.Status != "" && d.Status != params.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func ptr[T any](v T) *T { return &v }

var (
	owner  = &access.Principal{ID: "user-owner", Role: access.RoleDetective}
	rival  = &access.Principal{ID: "user-rival", Role: access.RoleDetective}
	buyer  = &access.Principal{ID: "user-buyer", Role: access.RoleUser}
	admin  = &access.Principal{ID: "user-admin", Role: access.RoleAdmin}
	awards = Recognitions{{Title: "PI of the Year", Issuer: "ABI", Year: 2023}}
)

func freeDetective() *Detective {
	return &Detective{
		ID:               "det-free",
		UserID:           ptr(owner.ID),
		BusinessName:     "Spade & Archer",
		Phone:            "+4930123456",
		Recognitions:     awards,
		SubscriptionPlan: subscription.PlanFree,
		Status:           StatusActive,
	}
}

func newTestService(ds ...*Detective) (*Service, *stubRepo) {
	repo := newStubRepo(ds...)
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestFreePlanSelfUpdateKeepsStoredRecognitions(t *testing.T) {
	svc, repo := newTestService(freeDetective())

	d, err := svc.Update(context.Background(), owner, "det-free", map[string]any{
		"bio":          "Discreet enquiries",
		"phone":        "+4930999999",
		"recognitions": []any{},
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, map[string]any{"bio": "Discreet enquiries"}, repo.updates[0])
	assert.Equal(t, awards, d.Recognitions)
	assert.Equal(t, "+4930123456", d.Phone)
}

func TestFreePlanGatedOnlyPayloadIsNoop(t *testing.T) {
	svc, repo := newTestService(freeDetective())

	d, err := svc.Update(context.Background(), owner, "det-free", map[string]any{
		"recognitions": []any{},
	})
	require.NoError(t, err)

	assert.Empty(t, repo.updates)
	assert.Equal(t, awards, d.Recognitions)
}

func TestProPlanSelfUpdateWritesContact(t *testing.T) {
	pro := freeDetective()
	pro.SubscriptionPlan = subscription.PlanPro
	svc, repo := newTestService(pro)

	d, err := svc.Update(context.Background(), owner, "det-free", map[string]any{
		"phone":        "+4930999999",
		"recognitions": []any{map[string]any{"title": "Award", "year": 2024}},
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, "+4930999999", d.Phone)
	require.Len(t, d.Recognitions, 1)
	assert.Equal(t, "Award", d.Recognitions[0].Title)
}

func TestSelfUpdateCannotTouchPrivilegedFields(t *testing.T) {
	svc, repo := newTestService(freeDetective())

	d, err := svc.Update(context.Background(), owner, "det-free", map[string]any{
		"is_verified":       true,
		"subscription_plan": "agency",
		"status":            "active",
		"is_claimed":        true,
		"earnings_total":    1e6,
	})
	require.NoError(t, err)

	assert.Empty(t, repo.updates)
	assert.False(t, d.IsVerified)
	assert.Equal(t, subscription.PlanFree, d.SubscriptionPlan)
}

func TestAdminUpdatesPrivilegedFields(t *testing.T) {
	svc, repo := newTestService(freeDetective())

	d, err := svc.Update(context.Background(), admin, "det-free", map[string]any{
		"is_verified":       true,
		"subscription_plan": "pro",
		"is_claimed":        false,
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, map[string]any{"is_verified": true, "subscription_plan": "pro"}, repo.updates[0])
	assert.True(t, d.IsVerified)
	assert.Equal(t, subscription.PlanPro, d.SubscriptionPlan)
}

func TestAdminUpdateRejectsBadPlan(t *testing.T) {
	svc, repo := newTestService(freeDetective())

	_, err := svc.Update(context.Background(), admin, "det-free", map[string]any{
		"subscription_plan": "platinum",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, repo.updates)
}

func TestUpdateOtherDetectiveIsNotOwner(t *testing.T) {
	svc, repo := newTestService(freeDetective())

	_, err := svc.Update(context.Background(), rival, "det-free", map[string]any{"bio": "mine now"})
	require.ErrorIs(t, err, access.ErrNotOwner)
	assert.Empty(t, repo.updates)

	_, err = svc.Update(context.Background(), buyer, "det-free", map[string]any{"bio": "x"})
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Update(context.Background(), nil, "det-free", map[string]any{"bio": "x"})
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUpdateUnclaimedProfileIsAdminOnly(t *testing.T) {
	unclaimed := freeDetective()
	unclaimed.UserID = nil
	unclaimed.IsClaimable = true
	svc, _ := newTestService(unclaimed)

	_, err := svc.Update(context.Background(), owner, "det-free", map[string]any{"bio": "x"})
	require.ErrorIs(t, err, access.ErrNotOwner)

	_, err = svc.Update(context.Background(), admin, "det-free", map[string]any{"bio": "x"})
	require.NoError(t, err)
}

func TestPublicViewMasksByPlan(t *testing.T) {
	d := freeDetective()

	public := ToResponse(d, buyer)
	assert.Empty(t, public.Phone)
	assert.Nil(t, public.Recognitions)
	assert.Nil(t, public.UserID)
	assert.Nil(t, public.EarningsTotal)

	own := ToResponse(d, owner)
	assert.Equal(t, d.Phone, own.Phone)
	assert.Len(t, own.Recognitions, 1)
	assert.NotNil(t, own.EarningsTotal)

	d.SubscriptionPlan = subscription.PlanAgency
	agency := ToResponse(d, nil)
	assert.Equal(t, d.Phone, agency.Phone)
	assert.Len(t, agency.Recognitions, 1)
}

func TestGetHidesInactiveFromPublic(t *testing.T) {
	d := freeDetective()
	d.Status = StatusSuspended
	svc, _ := newTestService(d)

	_, err := svc.Get(context.Background(), buyer, "det-free")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(context.Background(), owner, "det-free")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), admin, "det-free")
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()
	req := CreateDetectiveRequest{BusinessName: "Marlowe Investigations", Country: "US"}

	_, err := svc.Create(context.Background(), buyer, req)
	require.ErrorIs(t, err, core.ErrForbidden)

	d, err := svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, d.OwnerID())
	assert.Equal(t, StatusPending, d.Status)
	assert.False(t, d.IsClaimable)
	assert.Equal(t, subscription.PlanFree, d.SubscriptionPlan)

	_, err = svc.Create(context.Background(), owner, req)
	require.ErrorIs(t, err, core.ErrConflict)
}

func TestCreateUnclaimed(t *testing.T) {
	svc, _ := newTestService()
	req := CreateUnclaimedRequest{
		CreateDetectiveRequest: CreateDetectiveRequest{BusinessName: "Pinkerton", Country: "us"},
		IsVerified:             true,
	}

	_, err := svc.CreateUnclaimed(context.Background(), owner, req)
	require.ErrorIs(t, err, core.ErrForbidden)

	d, err := svc.CreateUnclaimed(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Nil(t, d.UserID)
	assert.True(t, d.Claimable())
	assert.True(t, d.IsVerified)
	assert.Equal(t, StatusActive, d.Status)
	assert.Equal(t, "US", d.Country)
}

func TestPatchUppercasesCountry(t *testing.T) {
	country := "de"
	cols := Patch{Country: &country}.Columns()

	assert.Equal(t, "DE", cols["country"])
}

func TestPlan(t *testing.T) {
	svc, _ := newTestService(freeDetective())

	plan, err := svc.Plan(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanFree, plan.Plan)
	assert.Equal(t, 1, plan.Features.MaxCategories)

	_, err = svc.Plan(context.Background(), buyer)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestListForcesActiveForPublic(t *testing.T) {
	suspended := freeDetective()
	suspended.ID = "det-suspended"
	suspended.UserID = ptr("someone")
	suspended.Status = StatusSuspended
	svc, _ := newTestService(freeDetective(), suspended)

	ds, total, err := svc.List(context.Background(), nil, ListParams{Status: StatusSuspended})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "det-free", ds[0].ID)

	_, total, err = svc.List(context.Background(), admin, ListParams{Status: StatusSuspended})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
