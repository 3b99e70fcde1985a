// AngelaMos | 2026
// service_test.go

package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

var errInjected = errors.New("injected failure")

// world is an in-memory database. The fake transactor snapshots it before
// running a transaction body and restores it when the body fails.
type world struct {
	mu          sync.Mutex
	apps        map[string]Application
	users       map[string]user.User
	detectives  map[string]detective.Detective
	services    map[string]catalog.Service
	transitions int
	txCalls     int
	failService bool
}

func newWorld() *world {
	return &world{
		apps:       map[string]Application{},
		users:      map[string]user.User{},
		detectives: map[string]detective.Detective{},
		services:   map[string]catalog.Service{},
	}
}

type snapshot struct {
	apps       map[string]Application
	users      map[string]user.User
	detectives map[string]detective.Detective
	services   map[string]catalog.Service
}

func (w *world) snapshot() snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return snapshot{
		apps:       maps.Clone(w.apps),
		users:      maps.Clone(w.users),
		detectives: maps.Clone(w.detectives),
		services:   maps.Clone(w.services),
	}
}

func (w *world) restore(s snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.apps = s.apps
	w.users = s.users
	w.detectives = s.detectives
	w.services = s.services
}

type fakeTx struct {
	w *world
}

func (t fakeTx) WithinTx(ctx context.Context, fn func(tx core.DBTX) error) error {
	t.w.mu.Lock()
	t.w.txCalls++
	t.w.mu.Unlock()

	snap := t.w.snapshot()
	if err := fn(nil); err != nil {
		t.w.restore(snap)
		return err
	}
	return nil
}

type appRepo struct {
	w *world
}

func (r appRepo) Create(ctx context.Context, a *Application) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	r.w.apps[a.ID] = *a
	return nil
}

func (r appRepo) GetByID(ctx context.Context, id string) (*Application, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	a, ok := r.w.apps[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &a, nil
}

func (r appRepo) ExistsPendingForEmail(ctx context.Context, email string) (bool, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	for _, a := range r.w.apps {
		if a.Email == email && !a.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r appRepo) Transition(
	ctx context.Context,
	id string,
	to lifecycle.Status,
	reviewerID, notes string,
) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	a, ok := r.w.apps[id]
	if !ok || a.Status.IsTerminal() {
		return lifecycle.ErrInvalidTransition
	}
	r.w.transitions++
	a.Status = to
	a.ReviewedBy = &reviewerID
	a.ReviewNotes = notes
	r.w.apps[id] = a
	return nil
}

func (r appRepo) SetOutcome(ctx context.Context, id, userID, detectiveID string) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	a := r.w.apps[id]
	a.UserID = &userID
	a.DetectiveID = &detectiveID
	r.w.apps[id] = a
	return nil
}

func (r appRepo) List(ctx context.Context, params ListParams) ([]Application, int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	var out []Application
	for _, a := range r.w.apps {
		if params.Status == "" || a.Status == params.Status {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (r appRepo) CountPending(ctx context.Context) (int, error) {
	_, n, err := r.List(ctx, ListParams{Status: lifecycle.StatusPending})
	return n, err
}

type userStore struct{ w *world }

func (s userStore) Create(ctx context.Context, u *user.User) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, existing := range s.w.users {
		if existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}
	s.w.users[u.ID] = *u
	return nil
}

type detectiveStore struct{ w *world }

func (s detectiveStore) Create(ctx context.Context, d *detective.Detective) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.detectives[d.ID] = *d
	return nil
}

type serviceStore struct{ w *world }

func (s serviceStore) Create(ctx context.Context, svc *catalog.Service) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.w.failService {
		return errInjected
	}
	s.w.services[svc.ID] = *svc
	return nil
}

type knownCategories map[string]bool

func (k knownCategories) RequireActiveCategories(ctx context.Context, slugs []string) error {
	for _, slug := range slugs {
		if !k[slug] {
			return core.ValidationError("unknown category " + slug)
		}
	}
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

var (
	admin     = &access.Principal{ID: "user-admin", Role: access.RoleAdmin}
	applicant = &access.Principal{ID: "user-someone", Role: access.RoleUser}
)

type env struct {
	svc       *Service
	world     *world
	publisher *capturePublisher
	metrics   *metrics.Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()

	w := newWorld()
	registry := prometheus.NewRegistry()
	m, err := metrics.New(metrics.Options{Registerer: registry, Gatherer: registry})
	require.NoError(t, err)

	pub := &capturePublisher{}
	stores := func(core.DBTX) Stores {
		return Stores{
			Applications: appRepo{w},
			Users:        userStore{w},
			Detectives:   detectiveStore{w},
			Services:     serviceStore{w},
		}
	}

	svc := NewService(
		appRepo{w},
		fakeTx{w},
		stores,
		knownCategories{"surveillance": true, "cyber": true},
		core.PasswordPolicy{MinLength: 8},
		pub,
		m,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return &env{svc: svc, world: w, publisher: pub, metrics: m}
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		FullName:      "Sam Spade",
		Email:         "Sam@Spade.example",
		BusinessName:  "Spade Investigations",
		BusinessType:  "agency",
		Country:       "us",
		Categories:    []string{"surveillance", "cyber"},
		StartingPrice: ptr(150.0),
		Password:      "falcon-statuette-1941",
	}
}

func ptr[T any](v T) *T { return &v }

func (e *env) submit(t *testing.T, req SubmitRequest) *Application {
	t.Helper()
	app, err := e.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	return app
}

func TestSubmitStoresPendingApplication(t *testing.T) {
	e := newEnv(t)

	app := e.submit(t, validRequest())

	assert.Equal(t, lifecycle.StatusPending, app.Status)
	assert.Equal(t, "sam@spade.example", app.Email)
	assert.Equal(t, "US", app.Country)
	require.NotNil(t, app.PasswordHash)
	assert.NotEqual(t, "falcon-statuette-1941", *app.PasswordHash)
	assert.Equal(t, events.ApplicationSubmitted, e.publisher.last().Type)
}

func TestSubmitRejectsSecondPendingApplication(t *testing.T) {
	e := newEnv(t)
	e.submit(t, validRequest())

	_, err := e.svc.Submit(context.Background(), validRequest())

	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "APPLICATION_PENDING", appErr.Code)
}

func TestSubmitValidatesCategories(t *testing.T) {
	e := newEnv(t)

	req := validRequest()
	req.Categories = []string{"astrology"}
	_, err := e.svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, core.ErrInvalidInput)

	req.Categories = []string{"cyber", "cyber"}
	_, err = e.svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Empty(t, e.world.apps)
}

func TestApproveProvisionsAccountProfileAndServices(t *testing.T) {
	e := newEnv(t)
	app := e.submit(t, validRequest())

	approved, err := e.svc.Review(context.Background(), admin, app.ID, ReviewRequest{
		Status:      lifecycle.StatusApproved,
		ReviewNotes: "licence verified",
	})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusApproved, approved.Status)
	require.NotNil(t, approved.UserID)
	require.NotNil(t, approved.DetectiveID)

	u := e.world.users[*approved.UserID]
	assert.Equal(t, access.RoleDetective, u.Role)
	assert.Equal(t, *app.PasswordHash, u.PasswordHash)

	d := e.world.detectives[*approved.DetectiveID]
	assert.Equal(t, u.ID, d.OwnerID())
	assert.Equal(t, subscription.PlanFree, d.SubscriptionPlan)
	assert.Equal(t, detective.StatusActive, d.Status)
	assert.False(t, d.Claimable())

	require.Len(t, e.world.services, 1, "free plan caps starter services at one category")
	for _, svc := range e.world.services {
		assert.Equal(t, "surveillance", svc.Category)
		assert.InDelta(t, 150.0, svc.BasePrice, 0)
		assert.Equal(t, d.ID, svc.DetectiveID)
	}

	ev := e.publisher.last()
	assert.Equal(t, events.ApplicationApproved, ev.Type)
	assert.Equal(t, admin.ID, ev.ActorID)
	assert.Equal(t, false, ev.Payload.(map[string]any)["needs_password"])

	assert.InDelta(t, 1, testutil.ToFloat64(
		e.metrics.Transitions.WithLabelValues(metrics.WorkflowApplication, "approved"),
	), 0)
}

func TestApproveWithoutPasswordUsesTemporaryCredential(t *testing.T) {
	e := newEnv(t)
	req := validRequest()
	req.Password = ""
	req.StartingPrice = nil
	app := e.submit(t, req)

	approved, err := e.svc.Review(context.Background(), admin, app.ID, ReviewRequest{Status: lifecycle.StatusApproved})
	require.NoError(t, err)

	assert.NotEmpty(t, e.world.users[*approved.UserID].PasswordHash)
	assert.Empty(t, e.world.services)
	assert.Equal(t, true, e.publisher.last().Payload.(map[string]any)["needs_password"])
}

func TestApproveRollsBackEverythingOnFailure(t *testing.T) {
	e := newEnv(t)
	app := e.submit(t, validRequest())
	e.world.failService = true

	_, err := e.svc.Review(context.Background(), admin, app.ID, ReviewRequest{Status: lifecycle.StatusApproved})
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, lifecycle.StatusPending, e.world.apps[app.ID].Status)
	assert.Nil(t, e.world.apps[app.ID].UserID)
	assert.Empty(t, e.world.users)
	assert.Empty(t, e.world.detectives)
	assert.Empty(t, e.world.services)
}

func TestApproveWithRegisteredEmailConflicts(t *testing.T) {
	e := newEnv(t)
	app := e.submit(t, validRequest())
	e.world.users["existing"] = user.User{ID: "existing", Email: "sam@spade.example", Role: access.RoleUser}

	_, err := e.svc.Review(context.Background(), admin, app.ID, ReviewRequest{Status: lifecycle.StatusApproved})

	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "EMAIL_EXISTS", appErr.Code)
	assert.Equal(t, lifecycle.StatusPending, e.world.apps[app.ID].Status)
	assert.Empty(t, e.world.detectives)
}

func TestTerminalApplicationIsLocked(t *testing.T) {
	for _, terminal := range []lifecycle.Status{lifecycle.StatusApproved, lifecycle.StatusRejected} {
		t.Run(string(terminal), func(t *testing.T) {
			e := newEnv(t)
			e.world.apps["app-1"] = Application{ID: "app-1", Email: "x@y.example", Status: terminal}

			for _, to := range []lifecycle.Status{
				lifecycle.StatusPending,
				lifecycle.StatusUnderReview,
				lifecycle.StatusApproved,
				lifecycle.StatusRejected,
			} {
				_, err := e.svc.Review(context.Background(), admin, "app-1", ReviewRequest{Status: to})
				require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
			}

			assert.Zero(t, e.world.transitions)
			assert.Zero(t, e.world.txCalls)
			assert.Equal(t, terminal, e.world.apps["app-1"].Status)
			assert.Empty(t, e.world.users)
		})
	}
}

func TestReviewRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	app := e.submit(t, validRequest())

	_, err := e.svc.Review(context.Background(), applicant, app.ID, ReviewRequest{Status: lifecycle.StatusApproved})
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = e.svc.Review(context.Background(), nil, app.ID, ReviewRequest{Status: lifecycle.StatusApproved})
	require.ErrorIs(t, err, core.ErrUnauthorized)

	assert.Zero(t, e.world.transitions)
	assert.Empty(t, e.world.users)
}

func TestRejectThenApproveIsInvalid(t *testing.T) {
	e := newEnv(t)
	app := e.submit(t, validRequest())
	ctx := context.Background()

	_, err := e.svc.Review(ctx, admin, app.ID, ReviewRequest{Status: lifecycle.StatusUnderReview})
	require.NoError(t, err)

	rejected, err := e.svc.Review(ctx, admin, app.ID, ReviewRequest{Status: lifecycle.StatusRejected, ReviewNotes: "no licence"})
	require.NoError(t, err)
	assert.Equal(t, "no licence", rejected.ReviewNotes)
	assert.Equal(t, events.ApplicationRejected, e.publisher.last().Type)

	_, err = e.svc.Review(ctx, admin, app.ID, ReviewRequest{Status: lifecycle.StatusApproved})
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Empty(t, e.world.users)
}

func TestReviewUnknownStatusIsInvalidInput(t *testing.T) {
	e := newEnv(t)
	app := e.submit(t, validRequest())

	_, err := e.svc.Review(context.Background(), admin, app.ID, ReviewRequest{Status: "archived"})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}
