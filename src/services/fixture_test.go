package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/backend/gormstore"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

var errInjected = errors.New("injected failure")

// clock advances one second on every reading so rows get distinct timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// faultyBackend wraps a backend and fails the calls its hooks reject.
type faultyBackend struct {
	backend.Backend
	mu         sync.Mutex
	failUpdate func(table string, filter backend.Filter) error
	failProc   func(name string) error
}

func (f *faultyBackend) UpdateRows(ctx context.Context, table string, filter backend.Filter, patch map[string]any) (int64, error) {
	f.mu.Lock()
	hook := f.failUpdate
	f.mu.Unlock()
	if hook != nil {
		if err := hook(table, filter); err != nil {
			return 0, err
		}
	}
	return f.Backend.UpdateRows(ctx, table, filter, patch)
}

func (f *faultyBackend) CallRemoteProcedure(ctx context.Context, name string, args map[string]any, result any) error {
	f.mu.Lock()
	hook := f.failProc
	f.mu.Unlock()
	if hook != nil {
		if err := hook(name); err != nil {
			return err
		}
	}
	return f.Backend.CallRemoteProcedure(ctx, name, args, result)
}

type fixture struct {
	store *gormstore.Store
	db    *faultyBackend
	hub   *realtime.Hub
	clock *clock
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := gormstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	f := &fixture{
		store: store,
		db:    &faultyBackend{Backend: store},
		hub:   realtime.NewHub(),
		clock: newClock(),
	}
	f.svc = New(f.db, f.hub, Config{
		AppBaseURL: "https://pixel.example/",
		Tokens:     lib.NewTokenIssuer("test-secret", time.Hour),
		Now:        f.clock.Now,
	})
	return f
}

// register creates an account and returns it with a context signed in as it.
func (f *fixture) register(t *testing.T, name, email string) (models.User, context.Context) {
	t.Helper()
	user, err := f.svc.Accounts.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return user, f.signedIn(user)
}

func (f *fixture) signedIn(user models.User) context.Context {
	return session.With(context.Background(), session.Session{UserID: user.ID, Email: user.Email})
}

// asEmail is a session for an email that has no account.
func asEmail(userID, email string) context.Context {
	return session.With(context.Background(), session.Session{UserID: userID, Email: email})
}

func (f *fixture) edges(t *testing.T, a, b string) []models.Connection {
	t.Helper()
	var edges []models.Connection
	require.NoError(t, f.store.QueryRows(context.Background(), models.TableConnections, backend.EitherDirection(a, b), nil, &edges))
	return edges
}

func (f *fixture) affirmation(t *testing.T, id string) models.Affirmation {
	t.Helper()
	a, err := findOne[models.Affirmation](context.Background(), f.store, models.TableAffirmations, backend.Where(backend.Eq("id", id)))
	require.NoError(t, err)
	return a
}

func (f *fixture) notifications(t *testing.T, user models.User) []models.Notification {
	t.Helper()
	list, err := f.svc.Notifications.List(f.signedIn(user))
	require.NoError(t, err)
	return list
}

// connect makes a and b connected through an accepted invitation.
func (f *fixture) connect(t *testing.T, a, b models.User) {
	t.Helper()
	inv, err := f.svc.Invitations.Create(f.signedIn(a), CreateInvitationInput{InviteeEmail: b.Email})
	require.NoError(t, err)
	_, err = f.svc.Invitations.Accept(f.signedIn(b), inv.ID)
	require.NoError(t, err)
}
