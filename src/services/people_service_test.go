package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
)

func strp(s string) *string { return &s }

func TestPeopleAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.register(t, "Ana", "ana@x.com")
	_, ctxB := f.register(t, "Ben", "ben@x.com")

	p, err := f.svc.People.Create(ctxA, PersonInput{Name: strp("Grandma"), Email: strp("gran@x.com")})
	require.NoError(t, err)
	assert.Nil(t, p.LinkedUserID)

	_, err = f.svc.People.Create(ctxA, PersonInput{Name: strp(" ")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.svc.People.Create(ctxA, PersonInput{Name: strp("X"), Email: strp("bad")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	others, err := f.svc.People.List(ctxB)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = f.svc.People.Update(ctxB, p.ID, PersonInput{Name: strp("Stolen")})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, f.svc.People.Delete(ctxB, p.ID), errs.ErrNotFound)

	updated, err := f.svc.People.Update(ctxA, p.ID, PersonInput{Name: strp("Granny"), PhotoURL: strp("https://cdn.example/g.png")})
	require.NoError(t, err)
	assert.Equal(t, "Granny", updated.Name)
	assert.Equal(t, "gran@x.com", updated.Email)

	require.NoError(t, f.svc.People.Delete(ctxA, p.ID))
	mine, err := f.svc.People.List(ctxA)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestLinkAccount(t *testing.T) {
	f := newFixture(t)
	ana, ctxA := f.register(t, "Ana", "ana@x.com")

	_, err := f.svc.People.Create(ctxA, PersonInput{Name: strp("Ben"), Email: strp("ben@x.com")})
	require.NoError(t, err)
	_, err = f.svc.People.Create(ctxA, PersonInput{Name: strp("Other"), Email: strp("other@x.com")})
	require.NoError(t, err)

	n, err := f.svc.People.LinkAccount(context.Background(), ana.ID, "ben@x.com", "ben-id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.svc.People.LinkAccount(context.Background(), ana.ID, "ben@x.com", "someone-else")
	require.NoError(t, err)
	assert.Zero(t, n, "already linked people stay linked")

	n, err = f.svc.People.LinkAccount(context.Background(), ana.ID, "", "x")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ana, ctxA := f.register(t, "Ana", "ana@x.com")
	_, ctxB := f.register(t, "Ben", "ben@x.com")
	ctx := context.Background()

	require.NoError(t, f.svc.Notifications.Notify(ctx, NotifyInput{RecipientID: ana.ID, Type: models.NotificationTypeConnectionAccepted}))
	require.NoError(t, f.svc.Notifications.Notify(ctx, NotifyInput{RecipientID: ana.ID, Type: models.NotificationTypeAffirmationReceived}))
	assert.ErrorIs(t, f.svc.Notifications.Notify(ctx, NotifyInput{Type: models.NotificationTypeAffirmationReceived}), errs.ErrInvalidInput)

	list, err := f.svc.Notifications.List(ctxA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationTypeAffirmationReceived, list[0].Type, "newest first")
	assert.False(t, list[0].Read)

	assert.ErrorIs(t, f.svc.Notifications.MarkRead(ctxB, list[0].ID), errs.ErrNotFound)
	require.NoError(t, f.svc.Notifications.MarkRead(ctxA, list[0].ID))

	list, err = f.svc.Notifications.List(ctxA)
	require.NoError(t, err)
	assert.True(t, list[0].Read)

	assert.ErrorIs(t, f.svc.Notifications.Delete(ctxB, list[1].ID), errs.ErrNotFound)
	require.NoError(t, f.svc.Notifications.Delete(ctxA, list[1].ID))

	list, err = f.svc.Notifications.List(ctxA)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.Notifications.List(ctx)
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
}
