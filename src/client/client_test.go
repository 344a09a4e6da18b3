package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/love-on-the-pixel/src/backend/gormstore"
	"github.com/theleywin/love-on-the-pixel/src/client"
	"github.com/theleywin/love-on-the-pixel/src/controllers"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/middleware"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/routes"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

// serve runs the whole API on a loopback port and returns its base URL.
func serve(t *testing.T) string {
	t.Helper()

	store, err := gormstore.OpenInMemory()
	require.NoError(t, err)
	hub := realtime.NewHub()
	svc := services.New(store, hub, services.Config{
		AppBaseURL: "https://pixel.example",
		Tokens:     lib.NewTokenIssuer("test-secret", time.Hour),
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	routes.Setup(app, controllers.New(svc, hub, nil), middleware.ProtectRoute(svc.Accounts))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)

	t.Cleanup(func() {
		app.Shutdown()
		hub.Reset()
		store.Close(context.Background())
	})
	return "http://" + ln.Addr().String()
}

func TestClientInvitationRoundTrip(t *testing.T) {
	base := serve(t)
	ana := client.New(base)
	ben := client.New(base + "/")

	_, err := ana.Me()
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)

	res, err := ana.Signup("Ana", "ana@x.com", "secret123")
	require.NoError(t, err)
	assert.True(t, ana.LoggedIn())
	assert.Equal(t, "Ana", res.User.Name)

	inv, err := ana.Invite(services.CreateInvitationInput{InviteeName: "Ben", InviteeEmail: "ben@x.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ShareURL)

	_, err = ana.Invite(services.CreateInvitationInput{InviteeEmail: "ana@x.com"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = ben.Signup("Ben", "ben@x.com", "secret123")
	require.NoError(t, err)

	conns, err := ben.Connections()
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "Ana", conns[0].User.Name)

	_, err = ben.AcceptInvitation(inv.ID)
	assert.ErrorIs(t, err, errs.ErrConstraintViolation, "409 for an already accepted invitation")

	sent, err := ana.SendAffirmation(services.SendInput{RecipientID: res.User.ID, Message: "self love"})
	require.Error(t, err, "cannot send to yourself")
	assert.Empty(t, sent.ID)

	me, err := ben.Me()
	require.NoError(t, err)
	a, err := ana.SendAffirmation(services.SendInput{RecipientID: me.ID, Message: "so proud", Category: models.CategoryCelebration})
	require.NoError(t, err)
	assert.Equal(t, models.AffirmationStatusDelivered, a.Status)

	read, err := ben.MarkAffirmationRead(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AffirmationStatusRead, read.Status)

	fav, err := ben.SetFavorite(a.ID, true)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)

	status, err := ana.ConnectionStatus(me.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", status)

	require.NoError(t, ana.Logout())
	assert.False(t, ana.LoggedIn())
}
