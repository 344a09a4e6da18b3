package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/love-on-the-pixel/src/backend/gormstore"
	"github.com/theleywin/love-on-the-pixel/src/controllers"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/middleware"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/routes"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

type api struct {
	app *fiber.App
	hub *realtime.Hub
}

func newAPI(t *testing.T) *api {
	t.Helper()

	store, err := gormstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	hub := realtime.NewHub()
	t.Cleanup(hub.Reset)

	svc := services.New(store, hub, services.Config{
		AppBaseURL: "https://pixel.example",
		Tokens:     lib.NewTokenIssuer("test-secret", time.Hour),
	})

	app := fiber.New()
	routes.Setup(app, controllers.New(svc, hub, nil), middleware.ProtectRoute(svc.Accounts))
	return &api{app: app, hub: hub}
}

// call sends a JSON request and decodes the JSON response into out when given.
func (a *api) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) signup(t *testing.T, name, email string) controllers.AuthResponse {
	t.Helper()
	var res controllers.AuthResponse
	status := a.call(t, fiber.MethodPost, "/api/v1/auth/signup", "",
		fiber.Map{"name": name, "email": email, "password": "secret123"}, &res)
	require.Equal(t, fiber.StatusCreated, status)
	require.NotEmpty(t, res.Token)
	return res
}

type message struct {
	Message string `json:"message"`
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	var body map[string]string
	assert.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")
	assert.Equal(t, "ana@x.com", ana.User.Email)

	var msg message
	status := a.call(t, fiber.MethodPost, "/api/v1/auth/signup", "",
		fiber.Map{"name": "Ana", "email": "ana@x.com", "password": "secret123"}, &msg)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.NotEmpty(t, msg.Message)

	var login controllers.AuthResponse
	status = a.call(t, fiber.MethodPost, "/api/v1/auth/login", "",
		fiber.Map{"email": "ana@x.com", "password": "secret123"}, &login)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, ana.User.ID, login.User.ID)

	status = a.call(t, fiber.MethodPost, "/api/v1/auth/login", "",
		fiber.Map{"email": "ana@x.com", "password": "nope-nope"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status = a.call(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{"email": "ana@x.com"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var me map[string]any
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/auth/me", login.Token, nil, &me))
	assert.Equal(t, "Ana", me["name"])
	assert.NotContains(t, me, "password")
}

func TestProtectRoute(t *testing.T) {
	a := newAPI(t)

	var msg message
	assert.Equal(t, fiber.StatusUnauthorized, a.call(t, fiber.MethodGet, "/api/v1/auth/me", "", nil, &msg))
	assert.Equal(t, "Unauthorized - No token provided", msg.Message)

	assert.Equal(t, fiber.StatusUnauthorized, a.call(t, fiber.MethodGet, "/api/v1/connections", "garbage", nil, &msg))
	assert.Equal(t, "Unauthorized - Invalid token", msg.Message)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Token abc")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestInviteAcceptAndAffirm(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")

	var inv struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		ShareURL string `json:"share_url"`
	}
	status := a.call(t, fiber.MethodPost, "/api/v1/invitations", ana.Token,
		fiber.Map{"inviteeName": "Ben", "inviteeEmail": "ben@x.com", "customMessage": "join me"}, &inv)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "pending", inv.Status)
	assert.Contains(t, inv.ShareURL, "https://pixel.example/invite?")

	status = a.call(t, fiber.MethodPost, "/api/v1/affirmations", ana.Token,
		fiber.Map{"recipientEmail": "ben@x.com", "message": "you matter"}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	// Signing up accepts the waiting invitation and delivers the affirmation.
	ben := a.signup(t, "Ben", "ben@x.com")
	assert.Equal(t, 1, ben.AcceptedInvitations)

	var conns []struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/connections", ben.Token, nil, &conns))
	require.Len(t, conns, 1)
	assert.Equal(t, ana.User.ID, conns[0].User.ID)

	var st map[string]string
	a.call(t, fiber.MethodGet, "/api/v1/connections/status/"+ben.User.ID, ana.Token, nil, &st)
	assert.Equal(t, "accepted", st["status"])

	var inbox []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/affirmations/received", ben.Token, nil, &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, "delivered", inbox[0].Status)

	status = a.call(t, fiber.MethodPut, "/api/v1/invitations/"+inv.ID+"/accept", ben.Token, nil, nil)
	assert.Equal(t, fiber.StatusConflict, status, "already accepted")

	var fav struct {
		IsFavorite bool `json:"is_favorite"`
	}
	status = a.call(t, fiber.MethodPut, "/api/v1/affirmations/"+inbox[0].ID+"/favorite", ben.Token,
		fiber.Map{"isFavorite": true}, &fav)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, fav.IsFavorite)

	status = a.call(t, fiber.MethodPut, "/api/v1/affirmations/"+inbox[0].ID+"/favorite", ben.Token, fiber.Map{}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = a.call(t, fiber.MethodDelete, "/api/v1/affirmations/"+inbox[0].ID, ben.Token, nil, nil)
	assert.Equal(t, fiber.StatusForbidden, status, "only the sender deletes")

	var notes []struct {
		Type string `json:"type"`
	}
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/notifications", ana.Token, nil, &notes))
	require.NotEmpty(t, notes)
	assert.Equal(t, "connection_accepted", notes[0].Type)
}

func TestAcceptWithOtherEmailIsForbidden(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")
	cat := a.signup(t, "Cat", "cat@x.com")

	var inv struct {
		ID string `json:"id"`
	}
	require.Equal(t, fiber.StatusCreated, a.call(t, fiber.MethodPost, "/api/v1/invitations", ana.Token,
		fiber.Map{"inviteeEmail": "ben@x.com"}, &inv))

	assert.Equal(t, fiber.StatusForbidden,
		a.call(t, fiber.MethodPut, "/api/v1/invitations/"+inv.ID+"/accept", cat.Token, nil, nil))

	var sent []struct {
		Status string `json:"status"`
	}
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/invitations/sent", ana.Token, nil, &sent))
	require.Len(t, sent, 1)
	assert.Equal(t, "pending", sent[0].Status)

	assert.Equal(t, fiber.StatusNotFound,
		a.call(t, fiber.MethodPut, "/api/v1/invitations/missing/accept", cat.Token, nil, nil))
}

func TestBlockAndRemoveConnection(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")

	var inv struct {
		ID string `json:"id"`
	}
	require.Equal(t, fiber.StatusCreated, a.call(t, fiber.MethodPost, "/api/v1/invitations", ana.Token,
		fiber.Map{"inviteeEmail": "ben@x.com"}, &inv))
	ben := a.signup(t, "Ben", "ben@x.com")

	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodPut, "/api/v1/connections/"+ana.User.ID+"/block", ben.Token, nil, nil))

	var st map[string]string
	a.call(t, fiber.MethodGet, "/api/v1/connections/status/"+ben.User.ID, ana.Token, nil, &st)
	assert.Equal(t, "blocked", st["status"])

	a.call(t, fiber.MethodGet, "/api/v1/connections/status/"+ana.User.ID, ana.Token, nil, &st)
	assert.Equal(t, "self", st["status"])

	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodDelete, "/api/v1/connections/"+ben.User.ID, ana.Token, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, a.call(t, fiber.MethodDelete, "/api/v1/connections/"+ben.User.ID, ana.Token, nil, nil))

	a.call(t, fiber.MethodGet, "/api/v1/connections/status/"+ben.User.ID, ana.Token, nil, &st)
	assert.Equal(t, "none", st["status"])
}

func TestPeopleAndProfile(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")

	var p struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.Equal(t, fiber.StatusCreated, a.call(t, fiber.MethodPost, "/api/v1/people", ana.Token,
		fiber.Map{"name": "Grandma", "email": "gran@x.com"}, &p))
	assert.Equal(t, "Grandma", p.Name)

	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodPut, "/api/v1/people/"+p.ID, ana.Token,
		fiber.Map{"name": "Granny"}, &p))
	assert.Equal(t, "Granny", p.Name)

	var people []map[string]any
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/people", ana.Token, nil, &people))
	assert.Len(t, people, 1)

	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodDelete, "/api/v1/people/"+p.ID, ana.Token, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, a.call(t, fiber.MethodDelete, "/api/v1/people/"+p.ID, ana.Token, nil, nil))

	var user map[string]any
	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodPut, "/api/v1/users/profile", ana.Token,
		fiber.Map{"name": "Ana Maria"}, &user))
	assert.Equal(t, "Ana Maria", user["name"])

	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodGet, "/api/v1/users/"+ana.User.ID, ana.Token, nil, &user))
	assert.Equal(t, "Ana Maria", user["name"])
	assert.Equal(t, fiber.StatusNotFound, a.call(t, fiber.MethodGet, "/api/v1/users/nobody", ana.Token, nil, nil))
}

func TestLogoutEndsRealtimeSession(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")

	events, cancel := a.hub.Subscribe(realtime.UserTopic(ana.User.ID))
	defer cancel()

	require.Equal(t, fiber.StatusOK, a.call(t, fiber.MethodPost, "/api/v1/auth/logout", ana.Token, nil, nil))

	select {
	case ev := <-events:
		assert.Equal(t, realtime.EventSessionEnded, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no session.ended event")
	}
}

func TestRealtimeRequiresUpgrade(t *testing.T) {
	a := newAPI(t)
	ana := a.signup(t, "Ana", "ana@x.com")

	status := a.call(t, fiber.MethodGet, "/api/v1/realtime?access_token="+ana.Token, "", nil, nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, status)

	status = a.call(t, fiber.MethodGet, "/api/v1/realtime", "", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
