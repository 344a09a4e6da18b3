package reststore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   []byte
}

func newServer(t *testing.T, status int, reply string) (*Store, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	return New(Config{URL: srv.URL, APIKey: "anon-key"}), rec
}

func TestEncodeFilter(t *testing.T) {
	params, err := encodeFilter(backend.Where(backend.IsNull("recipient_id"), backend.Eq("recipient_email", "b@x.com")))
	require.NoError(t, err)
	assert.Equal(t, "is.null", params.Get("recipient_id"))
	assert.Equal(t, "eq.b@x.com", params.Get("recipient_email"))

	params, err = encodeFilter(backend.EitherDirection("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "(and(user_id.eq.a,connected_user_id.eq.b),and(user_id.eq.b,connected_user_id.eq.a))", params.Get("or"))

	params, err = encodeFilter(backend.Filter{}.Or(backend.Eq("name", "Smith, Jr.")))
	require.NoError(t, err)
	assert.Equal(t, `(and(name.eq."Smith, Jr."))`, params.Get("or"))

	ts := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	params, err = encodeFilter(backend.Where(backend.Lt("created_at", ts), backend.Neq("status", models.InvitationStatusAccepted)))
	require.NoError(t, err)
	assert.Equal(t, "lt.2024-02-01T10:00:00Z", params.Get("created_at"))
	assert.Equal(t, "neq.accepted", params.Get("status"))

	_, err = encodeFilter(backend.Where(backend.Eq("id;drop", "x")))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestQueryRows(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `[{"id":"i1","inviter_id":"a","invitee_email":"b@x.com","status":"pending"}]`)

	var out []models.Invitation
	err := s.QueryRows(context.Background(), models.TableInvitations,
		backend.Where(backend.Eq("invitee_email", "b@x.com")), backend.OrderBy("created_at", true), &out)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "i1", out[0].ID)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/invitations", rec.path)
	assert.Equal(t, "created_at.desc", rec.query.Get("order"))
	assert.Equal(t, "eq.b@x.com", rec.query.Get("invitee_email"))
	assert.Equal(t, "anon-key", rec.header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", rec.header.Get("Authorization"))
}

func TestSessionTokenIsForwarded(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `[]`)
	ctx := session.With(context.Background(), session.Session{UserID: "u1", Email: "u@x.com", AccessToken: "user-jwt"})

	var out []models.User
	require.NoError(t, s.QueryRows(ctx, models.TableUsers, backend.Where(backend.Eq("id", "u1")), nil, &out))
	assert.Equal(t, "Bearer user-jwt", rec.header.Get("Authorization"))
	assert.Equal(t, "anon-key", rec.header.Get("apikey"))
}

func TestInsertRows(t *testing.T) {
	s, rec := newServer(t, http.StatusCreated, ``)

	person := models.Person{ID: "p1", OwnerID: "a", Name: "Bea"}
	require.NoError(t, s.InsertRows(context.Background(), models.TablePeople, &person))

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/people", rec.path)
	assert.Equal(t, "return=minimal", rec.header.Get("Prefer"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &body))
	assert.Equal(t, "Bea", body["name"])
}

func TestUpdateRowsCountsRepresentation(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `[{"id":"f1"}]`)

	n, err := s.UpdateRows(context.Background(), models.TableAffirmations,
		backend.Where(backend.Eq("id", "f1"), backend.IsNull("recipient_id")),
		map[string]any{"status": "delivered", "recipient_id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "return=representation", rec.header.Get("Prefer"))
	assert.Equal(t, "is.null", rec.query.Get("recipient_id"))

	_, err = s.UpdateRows(context.Background(), models.TableAffirmations, backend.Filter{}, map[string]any{"status": "read"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestDeleteRows(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `[{"id":"n1"},{"id":"n2"}]`)

	n, err := s.DeleteRows(context.Background(), models.TableNotifications, backend.Where(backend.Eq("recipient_id", "u1")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, http.MethodDelete, rec.method)
}

func TestCallRemoteProcedure(t *testing.T) {
	s, rec := newServer(t, http.StatusOK, `2`)

	var removed int64
	err := s.CallRemoteProcedure(context.Background(), backend.ProcRemoveBidirectionalConnection,
		backend.ConnectionArgs{UserA: "a", UserB: "b"}.Map(), &removed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, "/rpc/remove_bidirectional_connection", rec.path)

	var args map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &args))
	assert.Equal(t, map[string]any{"user_a": "a", "user_b": "b"}, args)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, errs.ErrInvalidInput},
		{http.StatusUnauthorized, errs.ErrNotAuthenticated},
		{http.StatusForbidden, errs.ErrAuthorization},
		{http.StatusNotFound, errs.ErrNotFound},
		{http.StatusConflict, errs.ErrConstraintViolation},
		{http.StatusInternalServerError, errs.ErrBackendUnavailable},
		{http.StatusServiceUnavailable, errs.ErrBackendUnavailable},
	}
	for _, tc := range cases {
		s, _ := newServer(t, tc.status, `{"code":"23505","message":"boom"}`)
		var out []models.User
		err := s.QueryRows(context.Background(), models.TableUsers, backend.Filter{}, nil, &out)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestTransportFailureIsBackendUnavailable(t *testing.T) {
	s := New(Config{URL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second})
	var out []models.User
	err := s.QueryRows(context.Background(), models.TableUsers, backend.Filter{}, nil, &out)
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
}
