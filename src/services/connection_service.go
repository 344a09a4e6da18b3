package services

import (
	"context"
	"fmt"
	"log"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
)

// StatusNone is reported for two users without an edge between them.
const StatusNone = "none"

// ConnectionService keeps the two directed edges of every connection in step.
// All writes go through the backend's bidirectional procedures, which touch
// both edges in one transaction.
type ConnectionService struct {
	db       backend.Backend
	accounts *AccountService
	events   publisher
}

// Connect creates or refreshes both edges between a and b with status.
func (s *ConnectionService) Connect(ctx context.Context, a, b string, status models.ConnectionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("connection status %q: %w", status, errs.ErrInvalidInput)
	}

	args := backend.ConnectionArgs{UserA: a, UserB: b, Status: string(status)}.Map()
	if err := s.db.CallRemoteProcedure(ctx, backend.ProcCreateBidirectionalConnection, args, nil); err != nil {
		log.Printf("[ConnectionService] Error connecting %s<->%s: %v", a, b, err)
		return err
	}

	log.Printf("[ConnectionService] Connected %s<->%s (%s)", a, b, status)
	s.events.toUsers(ctx, realtime.EventConnectionsChanged, nil, a, b)
	return nil
}

// SetStatus changes the status of both edges; a missing pair is ErrNotFound.
func (s *ConnectionService) SetStatus(ctx context.Context, a, b string, status models.ConnectionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("connection status %q: %w", status, errs.ErrInvalidInput)
	}

	args := backend.ConnectionArgs{UserA: a, UserB: b, Status: string(status)}.Map()
	if err := s.db.CallRemoteProcedure(ctx, backend.ProcUpdateBidirectionalConnection, args, nil); err != nil {
		log.Printf("[ConnectionService] Error setting %s<->%s to %s: %v", a, b, status, err)
		return err
	}

	s.events.toUsers(ctx, realtime.EventConnectionsChanged, nil, a, b)
	return nil
}

// Disconnect removes both edges with one compound delete.
func (s *ConnectionService) Disconnect(ctx context.Context, a, b string) error {
	var removed int64
	args := backend.ConnectionArgs{UserA: a, UserB: b}.Map()
	if err := s.db.CallRemoteProcedure(ctx, backend.ProcRemoveBidirectionalConnection, args, &removed); err != nil {
		log.Printf("[ConnectionService] Error disconnecting %s<->%s: %v", a, b, err)
		return err
	}

	log.Printf("[ConnectionService] Disconnected %s<->%s (%d edges)", a, b, removed)
	s.events.toUsers(ctx, realtime.EventConnectionsChanged, nil, a, b)
	return nil
}

// List returns the accepted connections of userID with the other user's profile.
func (s *ConnectionService) List(ctx context.Context, userID string) ([]models.ConnectionDto, error) {
	var edges []models.Connection
	err := s.db.QueryRows(ctx, models.TableConnections,
		backend.Where(backend.Eq("user_id", userID), backend.Eq("status", models.ConnectionStatusAccepted)),
		backend.OrderBy("created_at", true), &edges)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ConnectedUserID)
	}
	profiles, err := s.accounts.Profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConnectionDto, 0, len(edges))
	for _, e := range edges {
		profile, ok := profiles[e.ConnectedUserID]
		if !ok {
			continue
		}
		out = append(out, models.ConnectionDto{User: profile, Status: e.Status, CreatedAt: e.CreatedAt})
	}
	return out, nil
}

// Status reports the status of the a→b edge, or StatusNone.
func (s *ConnectionService) Status(ctx context.Context, a, b string) (string, error) {
	var edges []models.Connection
	err := s.db.QueryRows(ctx, models.TableConnections,
		backend.Where(backend.Eq("user_id", a), backend.Eq("connected_user_id", b)), nil, &edges)
	if err != nil {
		return "", err
	}
	if len(edges) == 0 {
		return StatusNone, nil
	}
	return string(edges[0].Status), nil
}

// AreConnected reports whether both edges between a and b are accepted.
func (s *ConnectionService) AreConnected(ctx context.Context, a, b string) (bool, error) {
	var edges []models.Connection
	if err := s.db.QueryRows(ctx, models.TableConnections, backend.EitherDirection(a, b), nil, &edges); err != nil {
		return false, err
	}
	if len(edges) != 2 {
		return false, nil
	}
	for _, e := range edges {
		if e.Status != models.ConnectionStatusAccepted {
			return false, nil
		}
	}
	return true, nil
}
