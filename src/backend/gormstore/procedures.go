package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
)

// CallRemoteProcedure runs the named procedure inside one transaction.
func (s *Store) CallRemoteProcedure(ctx context.Context, name string, args map[string]any, result any) error {
	switch name {
	case backend.ProcCreateBidirectionalConnection:
		return s.createBidirectional(ctx, args)
	case backend.ProcUpdateBidirectionalConnection:
		return s.updateBidirectional(ctx, args)
	case backend.ProcRemoveBidirectionalConnection:
		return s.removeBidirectional(ctx, args, result)
	default:
		return fmt.Errorf("procedure %q: %w", name, errs.ErrNotFound)
	}
}

// createBidirectional upserts both edges so that re-connecting refreshes the status instead of duplicating rows.
func (s *Store) createBidirectional(ctx context.Context, args map[string]any) error {
	a, err := backend.ParseConnectionArgs(args, true)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	edges := []models.Connection{
		{ID: uuid.NewString(), UserID: a.UserA, ConnectedUserID: a.UserB, Status: models.ConnectionStatus(a.Status), CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), UserID: a.UserB, ConnectedUserID: a.UserA, Status: models.ConnectionStatus(a.Status), CreatedAt: now, UpdatedAt: now},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range edges {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "connected_user_id"}},
				DoUpdates: clause.Assignments(map[string]any{"status": a.Status, "updated_at": now}),
			}).Create(&edges[i]).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

func (s *Store) updateBidirectional(ctx context.Context, args map[string]any) error {
	a, err := backend.ParseConnectionArgs(args, true)
	if err != nil {
		return err
	}
	where, vars, err := render(backend.EitherDirection(a.UserA, a.UserB))
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Connection{}).Where(where, vars...).Updates(map[string]any{
			"status":     a.Status,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 2 {
			return fmt.Errorf("connection %s<->%s has %d edges: %w", a.UserA, a.UserB, res.RowsAffected, errs.ErrNotFound)
		}
		return nil
	})
	return translate(err)
}

// removeBidirectional deletes both edges with one statement so a half-removed pair cannot be observed.
func (s *Store) removeBidirectional(ctx context.Context, args map[string]any, result any) error {
	a, err := backend.ParseConnectionArgs(args, false)
	if err != nil {
		return err
	}
	where, vars, err := render(backend.EitherDirection(a.UserA, a.UserB))
	if err != nil {
		return err
	}

	var removed int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(where, vars...).Delete(&models.Connection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("connection %s<->%s: %w", a.UserA, a.UserB, errs.ErrNotFound)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return translate(err)
	}

	if n, ok := result.(*int64); ok && n != nil {
		*n = removed
	}
	return nil
}
