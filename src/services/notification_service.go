package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

type NotificationService struct {
	db     backend.Backend
	events publisher
	now    func() time.Time
}

type NotifyInput struct {
	RecipientID          string
	Type                 models.NotificationType
	RelatedUserID        string
	RelatedAffirmationID string
}

// Notify stores a notification for its recipient. Callers treat failures as best-effort.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) error {
	if in.RecipientID == "" || in.Type == "" {
		return fmt.Errorf("recipient and type are required: %w", errs.ErrInvalidInput)
	}

	now := s.now()
	n := models.Notification{
		ID:                   uuid.NewString(),
		RecipientID:          in.RecipientID,
		Type:                 in.Type,
		RelatedUserID:        in.RelatedUserID,
		RelatedAffirmationID: in.RelatedAffirmationID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.db.InsertRows(ctx, models.TableNotifications, &n); err != nil {
		return err
	}

	s.events.toUsers(ctx, realtime.EventNotificationsChanged, n, in.RecipientID)
	return nil
}

// notifyQuietly is Notify for best-effort call sites.
func (s *NotificationService) notifyQuietly(ctx context.Context, in NotifyInput) {
	if err := s.Notify(ctx, in); err != nil {
		log.Printf("[NotificationService] Error creating %s notification for %s: %v", in.Type, in.RecipientID, err)
	}
}

// List returns the session user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}

	notifications := []models.Notification{}
	err = s.db.QueryRows(ctx, models.TableNotifications,
		backend.Where(backend.Eq("recipient_id", sess.UserID)),
		backend.OrderBy("created_at", true), &notifications)
	return notifications, err
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	n, err := s.db.UpdateRows(ctx, models.TableNotifications,
		backend.Where(backend.Eq("id", id), backend.Eq("recipient_id", sess.UserID)),
		map[string]any{"read": true, "updated_at": s.now()})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	n, err := s.db.DeleteRows(ctx, models.TableNotifications,
		backend.Where(backend.Eq("id", id), backend.Eq("recipient_id", sess.UserID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, errs.ErrNotFound)
	}
	return nil
}
