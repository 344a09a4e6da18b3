package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

const maxMessageLength = 1000

type AffirmationService struct {
	db            backend.Backend
	accounts      *AccountService
	connections   *ConnectionService
	notifications *NotificationService
	events        publisher
	now           func() time.Time
}

// SendInput addresses an affirmation either to an account or to an email.
type SendInput struct {
	RecipientID    string          `json:"recipientId"`
	RecipientEmail string          `json:"recipientEmail"`
	Message        string          `json:"message"`
	Category       models.Category `json:"category"`
}

// DeliverPending moves every pending affirmation addressed to email onto
// userID and returns how many rows were moved. Rows are updated one at a
// time; a failed row is logged and skipped. Delivered rows no longer match
// the filter, so calling it again moves nothing.
func (s *AffirmationService) DeliverPending(ctx context.Context, userID, email string) (int, error) {
	if userID == "" || email == "" {
		return 0, fmt.Errorf("user and email are required: %w", errs.ErrInvalidInput)
	}

	pending := backend.Where(
		backend.IsNull("recipient_id"),
		backend.Eq("recipient_email", email),
		backend.Eq("status", models.AffirmationStatusPending),
	)

	var rows []models.Affirmation
	if err := s.db.QueryRows(ctx, models.TableAffirmations, pending, backend.OrderBy("created_at", false), &rows); err != nil {
		log.Printf("[AffirmationService] Error loading pending affirmations for %s: %v", email, err)
		return 0, err
	}

	delivered := 0
	for _, row := range rows {
		filter := pending
		filter.All = append([]backend.Predicate{backend.Eq("id", row.ID)}, pending.All...)

		n, err := s.db.UpdateRows(ctx, models.TableAffirmations, filter, map[string]any{
			"recipient_id": userID,
			"status":       models.AffirmationStatusDelivered,
			"updated_at":   s.now(),
		})
		if err != nil {
			log.Printf("[AffirmationService] Error delivering affirmation %s: %v", row.ID, err)
			continue
		}
		delivered += int(n)
	}

	if delivered > 0 {
		log.Printf("[AffirmationService] Delivered %d pending affirmations to %s", delivered, userID)
		s.events.toUsers(ctx, realtime.EventAffirmationsChanged, nil, userID)
	}
	return delivered, nil
}

// Send stores an affirmation from the session user. A recipient with an
// account must be connected, whether addressed by id or by email. An email
// with no account yet waits as pending until DeliverPending runs at sign-up.
func (s *AffirmationService) Send(ctx context.Context, in SendInput) (models.Affirmation, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.Affirmation{}, err
	}

	in.Message = strings.TrimSpace(in.Message)
	in.RecipientEmail = strings.TrimSpace(in.RecipientEmail)
	if in.Category == "" {
		in.Category = models.CategoryLove
	}
	switch {
	case in.Message == "" || utf8.RuneCountInString(in.Message) > maxMessageLength:
		return models.Affirmation{}, fmt.Errorf("message must be 1 to %d characters: %w", maxMessageLength, errs.ErrInvalidInput)
	case !in.Category.Valid():
		return models.Affirmation{}, fmt.Errorf("unknown category %q: %w", in.Category, errs.ErrInvalidInput)
	case (in.RecipientID == "") == (in.RecipientEmail == ""):
		return models.Affirmation{}, fmt.Errorf("exactly one of recipientId and recipientEmail is required: %w", errs.ErrInvalidInput)
	case in.RecipientID == sess.UserID || in.RecipientEmail == sess.Email:
		return models.Affirmation{}, fmt.Errorf("cannot send an affirmation to yourself: %w", errs.ErrInvalidInput)
	}

	now := s.now()
	a := models.Affirmation{
		ID:        uuid.NewString(),
		SenderID:  sess.UserID,
		Message:   in.Message,
		Category:  in.Category,
		Status:    models.AffirmationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	recipientID := in.RecipientID
	if recipientID != "" {
		ok, err := s.connections.AreConnected(ctx, sess.UserID, recipientID)
		if err != nil {
			return models.Affirmation{}, err
		}
		if !ok {
			return models.Affirmation{}, fmt.Errorf("not connected with %s: %w", recipientID, errs.ErrAuthorization)
		}
	} else {
		a.RecipientEmail = in.RecipientEmail
		user, err := s.accounts.FindByEmail(ctx, in.RecipientEmail)
		switch {
		case err == nil:
			// A registered address gets the same check as a send by id.
			ok, err := s.connections.AreConnected(ctx, sess.UserID, user.ID)
			if err != nil {
				return models.Affirmation{}, err
			}
			if !ok {
				return models.Affirmation{}, fmt.Errorf("not connected with %s: %w", in.RecipientEmail, errs.ErrAuthorization)
			}
			recipientID = user.ID
		case !errors.Is(err, errs.ErrNotFound):
			return models.Affirmation{}, err
		}
	}

	if recipientID != "" {
		a.RecipientID = &recipientID
		a.Status = models.AffirmationStatusDelivered
	}

	if err := s.db.InsertRows(ctx, models.TableAffirmations, &a); err != nil {
		log.Printf("[AffirmationService] Error sending affirmation: %v", err)
		return models.Affirmation{}, err
	}

	if recipientID != "" {
		s.notifications.notifyQuietly(ctx, NotifyInput{
			RecipientID:          recipientID,
			Type:                 models.NotificationTypeAffirmationReceived,
			RelatedUserID:        sess.UserID,
			RelatedAffirmationID: a.ID,
		})
		s.events.toUsers(ctx, realtime.EventAffirmationsChanged, nil, sess.UserID, recipientID)
	} else {
		s.events.toUsers(ctx, realtime.EventAffirmationsChanged, nil, sess.UserID)
	}
	return a, nil
}

func (s *AffirmationService) list(ctx context.Context, filter func(session.Session) backend.Filter) ([]models.Affirmation, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}

	rows := []models.Affirmation{}
	err = s.db.QueryRows(ctx, models.TableAffirmations, filter(sess), backend.OrderBy("created_at", true), &rows)
	return rows, err
}

// ListReceived returns the session user's inbox, newest first.
func (s *AffirmationService) ListReceived(ctx context.Context) ([]models.Affirmation, error) {
	return s.list(ctx, func(sess session.Session) backend.Filter {
		return backend.Where(backend.Eq("recipient_id", sess.UserID))
	})
}

// ListSent returns what the session user sent, pending ones included.
func (s *AffirmationService) ListSent(ctx context.Context) ([]models.Affirmation, error) {
	return s.list(ctx, func(sess session.Session) backend.Filter {
		return backend.Where(backend.Eq("sender_id", sess.UserID))
	})
}

func (s *AffirmationService) ListFavorites(ctx context.Context) ([]models.Affirmation, error) {
	return s.list(ctx, func(sess session.Session) backend.Filter {
		return backend.Where(backend.Eq("recipient_id", sess.UserID), backend.Eq("is_favorite", true))
	})
}

func (s *AffirmationService) received(ctx context.Context, id string) (session.Session, models.Affirmation, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return sess, models.Affirmation{}, err
	}
	a, err := findOne[models.Affirmation](ctx, s.db, models.TableAffirmations,
		backend.Where(backend.Eq("id", id), backend.Eq("recipient_id", sess.UserID)))
	return sess, a, err
}

// MarkRead moves a delivered affirmation to read. Marking a read one again is a no-op.
func (s *AffirmationService) MarkRead(ctx context.Context, id string) (models.Affirmation, error) {
	sess, a, err := s.received(ctx, id)
	if err != nil {
		return a, err
	}

	switch a.Status {
	case models.AffirmationStatusRead:
		return a, nil
	case models.AffirmationStatusPending:
		return a, fmt.Errorf("affirmation %s is not delivered yet: %w", id, errs.ErrInvalidInput)
	}

	now := s.now()
	_, err = s.db.UpdateRows(ctx, models.TableAffirmations,
		backend.Where(backend.Eq("id", id), backend.Eq("recipient_id", sess.UserID), backend.Eq("status", models.AffirmationStatusDelivered)),
		map[string]any{"status": models.AffirmationStatusRead, "updated_at": now})
	if err != nil {
		return a, err
	}

	a.Status = models.AffirmationStatusRead
	a.UpdatedAt = now
	s.events.toUsers(ctx, realtime.EventAffirmationsChanged, nil, a.SenderID)
	return a, nil
}

// SetFavorite toggles the favorite flag, independently of the status.
func (s *AffirmationService) SetFavorite(ctx context.Context, id string, favorite bool) (models.Affirmation, error) {
	sess, a, err := s.received(ctx, id)
	if err != nil {
		return a, err
	}

	now := s.now()
	_, err = s.db.UpdateRows(ctx, models.TableAffirmations,
		backend.Where(backend.Eq("id", id), backend.Eq("recipient_id", sess.UserID)),
		map[string]any{"is_favorite": favorite, "updated_at": now})
	if err != nil {
		return a, err
	}

	a.IsFavorite = favorite
	a.UpdatedAt = now
	return a, nil
}

// Delete removes an affirmation the session user sent.
func (s *AffirmationService) Delete(ctx context.Context, id string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	a, err := findOne[models.Affirmation](ctx, s.db, models.TableAffirmations, backend.Where(backend.Eq("id", id)))
	if err != nil {
		return err
	}
	if a.SenderID != sess.UserID {
		return fmt.Errorf("only the sender can delete affirmation %s: %w", id, errs.ErrAuthorization)
	}

	if _, err := s.db.DeleteRows(ctx, models.TableAffirmations,
		backend.Where(backend.Eq("id", id), backend.Eq("sender_id", sess.UserID))); err != nil {
		return err
	}

	if a.RecipientID != nil {
		s.events.toUsers(ctx, realtime.EventAffirmationsChanged, nil, sess.UserID, *a.RecipientID)
	} else {
		s.events.toUsers(ctx, realtime.EventAffirmationsChanged, nil, sess.UserID)
	}
	return nil
}
