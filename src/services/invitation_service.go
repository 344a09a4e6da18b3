package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

type InvitationService struct {
	db            backend.Backend
	baseURL       string
	accounts      *AccountService
	connections   *ConnectionService
	affirmations  *AffirmationService
	people        *PeopleService
	notifications *NotificationService
	events        publisher
	now           func() time.Time
}

type CreateInvitationInput struct {
	InviteeName   string `json:"inviteeName"`
	InviteeEmail  string `json:"inviteeEmail"`
	CustomMessage string `json:"customMessage"`
}

// Create stores a pending invitation from the session user. Several pending
// invitations to the same email may coexist.
func (s *InvitationService) Create(ctx context.Context, in CreateInvitationInput) (models.InvitationDto, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.InvitationDto{}, err
	}

	in.InviteeEmail = strings.TrimSpace(in.InviteeEmail)
	if !validEmail(in.InviteeEmail) {
		return models.InvitationDto{}, fmt.Errorf("invalid invitee email %q: %w", in.InviteeEmail, errs.ErrInvalidInput)
	}
	if in.InviteeEmail == sess.Email {
		return models.InvitationDto{}, fmt.Errorf("cannot invite yourself: %w", errs.ErrInvalidInput)
	}

	inv := models.Invitation{
		ID:            uuid.NewString(),
		InviterID:     sess.UserID,
		InviterEmail:  sess.Email,
		InviteeEmail:  in.InviteeEmail,
		InviteeName:   strings.TrimSpace(in.InviteeName),
		Status:        models.InvitationStatusPending,
		CustomMessage: strings.TrimSpace(in.CustomMessage),
		CreatedAt:     s.now(),
	}
	if err := s.db.InsertRows(ctx, models.TableInvitations, &inv); err != nil {
		log.Printf("[InvitationService] Error creating invitation: %v", err)
		return models.InvitationDto{}, err
	}
	log.Printf("[InvitationService] Invitation %s created for %s", inv.ID, inv.InviteeEmail)

	if invitee, err := s.accounts.FindByEmail(ctx, inv.InviteeEmail); err == nil {
		s.notifications.notifyQuietly(ctx, NotifyInput{
			RecipientID:   invitee.ID,
			Type:          models.NotificationTypeInvitationReceived,
			RelatedUserID: sess.UserID,
		})
		s.events.toUsers(ctx, realtime.EventInvitationsChanged, nil, invitee.ID)
	}
	s.events.toUsers(ctx, realtime.EventInvitationsChanged, nil, sess.UserID)

	return s.dto(inv), nil
}

// ShareURL links to the invite page with the inviter and, when known, the invitee email.
func (s *InvitationService) ShareURL(inv models.Invitation) string {
	q := url.Values{}
	q.Set("inviter", inv.InviterID)
	if inv.InviteeEmail != "" {
		q.Set("email", inv.InviteeEmail)
	}
	return strings.TrimRight(s.baseURL, "/") + "/invite?" + q.Encode()
}

func (s *InvitationService) dto(inv models.Invitation) models.InvitationDto {
	return models.InvitationDto{Invitation: inv, ShareURL: s.ShareURL(inv)}
}

func (s *InvitationService) Get(ctx context.Context, id string) (models.Invitation, error) {
	return findOne[models.Invitation](ctx, s.db, models.TableInvitations, backend.Where(backend.Eq("id", id)))
}

// Accept accepts the invitation on behalf of the session user.
//
// A blocked pair is refused with ErrAuthorization and nothing is written.
// The connection is written first and its failure aborts. Pending
// affirmations, people links and the inviter's notification are best-effort.
// The status flip is conditional on the invitation still being pending, so a
// concurrent or repeated accept ends in ErrAlreadyProcessed.
func (s *InvitationService) Accept(ctx context.Context, id string) (models.Invitation, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.Invitation{}, err
	}

	inv, err := s.Get(ctx, id)
	if err != nil {
		return models.Invitation{}, err
	}

	return s.accept(ctx, sess, inv, true)
}

// accept runs the acceptance steps in order. With deliver unset the caller
// runs pending-affirmation delivery itself, once per batch.
func (s *InvitationService) accept(ctx context.Context, sess session.Session, inv models.Invitation, deliver bool) (models.Invitation, error) {
	if inv.InviteeEmail != sess.Email {
		log.Printf("[InvitationService] %s tried to accept invitation %s addressed to another email", sess.UserID, inv.ID)
		return inv, fmt.Errorf("invitation %s is addressed to another email: %w", inv.ID, errs.ErrAuthorization)
	}
	if inv.Status != models.InvitationStatusPending {
		return inv, fmt.Errorf("invitation %s is %s: %w", inv.ID, inv.Status, errs.ErrAlreadyProcessed)
	}

	// A blocked pair stays blocked; the invitation stays pending until the
	// block is removed or it expires.
	status, err := s.connections.Status(ctx, inv.InviterID, sess.UserID)
	if err != nil {
		return inv, err
	}
	if status == string(models.ConnectionStatusBlocked) {
		log.Printf("[InvitationService] Refusing invitation %s: %s and %s are blocked", inv.ID, inv.InviterID, sess.UserID)
		return inv, fmt.Errorf("connection with %s is blocked: %w", inv.InviterID, errs.ErrAuthorization)
	}

	if err := s.connections.Connect(ctx, inv.InviterID, sess.UserID, models.ConnectionStatusAccepted); err != nil {
		return inv, err
	}

	if deliver {
		s.deliverPending(ctx, sess)
	}

	if n, err := s.people.LinkAccount(ctx, inv.InviterID, inv.InviteeEmail, sess.UserID); err != nil {
		log.Printf("[InvitationService] Error linking people of %s to %s: %v", inv.InviterID, sess.UserID, err)
	} else if n > 0 {
		log.Printf("[InvitationService] Linked %d people of %s to %s", n, inv.InviterID, sess.UserID)
	}

	now := s.now()
	n, err := s.db.UpdateRows(ctx, models.TableInvitations,
		backend.Where(backend.Eq("id", inv.ID), backend.Eq("status", models.InvitationStatusPending)),
		map[string]any{"status": models.InvitationStatusAccepted, "accepted_at": now})
	if err != nil {
		log.Printf("[InvitationService] Error updating invitation %s: %v", inv.ID, err)
		return inv, err
	}
	if n == 0 {
		return inv, fmt.Errorf("invitation %s: %w", inv.ID, errs.ErrAlreadyProcessed)
	}

	inv.Status = models.InvitationStatusAccepted
	inv.AcceptedAt = &now
	log.Printf("[InvitationService] Invitation %s accepted by %s", inv.ID, sess.UserID)

	s.notifications.notifyQuietly(ctx, NotifyInput{
		RecipientID:   inv.InviterID,
		Type:          models.NotificationTypeConnectionAccepted,
		RelatedUserID: sess.UserID,
	})
	s.events.toUsers(ctx, realtime.EventInvitationsChanged, inv, inv.InviterID, sess.UserID)
	return inv, nil
}

func (s *InvitationService) deliverPending(ctx context.Context, sess session.Session) {
	if _, err := s.affirmations.DeliverPending(ctx, sess.UserID, sess.Email); err != nil {
		log.Printf("[InvitationService] Error delivering pending affirmations for %s: %v", sess.UserID, err)
	}
}

// Decline is only open to the invitee of a pending invitation.
func (s *InvitationService) Decline(ctx context.Context, id string) (models.Invitation, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.Invitation{}, err
	}

	inv, err := s.Get(ctx, id)
	if err != nil {
		return inv, err
	}
	if inv.InviteeEmail != sess.Email {
		return inv, fmt.Errorf("invitation %s is addressed to another email: %w", id, errs.ErrAuthorization)
	}
	if inv.Status != models.InvitationStatusPending {
		return inv, fmt.Errorf("invitation %s is %s: %w", id, inv.Status, errs.ErrAlreadyProcessed)
	}

	n, err := s.db.UpdateRows(ctx, models.TableInvitations,
		backend.Where(backend.Eq("id", id), backend.Eq("status", models.InvitationStatusPending)),
		map[string]any{"status": models.InvitationStatusDeclined})
	if err != nil {
		return inv, err
	}
	if n == 0 {
		return inv, fmt.Errorf("invitation %s: %w", id, errs.ErrAlreadyProcessed)
	}

	inv.Status = models.InvitationStatusDeclined
	s.events.toUsers(ctx, realtime.EventInvitationsChanged, inv, inv.InviterID, sess.UserID)
	return inv, nil
}

// ListSent returns every invitation the session user sent, newest first.
func (s *InvitationService) ListSent(ctx context.Context) ([]models.InvitationDto, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, backend.Where(backend.Eq("inviter_id", sess.UserID)))
}

// ListReceived returns the pending invitations addressed to the session email.
func (s *InvitationService) ListReceived(ctx context.Context) ([]models.InvitationDto, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, backend.Where(
		backend.Eq("invitee_email", sess.Email),
		backend.Eq("status", models.InvitationStatusPending),
	))
}

func (s *InvitationService) query(ctx context.Context, filter backend.Filter) ([]models.InvitationDto, error) {
	var rows []models.Invitation
	if err := s.db.QueryRows(ctx, models.TableInvitations, filter, backend.OrderBy("created_at", true), &rows); err != nil {
		return nil, err
	}
	out := make([]models.InvitationDto, 0, len(rows))
	for _, inv := range rows {
		out = append(out, s.dto(inv))
	}
	return out, nil
}

// AutoAccept accepts every pending invitation addressed to the session email
// and then delivers pending affirmations once. It runs after sign-up and
// sign-in; failures are logged and never returned. It reports how many
// invitations were accepted.
func (s *InvitationService) AutoAccept(ctx context.Context) int {
	sess, err := session.Require(ctx)
	if err != nil {
		return 0
	}

	var pending []models.Invitation
	err = s.db.QueryRows(ctx, models.TableInvitations,
		backend.Where(backend.Eq("invitee_email", sess.Email), backend.Eq("status", models.InvitationStatusPending)),
		backend.OrderBy("created_at", false), &pending)
	if err != nil {
		log.Printf("[InvitationService] Error checking invitations for %s: %v", sess.Email, err)
		return 0
	}

	accepted := 0
	for _, inv := range pending {
		if _, err := s.accept(ctx, sess, inv, false); err != nil {
			log.Printf("[InvitationService] Auto-accept of invitation %s failed: %v", inv.ID, err)
			continue
		}
		accepted++
	}

	s.deliverPending(ctx, sess)
	if accepted > 0 {
		log.Printf("[InvitationService] Auto-accepted %d invitations for %s", accepted, sess.UserID)
	}
	return accepted
}

// ExpireStale moves pending invitations older than ttl to expired.
func (s *InvitationService) ExpireStale(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive: %w", errs.ErrInvalidInput)
	}
	cutoff := s.now().Add(-ttl)
	return s.db.UpdateRows(ctx, models.TableInvitations,
		backend.Where(backend.Eq("status", models.InvitationStatusPending), backend.Lt("created_at", cutoff)),
		map[string]any{"status": models.InvitationStatusExpired})
}

// RunExpiry calls ExpireStale every interval until ctx is done.
func (s *InvitationService) RunExpiry(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[InvitationExpiry] Expiring pending invitations older than %s every %s", ttl, interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[InvitationExpiry] Stopped")
			return
		case <-ticker.C:
			n, err := s.ExpireStale(ctx, ttl)
			if err != nil {
				log.Printf("[InvitationExpiry] Error expiring invitations: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[InvitationExpiry] Expired %d invitations", n)
			}
		}
	}
}
