package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

// PeopleService manages the contacts a user tracks, with or without an account.
type PeopleService struct {
	db  backend.Backend
	now func() time.Time
}

type PersonInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	PhotoURL *string `json:"photoUrl"`
}

func (s *PeopleService) Create(ctx context.Context, in PersonInput) (models.Person, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.Person{}, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return models.Person{}, fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}

	now := s.now()
	p := models.Person{
		ID:        uuid.NewString(),
		OwnerID:   sess.UserID,
		Name:      strings.TrimSpace(*in.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Email != nil {
		p.Email = strings.TrimSpace(*in.Email)
		if p.Email != "" && !validEmail(p.Email) {
			return models.Person{}, fmt.Errorf("invalid email %q: %w", p.Email, errs.ErrInvalidInput)
		}
	}
	if in.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}

	if err := s.db.InsertRows(ctx, models.TablePeople, &p); err != nil {
		return models.Person{}, err
	}
	return p, nil
}

// List returns the session user's people by name.
func (s *PeopleService) List(ctx context.Context) ([]models.Person, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}

	people := []models.Person{}
	err = s.db.QueryRows(ctx, models.TablePeople,
		backend.Where(backend.Eq("owner_id", sess.UserID)),
		backend.OrderBy("name", false), &people)
	return people, err
}

func (s *PeopleService) Update(ctx context.Context, id string, in PersonInput) (models.Person, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.Person{}, err
	}

	patch := map[string]any{"updated_at": s.now()}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Person{}, fmt.Errorf("name cannot be empty: %w", errs.ErrInvalidInput)
		}
		patch["name"] = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != "" && !validEmail(email) {
			return models.Person{}, fmt.Errorf("invalid email %q: %w", email, errs.ErrInvalidInput)
		}
		patch["email"] = email
	}
	if in.PhotoURL != nil {
		patch["photo_url"] = strings.TrimSpace(*in.PhotoURL)
	}

	owned := backend.Where(backend.Eq("id", id), backend.Eq("owner_id", sess.UserID))
	n, err := s.db.UpdateRows(ctx, models.TablePeople, owned, patch)
	if err != nil {
		return models.Person{}, err
	}
	if n == 0 {
		return models.Person{}, fmt.Errorf("person %s: %w", id, errs.ErrNotFound)
	}
	return findOne[models.Person](ctx, s.db, models.TablePeople, owned)
}

func (s *PeopleService) Delete(ctx context.Context, id string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	n, err := s.db.DeleteRows(ctx, models.TablePeople,
		backend.Where(backend.Eq("id", id), backend.Eq("owner_id", sess.UserID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("person %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

// LinkAccount points owner's unlinked people with email at userID and
// returns how many were linked.
func (s *PeopleService) LinkAccount(ctx context.Context, ownerID, email, userID string) (int64, error) {
	if email == "" {
		return 0, nil
	}
	return s.db.UpdateRows(ctx, models.TablePeople,
		backend.Where(backend.Eq("owner_id", ownerID), backend.Eq("email", email), backend.IsNull("linked_user_id")),
		map[string]any{"linked_user_id": userID, "updated_at": s.now()})
}
