package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

const (
	bcryptCost        = 11
	minPasswordLength = 6
)

type AccountService struct {
	db     backend.Backend
	tokens *lib.TokenIssuer
	now    func() time.Time
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates an account with a hashed password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("name, email and password are required: %w", errs.ErrInvalidInput)
	}
	if !validEmail(in.Email) {
		return models.User{}, fmt.Errorf("invalid email %q: %w", in.Email, errs.ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, errs.ErrInvalidInput)
	}

	if _, err := s.FindByEmail(ctx, in.Email); err == nil {
		return models.User{}, fmt.Errorf("email already registered: %w", errs.ErrConstraintViolation)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return models.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		log.Printf("[AccountService] Error hashing password: %v", err)
		return models.User{}, err
	}

	now := s.now()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The unique index still catches a concurrent registration of the same email.
	if err := s.db.InsertRows(ctx, models.TableUsers, &user); err != nil {
		log.Printf("[AccountService] Error creating user %s: %v", in.Email, err)
		return models.User{}, err
	}

	log.Printf("[AccountService] Registered user %s", user.ID)
	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords fail the same way.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("email and password are required: %w", errs.ErrInvalidInput)
	}

	user, err := s.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, errs.ErrNotFound) {
		return models.User{}, fmt.Errorf("invalid credentials: %w", errs.ErrNotAuthenticated)
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials: %w", errs.ErrNotAuthenticated)
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *AccountService) IssueToken(user models.User) (string, error) {
	return s.tokens.GenerateJWT(user.ID, user.Email)
}

// Resolve verifies a session token and loads its account. The session email
// comes from the stored account, not from the token.
func (s *AccountService) Resolve(ctx context.Context, token string) (session.Session, models.User, error) {
	claims, err := s.tokens.VerifyJWT(token)
	if err != nil {
		return session.Session{}, models.User{}, err
	}

	user, err := s.Get(ctx, claims.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		return session.Session{}, models.User{}, fmt.Errorf("account no longer exists: %w", errs.ErrNotAuthenticated)
	}
	if err != nil {
		return session.Session{}, models.User{}, err
	}

	return session.Session{UserID: user.ID, Email: user.Email, AccessToken: token}, user, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (models.User, error) {
	return findOne[models.User](ctx, s.db, models.TableUsers, backend.Where(backend.Eq("id", id)))
}

// FindByEmail matches the email exactly.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return findOne[models.User](ctx, s.db, models.TableUsers, backend.Where(backend.Eq("email", email)))
}

// Profiles loads the public profiles of ids keyed by id. Unknown ids are absent.
func (s *AccountService) Profiles(ctx context.Context, ids []string) (map[string]models.UserDto, error) {
	out := make(map[string]models.UserDto, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := s.db.QueryRows(ctx, models.TableUsers, anyID("id", ids), nil, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.ToDto()
	}
	return out, nil
}

// UpdateProfile changes the session user's name and avatar.
func (s *AccountService) UpdateProfile(ctx context.Context, in ProfileInput) (models.User, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return models.User{}, err
	}

	patch := map[string]any{"updated_at": s.now()}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.User{}, fmt.Errorf("name cannot be empty: %w", errs.ErrInvalidInput)
		}
		patch["name"] = name
	}
	if in.AvatarURL != nil {
		patch["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}

	n, err := s.db.UpdateRows(ctx, models.TableUsers, backend.Where(backend.Eq("id", sess.UserID)), patch)
	if err != nil {
		log.Printf("[AccountService] Error updating profile of %s: %v", sess.UserID, err)
		return models.User{}, err
	}
	if n == 0 {
		return models.User{}, fmt.Errorf("user %s: %w", sess.UserID, errs.ErrNotFound)
	}
	return s.Get(ctx, sess.UserID)
}
