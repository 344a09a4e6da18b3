package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/services"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Message             string         `json:"message"`
	Token               string         `json:"token"`
	User                models.UserDto `json:"user"`
	AcceptedInvitations int            `json:"acceptedInvitations"`
}

// Signup registers an account, issues its token and accepts the invitations
// already waiting for its email.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}

	user, err := h.svc.Accounts.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, err, "Error creating user")
	}

	return h.startSession(c, fiber.StatusCreated, "User registered successfully", user)
}

// Login authenticates by email and password.
func (h *Handler) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	if in.Email == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Email and password are required"))
	}

	user, err := h.svc.Accounts.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return fail(c, err, "Server error")
	}

	return h.startSession(c, fiber.StatusOK, "Logged in successfully", user)
}

func (h *Handler) startSession(c *fiber.Ctx, status int, message string, user models.User) error {
	token, err := h.svc.Accounts.IssueToken(user)
	if err != nil {
		return fail(c, err, "Error generating token")
	}

	ctx := session.With(c.UserContext(), session.Session{UserID: user.ID, Email: user.Email, AccessToken: token})
	accepted := h.svc.Invitations.AutoAccept(ctx)

	return c.Status(status).JSON(AuthResponse{
		Message:             message,
		Token:               token,
		User:                user.ToDto(),
		AcceptedInvitations: accepted,
	})
}

// GetCurrentUser returns the authenticated user.
func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("User not authenticated"))
	}
	return c.JSON(user)
}

// Logout ends the user's realtime streams on every instance. Tokens are
// stateless, so the client drops its own copy.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if sess, ok := currentSession(c); ok {
		ev := realtime.NewEvent(realtime.EventSessionEnded, nil)
		if err := h.events.Publish(c.UserContext(), realtime.UserTopic(sess.UserID), ev); err != nil {
			return fail(c, err, "Error ending session")
		}
	}
	return c.JSON(lib.MessageResponse("Logged out successfully"))
}
