package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/services"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

// Handler holds what the HTTP handlers need to serve a request.
type Handler struct {
	svc *services.Services
	hub *realtime.Hub
	// events reaches every instance; hub only this one.
	events realtime.Publisher
}

func New(svc *services.Services, hub *realtime.Hub, events realtime.Publisher) *Handler {
	if events == nil {
		events = hub
	}
	return &Handler{svc: svc, hub: hub, events: events}
}

// fail answers with the status err maps to. Client errors carry their own
// text; server errors are logged and answered with message.
func fail(c *fiber.Ctx, err error, message string) error {
	status := errs.Status(err)
	if errs.IsClientError(err) {
		return c.Status(status).JSON(lib.MessageResponse(err.Error()))
	}
	log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(status).JSON(lib.MessageResponse(message))
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
}

// currentUser is the account ProtectRoute loaded for the request.
func currentUser(c *fiber.Ctx) (models.UserDto, bool) {
	user, ok := c.Locals("user").(models.UserDto)
	return user, ok
}

func currentSession(c *fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals("session").(session.Session)
	return sess, ok
}
