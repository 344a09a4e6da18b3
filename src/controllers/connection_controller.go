package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/models"
)

// GetUserConnections lists the accepted connections of the user, newest first.
func (h *Handler) GetUserConnections(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	conns, err := h.svc.Connections.List(c.UserContext(), user.ID)
	if err != nil {
		return fail(c, err, "Error fetching connections")
	}
	return c.JSON(conns)
}

// GetConnectionStatus reports the status between the user and another user,
// or "none" when they are not connected.
func (h *Handler) GetConnectionStatus(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	targetID := c.Params("userId")
	if targetID == user.ID {
		return c.JSON(fiber.Map{"status": "self"})
	}

	status, err := h.svc.Connections.Status(c.UserContext(), user.ID, targetID)
	if err != nil {
		return fail(c, err, "Error checking connection status")
	}
	return c.JSON(fiber.Map{"status": status})
}

// BlockConnection marks both edges of an existing connection as blocked.
func (h *Handler) BlockConnection(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	err := h.svc.Connections.SetStatus(c.UserContext(), user.ID, c.Params("userId"), models.ConnectionStatusBlocked)
	if err != nil {
		return fail(c, err, "Error blocking connection")
	}
	return c.JSON(lib.MessageResponse("Connection blocked"))
}

// RemoveConnection deletes both edges of a connection.
func (h *Handler) RemoveConnection(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	if err := h.svc.Connections.Disconnect(c.UserContext(), user.ID, c.Params("userId")); err != nil {
		return fail(c, err, "Error removing connection")
	}
	return c.JSON(lib.MessageResponse("Connection removed successfully"))
}
