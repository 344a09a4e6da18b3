package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/lib"
)

// GetUserNotifications returns the notifications of the authenticated user, newest first.
func (h *Handler) GetUserNotifications(c *fiber.Ctx) error {
	list, err := h.svc.Notifications.List(c.UserContext())
	if err != nil {
		return fail(c, err, "Internal server error")
	}
	return c.JSON(list)
}

// MarkNotificationAsRead marks a notification of the authenticated user as read.
func (h *Handler) MarkNotificationAsRead(c *fiber.Ctx) error {
	if err := h.svc.Notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err, "Internal server error")
	}
	return c.JSON(lib.MessageResponse("Notification marked as read"))
}

// DeleteNotification deletes a notification of the authenticated user.
func (h *Handler) DeleteNotification(c *fiber.Ctx) error {
	if err := h.svc.Notifications.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err, "Server error")
	}
	return c.JSON(lib.MessageResponse("Notification deleted successfully"))
}
