package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

// NotificationRoutes sets up notification-related routes for listing, marking as read, and deleting notifications
func NotificationRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	notification := router.Group("/notifications", protect)

	notification.Get("/", h.GetUserNotifications)
	notification.Put("/:id/read", h.MarkNotificationAsRead)
	notification.Delete("/:id", h.DeleteNotification)
}
