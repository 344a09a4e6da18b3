package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

// ConnectionRoutes sets up routes for listing, blocking and removing connections and checking connection status
func ConnectionRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	connection := router.Group("/connections", protect)

	connection.Get("/", h.GetUserConnections)
	connection.Get("/status/:userId", h.GetConnectionStatus)
	connection.Put("/:userId/block", h.BlockConnection)
	connection.Delete("/:userId", h.RemoveConnection)
}
