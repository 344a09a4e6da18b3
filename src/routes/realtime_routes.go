package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

// RealtimeRoutes sets up the websocket event stream
func RealtimeRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	router.Get("/realtime", protect, h.RequireUpgrade, h.StreamEvents())
}
