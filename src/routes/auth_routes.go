package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

// AuthRoutes sets up signup, login, logout and current user routes
func AuthRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	auth := router.Group("/auth")

	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Post("/logout", protect, h.Logout)
	auth.Get("/me", protect, h.GetCurrentUser)
}
