package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

func UserRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	user := router.Group("/users", protect)

	user.Put("/profile", h.UpdateProfile)
	user.Get("/:id", h.GetUser)
}
