package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

const apiPrefix = "/api/v1"

// Setup registers every API route. protect guards the routes that need a session.
func Setup(app *fiber.App, h *controllers.Handler, protect fiber.Handler) {
	api := app.Group(apiPrefix)

	AuthRoutes(api, h, protect)
	UserRoutes(api, h, protect)
	InvitationRoutes(api, h, protect)
	ConnectionRoutes(api, h, protect)
	AffirmationRoutes(api, h, protect)
	PeopleRoutes(api, h, protect)
	NotificationRoutes(api, h, protect)
	RealtimeRoutes(api, h, protect)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
