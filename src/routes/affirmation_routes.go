package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

func AffirmationRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	affirmation := router.Group("/affirmations", protect)

	affirmation.Post("/", h.SendAffirmation)
	affirmation.Get("/received", h.GetReceivedAffirmations)
	affirmation.Get("/sent", h.GetSentAffirmations)
	affirmation.Get("/favorites", h.GetFavoriteAffirmations)
	affirmation.Put("/:id/read", h.MarkAffirmationRead)
	affirmation.Put("/:id/favorite", h.SetAffirmationFavorite)
	affirmation.Delete("/:id", h.DeleteAffirmation)
}
