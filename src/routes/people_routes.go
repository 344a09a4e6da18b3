package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

func PeopleRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	people := router.Group("/people", protect)

	people.Post("/", h.CreatePerson)
	people.Get("/", h.GetPeople)
	people.Put("/:id", h.UpdatePerson)
	people.Delete("/:id", h.DeletePerson)
}
