package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

func (h *Handler) CreatePerson(c *fiber.Ctx) error {
	var in services.PersonInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}

	p, err := h.svc.People.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err, "Error creating person")
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// GetPeople lists the user's people sorted by name.
func (h *Handler) GetPeople(c *fiber.Ctx) error {
	people, err := h.svc.People.List(c.UserContext())
	if err != nil {
		return fail(c, err, "Error fetching people")
	}
	return c.JSON(people)
}

func (h *Handler) UpdatePerson(c *fiber.Ctx) error {
	var in services.PersonInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}

	p, err := h.svc.People.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, err, "Error updating person")
	}
	return c.JSON(p)
}

func (h *Handler) DeletePerson(c *fiber.Ctx) error {
	if err := h.svc.People.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err, "Error deleting person")
	}
	return c.JSON(lib.MessageResponse("Person deleted successfully"))
}
