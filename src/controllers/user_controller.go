package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/services"
)

// GetUser returns the public profile of a user.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	user, err := h.svc.Accounts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Error fetching user")
	}
	return c.JSON(user.ToDto())
}

// UpdateProfile changes the name or avatar of the authenticated user.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}

	user, err := h.svc.Accounts.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return fail(c, err, "Error updating profile")
	}

	// Keep the request's view current for anything after this handler.
	c.Locals("user", user.ToDto())
	return c.JSON(user.ToDto())
}
