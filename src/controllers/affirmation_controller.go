package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

// SendAffirmation sends to a connection by id or to anyone by email.
func (h *Handler) SendAffirmation(c *fiber.Ctx) error {
	var in services.SendInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}

	a, err := h.svc.Affirmations.Send(c.UserContext(), in)
	if err != nil {
		return fail(c, err, "Error sending affirmation")
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *Handler) GetReceivedAffirmations(c *fiber.Ctx) error {
	list, err := h.svc.Affirmations.ListReceived(c.UserContext())
	if err != nil {
		return fail(c, err, "Error fetching affirmations")
	}
	return c.JSON(list)
}

func (h *Handler) GetSentAffirmations(c *fiber.Ctx) error {
	list, err := h.svc.Affirmations.ListSent(c.UserContext())
	if err != nil {
		return fail(c, err, "Error fetching affirmations")
	}
	return c.JSON(list)
}

func (h *Handler) GetFavoriteAffirmations(c *fiber.Ctx) error {
	list, err := h.svc.Affirmations.ListFavorites(c.UserContext())
	if err != nil {
		return fail(c, err, "Error fetching affirmations")
	}
	return c.JSON(list)
}

func (h *Handler) MarkAffirmationRead(c *fiber.Ctx) error {
	a, err := h.svc.Affirmations.MarkRead(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Error updating affirmation")
	}
	return c.JSON(a)
}

// SetAffirmationFavorite expects {"isFavorite": bool}.
func (h *Handler) SetAffirmationFavorite(c *fiber.Ctx) error {
	var in struct {
		IsFavorite *bool `json:"isFavorite"`
	}
	if err := c.BodyParser(&in); err != nil || in.IsFavorite == nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("isFavorite is required"))
	}

	a, err := h.svc.Affirmations.SetFavorite(c.UserContext(), c.Params("id"), *in.IsFavorite)
	if err != nil {
		return fail(c, err, "Error updating affirmation")
	}
	return c.JSON(a)
}

// DeleteAffirmation lets the sender take an affirmation back.
func (h *Handler) DeleteAffirmation(c *fiber.Ctx) error {
	if err := h.svc.Affirmations.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err, "Error deleting affirmation")
	}
	return c.JSON(lib.MessageResponse("Affirmation deleted successfully"))
}
