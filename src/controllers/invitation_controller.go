package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/services"
)

// CreateInvitation invites someone by email and returns the share link.
func (h *Handler) CreateInvitation(c *fiber.Ctx) error {
	var in services.CreateInvitationInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}

	inv, err := h.svc.Invitations.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err, "Error creating invitation")
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// GetSentInvitations lists the invitations the user has sent.
func (h *Handler) GetSentInvitations(c *fiber.Ctx) error {
	invs, err := h.svc.Invitations.ListSent(c.UserContext())
	if err != nil {
		return fail(c, err, "Error fetching invitations")
	}
	return c.JSON(invs)
}

// GetReceivedInvitations lists pending invitations addressed to the user's email.
func (h *Handler) GetReceivedInvitations(c *fiber.Ctx) error {
	invs, err := h.svc.Invitations.ListReceived(c.UserContext())
	if err != nil {
		return fail(c, err, "Error fetching invitations")
	}
	return c.JSON(invs)
}

// AcceptInvitation connects the user with the inviter.
func (h *Handler) AcceptInvitation(c *fiber.Ctx) error {
	inv, err := h.svc.Invitations.Accept(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Error accepting invitation")
	}
	return c.JSON(inv)
}

func (h *Handler) DeclineInvitation(c *fiber.Ctx) error {
	inv, err := h.svc.Invitations.Decline(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Error declining invitation")
	}
	return c.JSON(inv)
}
