package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/controllers"
)

// InvitationRoutes sets up routes for sending, listing, accepting and declining invitations
func InvitationRoutes(router fiber.Router, h *controllers.Handler, protect fiber.Handler) {
	invitation := router.Group("/invitations", protect)

	invitation.Post("/", h.CreateInvitation)
	invitation.Get("/sent", h.GetSentInvitations)
	invitation.Get("/received", h.GetReceivedInvitations)
	invitation.Put("/:id/accept", h.AcceptInvitation)
	invitation.Put("/:id/decline", h.DeclineInvitation)
}
