package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/services"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

// ProtectRoute checks for a valid JWT token, loads its account and attaches
// the session to the request context. Websocket clients, which cannot set
// headers, may pass the token as the access_token query parameter.
func ProtectRoute(accounts *services.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			t, ok := lib.BearerToken(authHeader)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Invalid token format"))
			}
			token = t
		} else {
			token = c.Query("access_token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - No token provided"))
		}

		sess, user, err := accounts.Resolve(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, errs.ErrNotAuthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Invalid token"))
			}
			return c.Status(errs.Status(err)).JSON(lib.MessageResponse("Could not verify session"))
		}

		c.Locals("user", user.ToDto())
		c.Locals("session", sess)
		c.SetUserContext(session.With(c.UserContext(), sess))

		return c.Next()
	}
}
