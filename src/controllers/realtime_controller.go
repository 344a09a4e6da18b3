package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/session"
)

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func (h *Handler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// StreamEvents streams the caller's realtime events as JSON text frames
// until the client goes away, the session ends or the hub is reset.
func (h *Handler) StreamEvents() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sess, ok := conn.Locals("session").(session.Session)
		if !ok {
			conn.Close()
			return
		}

		events, cancel := h.hub.Subscribe(realtime.UserTopic(sess.UserID))

		// The client never sends anything we use; reading only notices it leaving.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		defer func() {
			cancel()
			conn.Close()
			<-gone
			log.Printf("[Realtime] User %s disconnected", sess.UserID)
		}()

		log.Printf("[Realtime] User %s connected", sess.UserID)

		for {
			select {
			case <-gone:
				return
			case ev, ok := <-events:
				if !ok {
					closeWith(conn, websocket.CloseGoingAway, "server shutting down")
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					log.Printf("[Realtime] Write to %s failed: %v", sess.UserID, err)
					return
				}
				if ev.Type == realtime.EventSessionEnded {
					closeWith(conn, websocket.CloseNormalClosure, "session ended")
					return
				}
			}
		}
	})
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
