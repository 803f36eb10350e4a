package main

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Online + typing endpoints. "Online" means a live heartbeat key, which
// is distinct from persisted membership.
func registerPresenceRoutes(protected fiber.Router, rooms *roomStore, online *onlineStore) {
	// GET /api/chatrooms/:id/presence
	protected.Get("/chatrooms/:id/presence", func(c *fiber.Ctx) error {
		if _, err := getUserID(c); err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		users, err := online.onlineInRoom(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "online": users})
	})

	// POST /api/chatrooms/:id/typing
	protected.Post("/chatrooms/:id/typing", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		roomID := c.Params("id")

		info, _ := rooms.MemberInfo(c.Context(), userID)
		name := info.Username
		if name == "" {
			name = userID
		}
		typing.mark(roomID, name, time.Now())
		return c.SendStatus(http.StatusNoContent)
	})

	// GET /api/chatrooms/:id/typing
	protected.Get("/chatrooms/:id/typing", func(c *fiber.Ctx) error {
		if _, err := getUserID(c); err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		return c.JSON(typing.active(c.Params("id"), time.Now()))
	})
}
