package main

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Message history + the REST fallback send path. The fallback path is
// for clients whose realtime channel is down; it intentionally does not
// broadcast to connected sockets (see README).
func registerMessageRoutes(protected fiber.Router, msgs *messageStore) {
	// Paged history, oldest-first within the page
	protected.Get("/chatrooms/:roomId/messages", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}

		limit := 50
		if v := c.Query("limit", ""); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		skip := 0
		if v := c.Query("skip", ""); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				skip = n
			}
		}

		page, total, err := msgs.List(c.Context(), c.Params("roomId"), userID, limit, skip)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    page,
			"total":   total,
			"count":   len(page),
		})
	})

	// Fallback send
	protected.Post("/chatrooms/:roomId/messages", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		var req struct {
			Content     string `json:"content"`
			IsAnonymous bool   `json:"isAnonymous"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, errValidation("Message content is required"))
		}
		msg, err := msgs.Append(c.Context(), c.Params("roomId"), userID, req.Content, req.IsAnonymous)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
	})

	// Delete (sender or room creator)
	protected.Delete("/chatrooms/:roomId/messages/:messageId", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		if err := msgs.Delete(c.Context(), c.Params("roomId"), c.Params("messageId"), userID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Message deleted successfully"})
	})
}
