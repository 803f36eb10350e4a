package main

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Chat room CRUD + membership. Visibility rule: public rooms are listed
// for everyone, private rooms only for their members.
func registerRoomRoutes(protected fiber.Router, rooms *roomStore) {
	// Create room
	protected.Post("/chatrooms", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			IsPrivate   bool   `json:"isPrivate"`
			MaxMembers  int    `json:"maxMembers"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, errValidation("bad json"))
		}
		room, err := rooms.Create(c.Context(), userID, req.Name, req.Description, req.IsPrivate, req.MaxMembers)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Chat room created successfully",
			"data":    room,
		})
	})

	// List visible rooms, optional ?search= and ?isPrivate=
	protected.Get("/chatrooms", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		var isPrivate *bool
		if v := c.Query("isPrivate", ""); v != "" {
			b := v == "true"
			isPrivate = &b
		}
		list, err := rooms.List(c.Context(), userID, c.Query("search", ""), isPrivate)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": list, "count": len(list)})
	})

	// Rooms the requester belongs to
	protected.Get("/chatrooms/my-rooms", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		list, err := rooms.ListForUser(c.Context(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": list, "count": len(list)})
	})

	// Room detail
	protected.Get("/chatrooms/:id", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		room, err := rooms.Get(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if room.IsPrivate && !room.hasMember(userID) {
			return respondError(c, errForbidden("You don't have access to this chat room"))
		}
		return c.JSON(fiber.Map{"success": true, "data": room})
	})

	// Update (creator only)
	protected.Patch("/chatrooms/:id", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
			IsPrivate   *bool   `json:"isPrivate"`
			MaxMembers  *int    `json:"maxMembers"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, errValidation("bad json"))
		}
		room, err := rooms.Update(c.Context(), c.Params("id"), userID, roomPatch{
			Name:        req.Name,
			Description: req.Description,
			IsPrivate:   req.IsPrivate,
			MaxMembers:  req.MaxMembers,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Chat room updated successfully",
			"data":    room,
		})
	})

	// Delete (creator only)
	protected.Delete("/chatrooms/:id", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		if err := rooms.Delete(c.Context(), c.Params("id"), userID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Chat room deleted successfully"})
	})

	// Join
	protected.Post("/chatrooms/:id/join", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		room, err := rooms.AddMember(c.Context(), c.Params("id"), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Joined chat room successfully",
			"data":    room,
		})
	})

	// Leave
	protected.Post("/chatrooms/:id/leave", func(c *fiber.Ctx) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		}
		if err := rooms.RemoveMember(c.Context(), c.Params("id"), userID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Left chat room successfully"})
	})
}
