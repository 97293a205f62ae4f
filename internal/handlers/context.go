package handlers

import (
	"github.com/gofiber/fiber/v2"

	"organicbasket/internal/models"
)

// currentUserID returns the authenticated user's ID from the request context.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// currentUser builds the acting user from the JWT claims stored by the auth
// middleware. Enough for ownership and privilege checks; not a DB row.
func currentUser(c *fiber.Ctx) *models.User {
	isStaff, _ := c.Locals("is_staff").(bool)
	username, _ := c.Locals("username").(string)
	return &models.User{
		ID:       currentUserID(c),
		Username: username,
		IsStaff:  isStaff,
	}
}
