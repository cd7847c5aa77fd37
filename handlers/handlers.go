// Package handlers contains the HTTP route handlers. Shared collaborators are
// package globals assigned from main.go.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crates/spotify"
	"crates/store"
)

// Collaborators assigned from main.go (and from test setup).
var (
	Data     store.Store
	Sessions *session.Store
	Catalog  spotify.Searcher
	Spotify  spotify.Connector
	Log      *logrus.Logger
)

// currentUser returns the user id placed in Locals by the auth middleware.
func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	return userID, ok
}

// sessionUser resolves the session identity on routes that are readable
// anonymously, returning uuid.Nil for anonymous viewers.
func sessionUser(c *fiber.Ctx) uuid.UUID {
	sess, err := Sessions.Get(c)
	if err != nil {
		return uuid.Nil
	}
	if userID, ok := sess.Get("userID").(uuid.UUID); ok {
		return userID
	}
	return uuid.Nil
}

func serverError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}

// accessDenied is the uniform response for ownership mismatches. A missing
// row and someone else's row look identical on purpose.
func accessDenied(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied."})
}
