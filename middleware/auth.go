package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store and Log are assigned from main.go.
var Store *session.Store
var Log *logrus.Logger

// resolveUser pulls the authenticated user id out of the session, if any.
func resolveUser(c *fiber.Ctx) (uuid.UUID, bool) {
	sess, err := Store.Get(c)
	if err != nil {
		Log.WithError(err).Warn("failed to load session")
		return uuid.Nil, false
	}

	raw := sess.Get("userID")
	if raw == nil {
		return uuid.Nil, false
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		Log.WithField("value", raw).Warn("session userID has unexpected type")
		return uuid.Nil, false
	}
	return userID, true
}

// APIAuth rejects unauthenticated API calls with 401.
func APIAuth(c *fiber.Ctx) error {
	userID, ok := resolveUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in."})
	}
	c.Locals("userID", userID)
	return c.Next()
}

// PageAuth redirects unauthenticated browser navigations to the login page.
func PageAuth(c *fiber.Ctx) error {
	userID, ok := resolveUser(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}
	c.Locals("userID", userID)
	return c.Next()
}
