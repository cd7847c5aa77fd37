package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crates/models"
	"crates/store"
)

// rememberTTL is the session lifetime when the remember flag is set.
const rememberTTL = 30 * 24 * time.Hour

// Signup registers a new user profile.
func Signup(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username, email and password are required."})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		Log.WithError(err).Error("failed to hash password")
		return serverError(c, "Could not create account.")
	}

	profile := models.Profile{
		ID:           uuid.New(),
		Username:     body.Username,
		Email:        body.Email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}

	if err := Data.CreateProfile(context.Background(), &profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username or email already taken."})
		}
		Log.WithError(err).Error("failed to create profile")
		return serverError(c, "Could not create account.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Account created. Please log in.", "userID": profile.ID})
}

// Login authenticates a user and starts a session. The remember flag extends
// the session lifetime to 30 days.
func Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	profile, err := Data.ProfileByEmail(context.Background(), body.Email)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password."})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(body.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password."})
	}

	sess, err := Sessions.Get(c)
	if err != nil {
		Log.WithError(err).Error("failed to open session")
		return serverError(c, "Could not create session.")
	}
	sess.Set("userID", profile.ID)
	if body.Remember {
		sess.SetExpiry(rememberTTL)
	}
	if err := sess.Save(); err != nil {
		Log.WithError(err).Error("failed to save session")
		return serverError(c, "Could not save session.")
	}

	return c.JSON(fiber.Map{"message": "Logged in.", "username": profile.Username})
}

// Logout destroys the session and sends the browser back to the landing page.
func Logout(c *fiber.Ctx) error {
	sess, err := Sessions.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			Log.WithError(err).Warn("failed to destroy session")
		}
	}
	return c.Redirect("/", fiber.StatusFound)
}
