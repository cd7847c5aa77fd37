package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"crates/models"
	"crates/store"
)

// maxFavorites caps each favorites shelf.
const maxFavorites = 5

// Me returns the session user's own profile.
func Me(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	profile, err := Data.ProfileByID(context.Background(), userID)
	if err != nil {
		Log.WithError(err).Error("failed to load profile")
		return serverError(c, "Could not load profile.")
	}

	return c.JSON(fiber.Map{
		"username":          profile.Username,
		"email":             profile.Email,
		"created_at":        profile.CreatedAt,
		"spotify_connected": profile.SpotifyLinked(),
	})
}

// UpdateMe updates the session user's username, email, or password. Empty
// fields keep their current values.
func UpdateMe(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	ctx := context.Background()
	profile, err := Data.ProfileByID(ctx, userID)
	if err != nil {
		Log.WithError(err).Error("failed to load profile")
		return serverError(c, "Could not update profile.")
	}

	if body.Username != "" {
		profile.Username = body.Username
	}
	if body.Email != "" {
		profile.Email = body.Email
	}

	passwordHash := ""
	if body.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			Log.WithError(err).Error("failed to hash password")
			return serverError(c, "Could not update profile.")
		}
		passwordHash = string(hashed)
	}

	if err := Data.UpdateProfile(ctx, userID, profile.Username, profile.Email, passwordHash); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username or email already taken."})
		}
		Log.WithError(err).Error("failed to update profile")
		return serverError(c, "Could not update profile.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// FavoritesShelf returns the session user's favorite songs and albums.
func FavoritesShelf(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	favs, err := Data.Favorites(context.Background(), userID)
	if err != nil {
		Log.WithError(err).Error("failed to load favorites")
		return serverError(c, "Could not load favorites.")
	}

	songs := make([]models.Favorite, 0)
	albums := make([]models.Favorite, 0)
	for _, f := range favs {
		switch f.Type {
		case models.FavoriteSong:
			songs = append(songs, f)
		case models.FavoriteAlbum:
			albums = append(albums, f)
		}
	}

	return c.JSON(fiber.Map{"songs": songs, "albums": albums})
}

// SaveFavorites replaces one favorites shelf wholesale. At most five entries,
// positions taken from the submitted order.
func SaveFavorites(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		Type      string `json:"type"`
		Favorites []struct {
			Name   string `json:"name"`
			Artist string `json:"artist"`
			ArtURL string `json:"art_url"`
		} `json:"favorites"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.Type != models.FavoriteSong && body.Type != models.FavoriteAlbum {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Type must be song or album."})
	}
	if len(body.Favorites) > maxFavorites {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At most five favorites are allowed."})
	}

	favs := make([]models.Favorite, 0, len(body.Favorites))
	for i, f := range body.Favorites {
		if f.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Favorite name is required."})
		}
		favs = append(favs, models.Favorite{
			UserID:   userID,
			Type:     body.Type,
			Position: i + 1,
			Name:     f.Name,
			Artist:   f.Artist,
			ArtURL:   f.ArtURL,
		})
	}

	if err := Data.ReplaceFavorites(context.Background(), userID, body.Type, favs); err != nil {
		Log.WithError(err).Error("failed to save favorites")
		return serverError(c, "Could not save favorites.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListenShelf returns the session user's listen-later albums, newest first.
func ListenShelf(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	entries, err := Data.ListenList(context.Background(), userID)
	if err != nil {
		Log.WithError(err).Error("failed to load listen list")
		return serverError(c, "Could not load listen list.")
	}

	return c.JSON(fiber.Map{"albums": entries})
}

// AddListenEntry puts an album on the session user's listen list. Adding the
// same album twice is a no-op success.
func AddListenEntry(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		AlbumName string `json:"album_name"`
		Artist    string `json:"artist"`
		ArtURL    string `json:"art_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.AlbumName == "" || body.Artist == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Album name and artist are required."})
	}

	entry := models.ListenEntry{
		UserID:    userID,
		AlbumName: body.AlbumName,
		Artist:    body.Artist,
		ArtURL:    body.ArtURL,
		AddedAt:   time.Now(),
	}
	if err := Data.AddListenEntry(context.Background(), &entry); err != nil {
		Log.WithError(err).Error("failed to add listen entry")
		return serverError(c, "Could not update listen list.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// RemoveListenEntry takes an album off the session user's listen list.
func RemoveListenEntry(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		AlbumName string `json:"album_name"`
		Artist    string `json:"artist"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	if err := Data.RemoveListenEntry(context.Background(), userID, body.AlbumName, body.Artist); err != nil {
		Log.WithError(err).Error("failed to remove listen entry")
		return serverError(c, "Could not update listen list.")
	}

	return c.JSON(fiber.Map{"success": true})
}
