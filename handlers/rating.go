package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crates/store"
)

// saveRating is the shared path for song and album ratings. A rating of zero
// deletes the user's rating; negatives are rejected.
func saveRating(c *fiber.Ctx, kind string) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		Name   string `json:"name"`
		Artist string `json:"artist"`
		Rating int    `json:"rating"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.Name == "" || body.Artist == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and artist are required."})
	}
	if body.Rating < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating cannot be negative."})
	}

	ctx := context.Background()
	if err := Data.SaveRating(ctx, kind, userID, body.Name, body.Artist, body.Rating); err != nil {
		Log.WithError(err).Error("failed to save rating")
		return serverError(c, "Could not save rating.")
	}

	avg, count, err := Data.RatingSummary(ctx, kind, body.Name, body.Artist)
	if err != nil {
		Log.WithError(err).Warn("failed to summarize ratings")
	}

	return c.JSON(fiber.Map{"success": true, "average": avg, "count": count})
}

// RateSong stores the session user's rating for a song.
func RateSong(c *fiber.Ctx) error {
	return saveRating(c, store.KindSong)
}

// RateAlbum stores the session user's rating for an album.
func RateAlbum(c *fiber.Ctx) error {
	return saveRating(c, store.KindAlbum)
}

// ItemDetail returns the community rating summary for a song or album,
// together with the viewer's own rating when logged in.
func ItemDetail(c *fiber.Ctx) error {
	kind := c.Query("type")
	name := c.Query("name")
	artist := c.Query("artist")

	if kind != store.KindSong && kind != store.KindAlbum {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Type must be song or album."})
	}
	if name == "" || artist == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and artist are required."})
	}

	ctx := context.Background()
	avg, count, err := Data.RatingSummary(ctx, kind, name, artist)
	if err != nil {
		Log.WithError(err).Error("failed to summarize ratings")
		return serverError(c, "Could not load item.")
	}

	mine := 0
	if viewer := sessionUser(c); viewer != uuid.Nil {
		mine, _ = Data.RatingFor(ctx, kind, viewer, name, artist)
	}

	return c.JSON(fiber.Map{
		"type":    kind,
		"name":    name,
		"artist":  artist,
		"average": avg,
		"count":   count,
		"mine":    mine,
	})
}
