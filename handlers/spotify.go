package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crates/models"
	"crates/spotify"
)

// SpotifyConnect starts the account-link flow: a random state goes into the
// session and the browser is sent to the authorization URL.
func SpotifyConnect(c *fiber.Ctx) error {
	if _, ok := currentUser(c); !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	state := uuid.NewString()
	sess, err := Sessions.Get(c)
	if err != nil {
		Log.WithError(err).Error("failed to open session")
		return serverError(c, "Could not start Spotify link.")
	}
	sess.Set("spotifyState", state)
	if err := sess.Save(); err != nil {
		Log.WithError(err).Error("failed to save session")
		return serverError(c, "Could not start Spotify link.")
	}

	return c.Redirect(Spotify.AuthURL(state), fiber.StatusFound)
}

// SpotifyCallback finishes the link flow. The state must match the one stored
// at the start of the flow; the code is exchanged and the credential stored on
// the profile.
func SpotifyCallback(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	sess, err := Sessions.Get(c)
	if err != nil {
		Log.WithError(err).Error("failed to open session")
		return serverError(c, "Could not link Spotify account.")
	}
	expected, _ := sess.Get("spotifyState").(string)
	sess.Delete("spotifyState")
	if err := sess.Save(); err != nil {
		Log.WithError(err).Warn("failed to save session")
	}

	if expected == "" || c.Query("state") != expected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid state parameter."})
	}
	if errParam := c.Query("error"); errParam != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Spotify authorization was denied."})
	}

	if err := Spotify.Connect(context.Background(), userID, c.Query("code")); err != nil {
		Log.WithError(err).Error("failed to link spotify account")
		return serverError(c, "Could not link Spotify account.")
	}

	return c.Redirect("/dashboard", fiber.StatusFound)
}

// SpotifyDisconnect unlinks the session user's Spotify account.
func SpotifyDisconnect(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	if err := Spotify.Disconnect(context.Background(), userID); err != nil {
		Log.WithError(err).Error("failed to unlink spotify account")
		return serverError(c, "Could not disconnect Spotify account.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ImportPlaylist copies a Spotify playlist into a local list. Without a
// target list id a new private list is created; with one, tracks are appended
// to a list the session user owns.
func ImportPlaylist(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		PlaylistID string `json:"playlist_id"`
		ListID     string `json:"list_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.PlaylistID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Playlist id is required."})
	}

	ctx := context.Background()
	profile, err := Data.ProfileByID(ctx, userID)
	if err != nil {
		Log.WithError(err).Error("failed to load profile")
		return serverError(c, "Could not import playlist.")
	}

	client, err := Spotify.UserClient(ctx, profile)
	if err != nil {
		if errors.Is(err, spotify.ErrNotConnected) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Spotify account is not connected."})
		}
		Log.WithError(err).Error("failed to build spotify client")
		return serverError(c, "Could not import playlist.")
	}

	var target *models.List
	if body.ListID != "" {
		listID, err := uuid.Parse(body.ListID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
		}
		target, err = Data.ListOwned(ctx, listID, userID)
		if err != nil {
			return accessDenied(c)
		}
	}

	result, err := spotify.ImportPlaylist(ctx, client, Data, userID, body.PlaylistID, target)
	if err != nil {
		Log.WithError(err).Error("playlist import failed")
		return serverError(c, "Could not import playlist.")
	}

	return c.JSON(fiber.Map{"success": true, "list": result.List, "imported": result.Imported})
}

// ExportList writes a list the session user owns to a Spotify playlist. With
// a playlist id the playlist is replaced wholesale; without one a new private
// playlist is created.
func ExportList(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}
	userID, _ := currentUser(c)

	var body struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	ctx := context.Background()
	profile, err := Data.ProfileByID(ctx, userID)
	if err != nil {
		Log.WithError(err).Error("failed to load profile")
		return serverError(c, "Could not export list.")
	}

	client, err := Spotify.UserClient(ctx, profile)
	if err != nil {
		if errors.Is(err, spotify.ErrNotConnected) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Spotify account is not connected."})
		}
		Log.WithError(err).Error("failed to build spotify client")
		return serverError(c, "Could not export list.")
	}

	items, err := Data.Items(ctx, list.ID)
	if err != nil {
		Log.WithError(err).Error("failed to load list items")
		return serverError(c, "Could not export list.")
	}

	playlistID, err := spotify.ExportList(ctx, client, list, items, body.PlaylistID)
	if err != nil {
		Log.WithError(err).Error("list export failed")
		return serverError(c, "Could not export list.")
	}

	return c.JSON(fiber.Map{"success": true, "playlist_id": playlistID})
}
