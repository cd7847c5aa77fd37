package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crates/models"
)

// ownedList resolves the list route parameter against the session user. Any
// miss, including a list owned by someone else, is reported as a denial.
func ownedList(c *fiber.Ctx) (*models.List, error) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, serverError(c, "Server error, invalid session user.")
	}

	listID, err := uuid.Parse(c.Params("listID"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
	}

	list, err := Data.ListOwned(context.Background(), listID, userID)
	if err != nil {
		return nil, accessDenied(c)
	}
	return list, nil
}

// CreateList creates a new list owned by the session user.
func CreateList(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsRanked    bool   `json:"is_ranked"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required."})
	}

	list := models.List{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       body.Title,
		Description: body.Description,
		IsRanked:    body.IsRanked,
		IsPublic:    body.IsPublic,
		CreatedAt:   time.Now(),
	}

	if err := Data.CreateList(context.Background(), &list); err != nil {
		Log.WithError(err).Error("failed to create list")
		return serverError(c, "Could not create list.")
	}

	return c.Status(fiber.StatusCreated).JSON(list)
}

// UpdateList replaces the list settings. The owner never changes.
func UpdateList(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsRanked    bool   `json:"is_ranked"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required."})
	}

	if err := Data.UpdateListSettings(context.Background(), list.ID, body.Title, body.Description, body.IsRanked, body.IsPublic); err != nil {
		Log.WithError(err).Error("failed to update list")
		return serverError(c, "Could not update list.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteList removes a list and its items. Items first, then the list row;
// the two statements are not a transaction, and readers tolerate orphans.
func DeleteList(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}

	ctx := context.Background()
	if err := Data.DeleteListItems(ctx, list.ID); err != nil {
		Log.WithError(err).Error("failed to delete list items")
		return serverError(c, "Could not delete list.")
	}
	if err := Data.DeleteList(ctx, list.ID); err != nil {
		Log.WithError(err).Error("failed to delete list")
		return serverError(c, "Could not delete list.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// AddItem appends a catalog item to a list. The next position is the current
// max plus one; concurrent adds can compute the same value, which is an
// accepted anomaly.
func AddItem(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}

	var body struct {
		TrackID     string `json:"track_id"`
		TrackName   string `json:"track_name"`
		ArtistName  string `json:"artist_name"`
		AlbumName   string `json:"album_name"`
		AlbumArtURL string `json:"album_art_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if body.TrackName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Track name is required."})
	}

	ctx := context.Background()
	max, err := Data.MaxPosition(ctx, list.ID)
	if err != nil {
		Log.WithError(err).Error("failed to compute next position")
		return serverError(c, "Could not add item.")
	}

	item := models.ListItem{
		ID:             uuid.New(),
		ListID:         list.ID,
		Position:       max + 1,
		SpotifyTrackID: body.TrackID,
		TrackName:      body.TrackName,
		ArtistName:     body.ArtistName,
		AlbumName:      body.AlbumName,
		AlbumArtURL:    body.AlbumArtURL,
		AddedAt:        time.Now(),
	}

	if err := Data.InsertItem(ctx, &item); err != nil {
		Log.WithError(err).Error("failed to insert item")
		return serverError(c, "Could not add item.")
	}

	return c.JSON(fiber.Map{"success": true, "item": item})
}

// RemoveItem deletes a single item. Remaining positions keep their gaps.
func RemoveItem(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}

	itemID, err := uuid.Parse(c.Params("itemID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id."})
	}

	if err := Data.DeleteItem(context.Background(), list.ID, itemID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found."})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ReorderItem sets one item's position to an absolute value, with no
// collision check against the other items.
func ReorderItem(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}

	var body struct {
		ItemID      uuid.UUID `json:"item_id"`
		NewPosition int       `json:"new_position"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	if err := Data.UpdateItemPosition(context.Background(), list.ID, body.ItemID, body.NewPosition); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found."})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ReorderAll applies a caller-supplied set of (item, position) pairs
// verbatim, one update per pair. The caller is trusted to send a consistent
// permutation.
func ReorderAll(c *fiber.Ctx) error {
	list, errResp := ownedList(c)
	if list == nil {
		return errResp
	}

	var body struct {
		Order []struct {
			ItemID   uuid.UUID `json:"item_id"`
			Position int       `json:"position"`
		} `json:"order"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	ctx := context.Background()
	for _, entry := range body.Order {
		if err := Data.UpdateItemPosition(ctx, list.ID, entry.ItemID, entry.Position); err != nil {
			Log.WithError(err).WithField("item_id", entry.ItemID).Warn("failed to update position")
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// DuplicateList copies a visible list and its items verbatim into a new
// private list owned by the caller.
func DuplicateList(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	listID, err := uuid.Parse(c.Params("listID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
	}

	ctx := context.Background()
	source, err := Data.ListVisible(ctx, listID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "List not found."})
	}

	items, err := Data.Items(ctx, source.ID)
	if err != nil {
		Log.WithError(err).Error("failed to load source items")
		return serverError(c, "Could not duplicate list.")
	}

	copyList := models.List{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       source.Title + " (Copy)",
		Description: source.Description,
		IsRanked:    source.IsRanked,
		IsPublic:    false,
		CreatedAt:   time.Now(),
	}
	if err := Data.CreateList(ctx, &copyList); err != nil {
		Log.WithError(err).Error("failed to create duplicate")
		return serverError(c, "Could not duplicate list.")
	}

	for _, it := range items {
		dup := it
		dup.ID = uuid.New()
		dup.ListID = copyList.ID
		dup.AddedAt = time.Now()
		if err := Data.InsertItem(ctx, &dup); err != nil {
			Log.WithError(err).Error("failed to copy item")
			return serverError(c, "Could not duplicate list.")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(copyList)
}
