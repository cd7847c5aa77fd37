package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crates/store"
)

// FollowUser makes the session user follow the named user. Following someone
// already followed is a no-op success.
func FollowUser(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	ctx := context.Background()
	target, err := Data.ProfileByUsername(ctx, c.Params("username"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
	}

	if err := Data.Follow(ctx, userID, target.ID); err != nil {
		if errors.Is(err, store.ErrSelfFollow) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot follow yourself."})
		}
		Log.WithError(err).Error("failed to follow user")
		return serverError(c, "Could not follow user.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// UnfollowUser removes the follow edge if present.
func UnfollowUser(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	ctx := context.Background()
	target, err := Data.ProfileByUsername(ctx, c.Params("username"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
	}

	if err := Data.Unfollow(ctx, userID, target.ID); err != nil {
		Log.WithError(err).Error("failed to unfollow user")
		return serverError(c, "Could not unfollow user.")
	}

	return c.JSON(fiber.Map{"success": true})
}

// LikeList records a like on a list the session user can see. Liking twice is
// a no-op success.
func LikeList(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	listID, err := uuid.Parse(c.Params("listID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
	}

	ctx := context.Background()
	if _, err := Data.ListVisible(ctx, listID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "List not found."})
	}

	if err := Data.LikeList(ctx, userID, listID); err != nil {
		Log.WithError(err).Error("failed to like list")
		return serverError(c, "Could not like list.")
	}

	count, _ := Data.LikeCount(ctx, listID)
	return c.JSON(fiber.Map{"success": true, "like_count": count})
}

// UnlikeList removes the session user's like if present.
func UnlikeList(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	listID, err := uuid.Parse(c.Params("listID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
	}

	ctx := context.Background()
	if err := Data.UnlikeList(ctx, userID, listID); err != nil {
		Log.WithError(err).Error("failed to unlike list")
		return serverError(c, "Could not unlike list.")
	}

	count, _ := Data.LikeCount(ctx, listID)
	return c.JSON(fiber.Map{"success": true, "like_count": count})
}
