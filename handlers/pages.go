package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crates/models"
)

const usersPageSize = 25

// withLikeCounts fills in a live like count for each list. One count query
// per displayed list, as a deliberate trade for simplicity.
func withLikeCounts(ctx context.Context, lists []models.List, ownerUsername string) []models.ListOverview {
	overviews := make([]models.ListOverview, 0, len(lists))
	for _, l := range lists {
		count, err := Data.LikeCount(ctx, l.ID)
		if err != nil {
			Log.WithError(err).WithField("list_id", l.ID).Warn("failed to count likes")
		}
		overviews = append(overviews, models.ListOverview{List: l, OwnerUsername: ownerUsername, LikeCount: count})
	}
	return overviews
}

// Index is the landing page: recent public lists for anonymous visitors, a
// redirect to the dashboard for logged-in users.
func Index(c *fiber.Ctx) error {
	if sessionUser(c) != uuid.Nil {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}

	ctx := context.Background()
	overviews, err := Data.PublicOverviews(ctx, 10)
	if err != nil {
		Log.WithError(err).Error("failed to load public lists")
		return serverError(c, "Could not load public lists.")
	}
	for i := range overviews {
		count, err := Data.LikeCount(ctx, overviews[i].ID)
		if err == nil {
			overviews[i].LikeCount = count
		}
	}

	return c.JSON(fiber.Map{"public_lists": overviews})
}

// Dashboard shows the logged-in user's own lists, newest first.
func Dashboard(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	ctx := context.Background()
	profile, err := Data.ProfileByID(ctx, userID)
	if err != nil {
		Log.WithError(err).Error("failed to load profile")
		return serverError(c, "Could not load dashboard.")
	}

	lists, err := Data.ListsByOwner(ctx, userID)
	if err != nil {
		Log.WithError(err).Error("failed to load lists")
		return serverError(c, "Could not load dashboard.")
	}

	return c.JSON(fiber.Map{
		"username":          profile.Username,
		"spotify_connected": profile.SpotifyLinked(),
		"lists":             withLikeCounts(ctx, lists, profile.Username),
	})
}

// LoginPage returns the defaults for the login form. Logged-in visitors are
// sent to their dashboard instead.
func LoginPage(c *fiber.Ctx) error {
	if sessionUser(c) != uuid.Nil {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return c.JSON(fiber.Map{"email": "", "password": "", "remember": false})
}

// SignupPage returns the defaults for the registration form.
func SignupPage(c *fiber.Ctx) error {
	if sessionUser(c) != uuid.Nil {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return c.JSON(fiber.Map{"username": "", "email": "", "password": ""})
}

// NewListPage returns the defaults for the list creation form.
func NewListPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"title": "", "description": "", "is_ranked": false, "is_public": false})
}

// ViewList renders a list that is public or owned by the viewer. A private
// list of another user is indistinguishable from a missing one.
func ViewList(c *fiber.Ctx) error {
	listID, err := uuid.Parse(c.Params("listID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
	}

	viewer := sessionUser(c)
	ctx := context.Background()

	list, err := Data.ListVisible(ctx, listID, viewer)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "List not found."})
	}

	items, err := Data.Items(ctx, listID)
	if err != nil {
		Log.WithError(err).Error("failed to load list items")
		return serverError(c, "Could not load list.")
	}

	owner, err := Data.ProfileByID(ctx, list.UserID)
	if err != nil {
		Log.WithError(err).Error("failed to load list owner")
		return serverError(c, "Could not load list.")
	}

	likeCount, _ := Data.LikeCount(ctx, listID)
	liked := false
	if viewer != uuid.Nil {
		liked, _ = Data.HasLiked(ctx, viewer, listID)
	}

	return c.JSON(fiber.Map{
		"list":           list,
		"items":          items,
		"owner_username": owner.Username,
		"is_owner":       viewer == list.UserID,
		"like_count":     likeCount,
		"liked":          liked,
	})
}

// EditList renders the owner's edit view of a list.
func EditList(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return serverError(c, "Server error, invalid session user.")
	}

	listID, err := uuid.Parse(c.Params("listID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id."})
	}

	ctx := context.Background()
	list, err := Data.ListOwned(ctx, listID, userID)
	if err != nil {
		return accessDenied(c)
	}

	items, err := Data.Items(ctx, listID)
	if err != nil {
		Log.WithError(err).Error("failed to load list items")
		return serverError(c, "Could not load list.")
	}

	return c.JSON(fiber.Map{"list": list, "items": items})
}

// UserProfile is a user's public page: profile, public lists, follow counts.
func UserProfile(c *fiber.Ctx) error {
	ctx := context.Background()

	profile, err := Data.ProfileByUsername(ctx, c.Params("username"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
	}

	lists, err := Data.PublicListsByOwner(ctx, profile.ID)
	if err != nil {
		Log.WithError(err).Error("failed to load public lists")
		return serverError(c, "Could not load profile.")
	}

	followers, following, err := Data.FollowCounts(ctx, profile.ID)
	if err != nil {
		Log.WithError(err).Error("failed to count follows")
		return serverError(c, "Could not load profile.")
	}

	viewer := sessionUser(c)
	isFollowing := false
	if viewer != uuid.Nil {
		isFollowing, _ = Data.IsFollowing(ctx, viewer, profile.ID)
	}

	favorites, err := Data.Favorites(ctx, profile.ID)
	if err != nil {
		Log.WithError(err).Warn("failed to load favorites")
	}

	return c.JSON(fiber.Map{
		"profile":      fiber.Map{"username": profile.Username, "created_at": profile.CreatedAt},
		"lists":        withLikeCounts(ctx, lists, profile.Username),
		"followers":    followers,
		"following":    following,
		"is_following": isFollowing,
		"favorites":    favorites,
	})
}

// UsersDirectory is the public user directory with an optional username
// pattern filter and simple paging.
func UsersDirectory(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))

	profiles, err := Data.SearchProfiles(context.Background(), c.Query("q"), page*usersPageSize)
	if err != nil {
		Log.WithError(err).Error("failed to search profiles")
		return serverError(c, "Could not load users.")
	}

	start := (page - 1) * usersPageSize
	if start > len(profiles) {
		start = len(profiles)
	}
	profiles = profiles[start:]

	users := make([]fiber.Map, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, fiber.Map{"username": p.Username, "created_at": p.CreatedAt})
	}
	return c.JSON(fiber.Map{"users": users, "page": page})
}
