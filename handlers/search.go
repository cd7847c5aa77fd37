package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"crates/spotify"
)

// Search queries the external catalog for tracks or albums. External failures
// surface as a generic 500 with no detail leaked.
func Search(c *fiber.Ctx) error {
	q := c.Query("q")
	kind := c.Query("type", spotify.KindTrack)
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	if kind != spotify.KindTrack && kind != spotify.KindAlbum {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Type must be track or album."})
	}

	items, err := Catalog.Search(context.Background(), q, kind, limit)
	if err != nil {
		Log.WithError(err).Error("catalog search failed")
		return serverError(c, "Search failed.")
	}

	return c.JSON(fiber.Map{"results": items})
}

// SearchAll runs the combined search page: tracks, albums, and users in one
// response. A failing catalog leg empties its section rather than failing the
// whole page.
func SearchAll(c *fiber.Ctx) error {
	q := c.Query("q")
	ctx := context.Background()

	tracks, err := Catalog.Search(ctx, q, spotify.KindTrack, 10)
	if err != nil {
		Log.WithError(err).Warn("track search failed")
		tracks = []spotify.CatalogItem{}
	}

	albums, err := Catalog.Search(ctx, q, spotify.KindAlbum, 10)
	if err != nil {
		Log.WithError(err).Warn("album search failed")
		albums = []spotify.CatalogItem{}
	}

	users := make([]fiber.Map, 0)
	if len(q) >= 2 {
		profiles, err := Data.SearchProfiles(ctx, q, 10)
		if err != nil {
			Log.WithError(err).Warn("profile search failed")
		}
		for _, p := range profiles {
			users = append(users, fiber.Map{"username": p.Username})
		}
	}

	return c.JSON(fiber.Map{"query": q, "tracks": tracks, "albums": albums, "users": users})
}
