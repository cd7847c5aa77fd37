// Package spotify wraps the external music service: catalog search with
// service-level credentials, the per-user OAuth token lifecycle, and the
// playlist import/export bridge.
package spotify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2/clientcredentials"

	"crates/config"
)

// Catalog search kinds.
const (
	KindTrack = "track"
	KindAlbum = "album"
)

// CatalogItem is a track or album result from the external catalog,
// denormalized into the fields stored on list items.
type CatalogItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists string `json:"artist"`
	Album   string `json:"album,omitempty"`
	ArtURL  string `json:"art_url,omitempty"`
	Year    int    `json:"year,omitempty"`
}

// Searcher is the catalog lookup surface handlers depend on.
type Searcher interface {
	Search(ctx context.Context, q, kind string, limit int) ([]CatalogItem, error)
}

type searchAPI interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

// Catalog implements Searcher using the client-credentials flow. It holds no
// per-user state.
type Catalog struct {
	api searchAPI
}

// NewCatalog builds a Catalog from the service-level application credentials.
// The underlying token source refreshes itself; no user login is involved.
func NewCatalog(cfg config.SpotifyConfig) *Catalog {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return &Catalog{api: spotify.New(cc.Client(context.Background()))}
}

// Search looks up tracks or albums. Queries shorter than two characters
// short-circuit to an empty result without calling the external service.
func (c *Catalog) Search(ctx context.Context, q, kind string, limit int) ([]CatalogItem, error) {
	if len(q) < 2 {
		return []CatalogItem{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var searchType spotify.SearchType
	switch kind {
	case KindTrack:
		searchType = spotify.SearchTypeTrack
	case KindAlbum:
		searchType = spotify.SearchTypeAlbum
	default:
		return nil, fmt.Errorf("unknown search kind %q", kind)
	}

	results, err := c.api.Search(ctx, q, searchType, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	items := []CatalogItem{}
	if results.Tracks != nil {
		for _, t := range results.Tracks.Tracks {
			items = append(items, CatalogItem{
				ID:      string(t.ID),
				Name:    t.Name,
				Artists: joinArtists(t.Artists),
				Album:   t.Album.Name,
				ArtURL:  firstImage(t.Album.Images),
				Year:    releaseYear(t.Album.ReleaseDate),
			})
		}
	}
	if results.Albums != nil {
		for _, a := range results.Albums.Albums {
			items = append(items, CatalogItem{
				ID:      string(a.ID),
				Name:    a.Name,
				Artists: joinArtists(a.Artists),
				ArtURL:  firstImage(a.Images),
				Year:    releaseYear(a.ReleaseDate),
			})
		}
	}
	return items, nil
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
