package models

import (
	"time"

	"github.com/google/uuid"
)

// List represents a row in the lists table. The owner is immutable after
// creation.
type List struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsRanked    bool      `json:"is_ranked"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListItem represents a row in the list_items table. Positions are 1-based;
// removal leaves gaps and reordering does not enforce uniqueness.
type ListItem struct {
	ID             uuid.UUID `json:"id"`
	ListID         uuid.UUID `json:"list_id"`
	Position       int       `json:"position"`
	SpotifyTrackID string    `json:"spotify_track_id"`
	TrackName      string    `json:"track_name"`
	ArtistName     string    `json:"artist_name"`
	AlbumName      string    `json:"album_name"`
	AlbumArtURL    string    `json:"album_art_url"`
	AddedAt        time.Time `json:"added_at"`
}

// ListOverview is a list row joined with its owner's username, used on the
// landing page, dashboard and profile views. LikeCount is filled in by a live
// count query per displayed list.
type ListOverview struct {
	List
	OwnerUsername string `json:"owner_username"`
	LikeCount     int    `json:"like_count"`
}
