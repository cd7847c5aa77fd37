package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a row in the profiles table. The spotify_* columns hold
// the per-user credential for the linked streaming account and are empty while
// the account is unlinked.
type Profile struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	SpotifyAccessToken  string     `json:"-"`
	SpotifyRefreshToken string     `json:"-"`
	SpotifyTokenExpiry  *time.Time `json:"-"`
	SpotifyUserID       string     `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

// SpotifyLinked reports whether the profile has a linked Spotify account.
func (p *Profile) SpotifyLinked() bool {
	return p.SpotifyRefreshToken != ""
}

// Favorite represents a row in the profile_favorites table. At most five rows
// exist per (user, type); saving replaces the whole set.
type Favorite struct {
	UserID   uuid.UUID `json:"-"`
	Type     string    `json:"type"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
	Artist   string    `json:"artist"`
	ArtURL   string    `json:"art_url"`
}

// Favorite types.
const (
	FavoriteSong  = "song"
	FavoriteAlbum = "album"
)

// ListenEntry represents a row in the listen_list table, unique per
// (user, album, artist).
type ListenEntry struct {
	UserID    uuid.UUID `json:"-"`
	AlbumName string    `json:"album_name"`
	Artist    string    `json:"artist"`
	ArtURL    string    `json:"art_url"`
	AddedAt   time.Time `json:"added_at"`
}
