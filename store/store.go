// Package store defines the data access layer over the relational datastore.
//
// Handlers depend on the Store interface; Postgres is the production
// implementation and storetest carries an in-memory one for handler tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"crates/models"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned when a row does not exist. For owner-scoped
	// lookups a row owned by someone else is reported the same way, so a
	// denial never discloses existence.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// e.g. registering an already taken username or email.
	ErrDuplicate = errors.New("already exists")

	// ErrSelfFollow is returned when a user attempts to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
)

// Rating kinds accepted by the rating operations.
const (
	KindSong  = "song"
	KindAlbum = "album"
)

// Store is the full data access surface of the application.
type Store interface {
	// Profiles.
	CreateProfile(ctx context.Context, p *models.Profile) error
	ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	ProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email, passwordHash string) error
	SearchProfiles(ctx context.Context, pattern string, limit int) ([]models.Profile, error)
	SaveSpotifyCredentials(ctx context.Context, id uuid.UUID, access, refresh string, expiry *time.Time, spotifyUserID string) error
	ClearSpotifyCredentials(ctx context.Context, id uuid.UUID) error

	// Lists. ListOwned resolves by primary key and owner in one query;
	// ListVisible relaxes that to public-or-owner.
	CreateList(ctx context.Context, l *models.List) error
	ListOwned(ctx context.Context, id, owner uuid.UUID) (*models.List, error)
	ListVisible(ctx context.Context, id, viewer uuid.UUID) (*models.List, error)
	ListsByOwner(ctx context.Context, owner uuid.UUID) ([]models.List, error)
	PublicListsByOwner(ctx context.Context, owner uuid.UUID) ([]models.List, error)
	PublicOverviews(ctx context.Context, limit int) ([]models.ListOverview, error)
	UpdateListSettings(ctx context.Context, id uuid.UUID, title, description string, isRanked, isPublic bool) error
	DeleteList(ctx context.Context, id uuid.UUID) error
	DeleteListItems(ctx context.Context, listID uuid.UUID) error

	// List items, ordered by position.
	Items(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error)
	MaxPosition(ctx context.Context, listID uuid.UUID) (int, error)
	InsertItem(ctx context.Context, it *models.ListItem) error
	DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error
	UpdateItemPosition(ctx context.Context, listID, itemID uuid.UUID, position int) error

	// Social graph. Follow and Like are idempotent.
	Follow(ctx context.Context, follower, following uuid.UUID) error
	Unfollow(ctx context.Context, follower, following uuid.UUID) error
	IsFollowing(ctx context.Context, follower, following uuid.UUID) (bool, error)
	FollowCounts(ctx context.Context, id uuid.UUID) (followers, following int, err error)
	LikeList(ctx context.Context, userID, listID uuid.UUID) error
	UnlikeList(ctx context.Context, userID, listID uuid.UUID) error
	HasLiked(ctx context.Context, userID, listID uuid.UUID) (bool, error)
	LikeCount(ctx context.Context, listID uuid.UUID) (int, error)

	// Ratings, keyed by (user, name, artist). Saving rating 0 deletes any
	// stored row instead of persisting a zero.
	SaveRating(ctx context.Context, kind string, userID uuid.UUID, name, artist string, rating int) error
	RatingFor(ctx context.Context, kind string, userID uuid.UUID, name, artist string) (int, error)
	RatingSummary(ctx context.Context, kind, name, artist string) (avg float64, count int, err error)

	// Profile favorites, replace-all per (user, type), at most five rows.
	ReplaceFavorites(ctx context.Context, userID uuid.UUID, favType string, favs []models.Favorite) error
	Favorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)

	// Listen list.
	AddListenEntry(ctx context.Context, e *models.ListenEntry) error
	RemoveListenEntry(ctx context.Context, userID uuid.UUID, albumName, artist string) error
	ListenList(ctx context.Context, userID uuid.UUID) ([]models.ListenEntry, error)
}
