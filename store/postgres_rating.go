package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"crates/models"
)

func ratingTable(kind string) (string, error) {
	switch kind {
	case KindSong:
		return "song_ratings", nil
	case KindAlbum:
		return "album_ratings", nil
	default:
		return "", fmt.Errorf("unknown rating kind %q", kind)
	}
}

// SaveRating upserts a rating keyed by (user, name, artist). A rating of 0 is
// a tombstone: any stored row is deleted and nothing is written.
func (s *Postgres) SaveRating(ctx context.Context, kind string, userID uuid.UUID, name, artist string, rating int) error {
	table, err := ratingTable(kind)
	if err != nil {
		return err
	}

	if rating == 0 {
		query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND name = $2 AND artist = $3`, table)
		if _, err := s.pool.Exec(ctx, query, userID, name, artist); err != nil {
			return fmt.Errorf("failed to delete rating: %w", err)
		}
		return nil
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (user_id, name, artist, rating) VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, name, artist) DO UPDATE SET rating = EXCLUDED.rating`, table)
	if _, err := s.pool.Exec(ctx, query, userID, name, artist, rating); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// RatingFor returns the user's stored rating for a subject, 0 when absent.
func (s *Postgres) RatingFor(ctx context.Context, kind string, userID uuid.UUID, name, artist string) (int, error) {
	table, err := ratingTable(kind)
	if err != nil {
		return 0, err
	}

	var rating int
	query := fmt.Sprintf(`SELECT rating FROM %s WHERE user_id = $1 AND name = $2 AND artist = $3`, table)
	err = s.pool.QueryRow(ctx, query, userID, name, artist).Scan(&rating)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query rating: %w", err)
	}
	return rating, nil
}

// RatingSummary returns the mean and count of all stored ratings for the
// exact (name, artist) pair.
func (s *Postgres) RatingSummary(ctx context.Context, kind, name, artist string) (float64, int, error) {
	table, err := ratingTable(kind)
	if err != nil {
		return 0, 0, err
	}

	var avg float64
	var count int
	query := fmt.Sprintf(`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM %s WHERE name = $1 AND artist = $2`, table)
	if err := s.pool.QueryRow(ctx, query, name, artist).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return avg, count, nil
}

// ReplaceFavorites deletes the user's favorites of the given type and writes
// the new set. The two steps are sequential statements, not a transaction.
func (s *Postgres) ReplaceFavorites(ctx context.Context, userID uuid.UUID, favType string, favs []models.Favorite) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM profile_favorites WHERE user_id = $1 AND favorite_type = $2`, userID, favType); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}

	query := `INSERT INTO profile_favorites (user_id, favorite_type, position, name, artist, art_url) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, f := range favs {
		if _, err := s.pool.Exec(ctx, query, userID, favType, f.Position, f.Name, f.Artist, f.ArtURL); err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
	}
	return nil
}

// Favorites returns all favorites of a user ordered by type and position.
func (s *Postgres) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	query := `
        SELECT user_id, favorite_type, position, name, artist, art_url
        FROM profile_favorites
        WHERE user_id = $1
        ORDER BY favorite_type, position`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favs []models.Favorite
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.UserID, &f.Type, &f.Position, &f.Name, &f.Artist, &f.ArtURL); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

// AddListenEntry records an album on the user's listen list; duplicates are
// no-op successes.
func (s *Postgres) AddListenEntry(ctx context.Context, e *models.ListenEntry) error {
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	query := `
        INSERT INTO listen_list (user_id, album_name, artist_name, art_url, added_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, e.UserID, e.AlbumName, e.Artist, e.ArtURL, e.AddedAt); err != nil {
		return fmt.Errorf("failed to insert listen entry: %w", err)
	}
	return nil
}

// RemoveListenEntry deletes an album from the user's listen list.
func (s *Postgres) RemoveListenEntry(ctx context.Context, userID uuid.UUID, albumName, artist string) error {
	query := `DELETE FROM listen_list WHERE user_id = $1 AND album_name = $2 AND artist_name = $3`
	if _, err := s.pool.Exec(ctx, query, userID, albumName, artist); err != nil {
		return fmt.Errorf("failed to delete listen entry: %w", err)
	}
	return nil
}

// ListenList returns the user's listen list, newest first.
func (s *Postgres) ListenList(ctx context.Context, userID uuid.UUID) ([]models.ListenEntry, error) {
	query := `
        SELECT user_id, album_name, artist_name, art_url, added_at
        FROM listen_list
        WHERE user_id = $1
        ORDER BY added_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listen list: %w", err)
	}
	defer rows.Close()

	var entries []models.ListenEntry
	for rows.Next() {
		var e models.ListenEntry
		if err := rows.Scan(&e.UserID, &e.AlbumName, &e.Artist, &e.ArtURL, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listen entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
