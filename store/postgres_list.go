package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"crates/models"
)

const listColumns = `id, user_id, title, description, is_ranked, is_public, created_at`

func scanList(row pgx.Row) (*models.List, error) {
	var l models.List
	err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.IsRanked, &l.IsPublic, &l.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan list: %w", err)
	}
	return &l, nil
}

func (s *Postgres) scanLists(ctx context.Context, query string, args ...any) ([]models.List, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []models.List
	for rows.Next() {
		var l models.List
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.IsRanked, &l.IsPublic, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// CreateList inserts a new list row.
func (s *Postgres) CreateList(ctx context.Context, l *models.List) error {
	query := `INSERT INTO lists (id, user_id, title, description, is_ranked, is_public, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, query, l.ID, l.UserID, l.Title, l.Description, l.IsRanked, l.IsPublic, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert list: %w", err)
	}
	return nil
}

// ListOwned resolves a list by primary key and owner in a single query. A
// list owned by someone else comes back as ErrNotFound, same as a missing row.
func (s *Postgres) ListOwned(ctx context.Context, id, owner uuid.UUID) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE id = $1 AND user_id = $2`
	return scanList(s.pool.QueryRow(ctx, query, id, owner))
}

// ListVisible resolves a list that is public or owned by the viewer. An
// anonymous viewer passes uuid.Nil.
func (s *Postgres) ListVisible(ctx context.Context, id, viewer uuid.UUID) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE id = $1 AND (is_public OR user_id = $2)`
	return scanList(s.pool.QueryRow(ctx, query, id, viewer))
}

// ListsByOwner returns all lists owned by the given user, newest first.
func (s *Postgres) ListsByOwner(ctx context.Context, owner uuid.UUID) ([]models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE user_id = $1 ORDER BY created_at DESC`
	return s.scanLists(ctx, query, owner)
}

// PublicListsByOwner returns the public lists owned by the given user, newest first.
func (s *Postgres) PublicListsByOwner(ctx context.Context, owner uuid.UUID) ([]models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE user_id = $1 AND is_public ORDER BY created_at DESC`
	return s.scanLists(ctx, query, owner)
}

// PublicOverviews returns recent public lists joined with their owners'
// usernames. Like counts are left to the caller.
func (s *Postgres) PublicOverviews(ctx context.Context, limit int) ([]models.ListOverview, error) {
	query := `
        SELECT l.id, l.user_id, l.title, l.description, l.is_ranked, l.is_public, l.created_at, p.username
        FROM lists l
        JOIN profiles p ON l.user_id = p.id
        WHERE l.is_public
        ORDER BY l.created_at DESC
        LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query public lists: %w", err)
	}
	defer rows.Close()

	var overviews []models.ListOverview
	for rows.Next() {
		var o models.ListOverview
		if err := rows.Scan(&o.ID, &o.UserID, &o.Title, &o.Description, &o.IsRanked, &o.IsPublic, &o.CreatedAt, &o.OwnerUsername); err != nil {
			return nil, fmt.Errorf("failed to scan public list: %w", err)
		}
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// UpdateListSettings replaces the mutable list metadata. The owner column is
// never touched.
func (s *Postgres) UpdateListSettings(ctx context.Context, id uuid.UUID, title, description string, isRanked, isPublic bool) error {
	query := `UPDATE lists SET title = $2, description = $3, is_ranked = $4, is_public = $5 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, title, description, isRanked, isPublic)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteList removes the list row only. Callers delete the items first; the
// two statements are not wrapped in a transaction and readers tolerate
// orphaned items.
func (s *Postgres) DeleteList(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteListItems removes every item of a list.
func (s *Postgres) DeleteListItems(ctx context.Context, listID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM list_items WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("failed to delete list items: %w", err)
	}
	return nil
}

// Items returns the items of a list ordered by position.
func (s *Postgres) Items(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error) {
	query := `
        SELECT id, list_id, position, spotify_track_id, track_name, artist_name, album_name, album_art_url, added_at
        FROM list_items
        WHERE list_id = $1
        ORDER BY position`

	rows, err := s.pool.Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	var items []models.ListItem
	for rows.Next() {
		var it models.ListItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.Position, &it.SpotifyTrackID, &it.TrackName, &it.ArtistName, &it.AlbumName, &it.AlbumArtURL, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MaxPosition returns the highest position in a list, 0 when empty.
func (s *Postgres) MaxPosition(ctx context.Context, listID uuid.UUID) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(position), 0) FROM list_items WHERE list_id = $1`
	if err := s.pool.QueryRow(ctx, query, listID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to query max position: %w", err)
	}
	return max, nil
}

// InsertItem inserts a new list item at the position already set on it.
func (s *Postgres) InsertItem(ctx context.Context, it *models.ListItem) error {
	query := `
        INSERT INTO list_items (id, list_id, position, spotify_track_id, track_name, artist_name, album_name, album_art_url, added_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.pool.Exec(ctx, query, it.ID, it.ListID, it.Position, it.SpotifyTrackID, it.TrackName, it.ArtistName, it.AlbumName, it.AlbumArtURL, it.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to insert list item: %w", err)
	}
	return nil
}

// DeleteItem removes a single item. Remaining positions are not renumbered.
func (s *Postgres) DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM list_items WHERE id = $1 AND list_id = $2`, itemID, listID)
	if err != nil {
		return fmt.Errorf("failed to delete list item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateItemPosition sets an item's position to an absolute value. No
// collision check is made against the other items.
func (s *Postgres) UpdateItemPosition(ctx context.Context, listID, itemID uuid.UUID, position int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE list_items SET position = $3 WHERE id = $1 AND list_id = $2`, itemID, listID, position)
	if err != nil {
		return fmt.Errorf("failed to update item position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
