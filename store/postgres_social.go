package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Follow records a follow relation. Re-following an active relation is a
// no-op success.
func (s *Postgres) Follow(ctx context.Context, follower, following uuid.UUID) error {
	if follower == following {
		return ErrSelfFollow
	}
	query := `INSERT INTO followers (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, follower, following); err != nil {
		return fmt.Errorf("failed to insert follow: %w", err)
	}
	return nil
}

// Unfollow removes a follow relation; removing an absent relation succeeds.
func (s *Postgres) Unfollow(ctx context.Context, follower, following uuid.UUID) error {
	query := `DELETE FROM followers WHERE follower_id = $1 AND following_id = $2`
	if _, err := s.pool.Exec(ctx, query, follower, following); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

// IsFollowing reports whether follower follows following.
func (s *Postgres) IsFollowing(ctx context.Context, follower, following uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM followers WHERE follower_id = $1 AND following_id = $2)`
	if err := s.pool.QueryRow(ctx, query, follower, following).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query follow: %w", err)
	}
	return exists, nil
}

// FollowCounts returns live follower and following counts for a user.
func (s *Postgres) FollowCounts(ctx context.Context, id uuid.UUID) (int, int, error) {
	var followers, following int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM followers WHERE following_id = $1`, id).Scan(&followers); err != nil {
		return 0, 0, fmt.Errorf("failed to count followers: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM followers WHERE follower_id = $1`, id).Scan(&following); err != nil {
		return 0, 0, fmt.Errorf("failed to count following: %w", err)
	}
	return followers, following, nil
}

// LikeList records a like. Re-liking is a no-op success.
func (s *Postgres) LikeList(ctx context.Context, userID, listID uuid.UUID) error {
	query := `INSERT INTO list_likes (user_id, list_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, userID, listID); err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

// UnlikeList removes a like; removing an absent like succeeds.
func (s *Postgres) UnlikeList(ctx context.Context, userID, listID uuid.UUID) error {
	query := `DELETE FROM list_likes WHERE user_id = $1 AND list_id = $2`
	if _, err := s.pool.Exec(ctx, query, userID, listID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// HasLiked reports whether the user has liked the list.
func (s *Postgres) HasLiked(ctx context.Context, userID, listID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM list_likes WHERE user_id = $1 AND list_id = $2)`
	if err := s.pool.QueryRow(ctx, query, userID, listID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query like: %w", err)
	}
	return exists, nil
}

// LikeCount returns the live like count of a list.
func (s *Postgres) LikeCount(ctx context.Context, listID uuid.UUID) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM list_likes WHERE list_id = $1`, listID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}
