package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"crates/models"
)

// Postgres implements Store against a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CreateProfile inserts a new profile row.
func (s *Postgres) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `INSERT INTO profiles (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, query, p.ID, p.Username, p.Email, p.PasswordHash, p.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

const profileColumns = `id, username, email, password_hash, spotify_access_token, spotify_refresh_token, spotify_token_expiry, spotify_user_id, created_at`

func (s *Postgres) scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash,
		&p.SpotifyAccessToken, &p.SpotifyRefreshToken, &p.SpotifyTokenExpiry,
		&p.SpotifyUserID, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

// ProfileByID returns the profile with the given id.
func (s *Postgres) ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return s.scanProfile(s.pool.QueryRow(ctx, query, id))
}

// ProfileByEmail returns the profile with the given email.
func (s *Postgres) ProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return s.scanProfile(s.pool.QueryRow(ctx, query, email))
}

// ProfileByUsername returns the profile with the given username.
func (s *Postgres) ProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1`
	return s.scanProfile(s.pool.QueryRow(ctx, query, username))
}

// UpdateProfile changes the username, email and optionally the password hash
// of a profile. An empty passwordHash keeps the stored hash.
func (s *Postgres) UpdateProfile(ctx context.Context, id uuid.UUID, username, email, passwordHash string) error {
	query := `
        UPDATE profiles
        SET username = $2, email = $3,
            password_hash = CASE WHEN $4 = '' THEN password_hash ELSE $4 END
        WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, username, email, passwordHash)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchProfiles returns profiles whose username matches the given pattern,
// or all profiles ordered by username when the pattern is empty.
func (s *Postgres) SearchProfiles(ctx context.Context, pattern string, limit int) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	args := []any{}
	if pattern != "" {
		query += ` WHERE username ILIKE $1`
		args = append(args, "%"+pattern+"%")
	}
	query += fmt.Sprintf(` ORDER BY username LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash,
			&p.SpotifyAccessToken, &p.SpotifyRefreshToken, &p.SpotifyTokenExpiry,
			&p.SpotifyUserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SaveSpotifyCredentials stores the per-user Spotify token set.
func (s *Postgres) SaveSpotifyCredentials(ctx context.Context, id uuid.UUID, access, refresh string, expiry *time.Time, spotifyUserID string) error {
	query := `
        UPDATE profiles
        SET spotify_access_token = $2, spotify_refresh_token = $3, spotify_token_expiry = $4, spotify_user_id = $5
        WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, access, refresh, expiry, spotifyUserID)
	if err != nil {
		return fmt.Errorf("failed to save spotify credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearSpotifyCredentials removes all stored Spotify credential fields.
func (s *Postgres) ClearSpotifyCredentials(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE profiles
        SET spotify_access_token = '', spotify_refresh_token = '', spotify_token_expiry = NULL, spotify_user_id = ''
        WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear spotify credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
