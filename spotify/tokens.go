package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"crates/config"
	"crates/models"
	"crates/store"
)

// ErrNotConnected is returned when a profile has no usable Spotify
// credential: the account was never linked, or a refresh attempt failed.
var ErrNotConnected = errors.New("spotify account not connected")

// PlaylistClient is the subset of the Spotify Web API the import/export
// bridge uses, satisfied by *spotify.Client and faked in tests.
type PlaylistClient interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	GetPlaylist(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error)
	ReplacePlaylistTracks(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) error
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
}

// Connector manages the per-user external credential lifecycle.
type Connector interface {
	AuthURL(state string) string
	Connect(ctx context.Context, userID uuid.UUID, code string) error
	Disconnect(ctx context.Context, userID uuid.UUID) error
	UserClient(ctx context.Context, p *models.Profile) (PlaylistClient, error)
}

// Tokens implements Connector on top of the authorization-code grant. Token
// state lives on the profile row; refresh happens lazily when a per-user call
// is attempted with an expired access token. Concurrent refreshes for the
// same user are possible and the last write wins.
type Tokens struct {
	conf   *oauth2.Config
	apiURL string
	data   store.Store
	log    *logrus.Logger
}

// NewTokens builds the token lifecycle from the application credentials.
func NewTokens(cfg config.SpotifyConfig, data store.Store, log *logrus.Logger) *Tokens {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	return &Tokens{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				string(spotifyauth.ScopePlaylistReadPrivate),
				string(spotifyauth.ScopePlaylistReadCollaborative),
				string(spotifyauth.ScopePlaylistModifyPrivate),
				string(spotifyauth.ScopePlaylistModifyPublic),
			},
			Endpoint: oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		apiURL: cfg.APIURL,
		data:   data,
		log:    log,
	}
}

// AuthURL returns the authorization URL the user is sent to.
func (t *Tokens) AuthURL(state string) string {
	return t.conf.AuthCodeURL(state)
}

// Connect exchanges an authorization code and stores the resulting access
// token, refresh token, expiry and external user id on the profile.
func (t *Tokens) Connect(ctx context.Context, userID uuid.UUID, code string) error {
	tok, err := t.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	user, err := t.client(ctx, tok).CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve spotify user: %w", err)
	}

	expiry := tok.Expiry
	if err := t.data.SaveSpotifyCredentials(ctx, userID, tok.AccessToken, tok.RefreshToken, &expiry, user.ID); err != nil {
		return fmt.Errorf("failed to store spotify credentials: %w", err)
	}

	t.log.WithFields(logrus.Fields{"user_id": userID, "spotify_user": user.ID}).Info("spotify account linked")
	return nil
}

// Disconnect clears every stored credential field.
func (t *Tokens) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return t.data.ClearSpotifyCredentials(ctx, userID)
}

// UserClient returns an authorized client for the profile. An expired access
// token triggers exactly one refresh; a rotated refresh token overwrites the
// stored one. When the refresh fails the stored state is left untouched and
// the profile resolves to not connected for this request.
func (t *Tokens) UserClient(ctx context.Context, p *models.Profile) (PlaylistClient, error) {
	if !p.SpotifyLinked() {
		return nil, ErrNotConnected
	}

	tok := &oauth2.Token{
		AccessToken:  p.SpotifyAccessToken,
		RefreshToken: p.SpotifyRefreshToken,
		TokenType:    "Bearer",
	}
	if p.SpotifyTokenExpiry != nil {
		tok.Expiry = *p.SpotifyTokenExpiry
	}

	if tok.Valid() {
		return t.client(ctx, tok), nil
	}

	fresh, err := t.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		t.log.WithError(err).WithField("user_id", p.ID).Warn("spotify token refresh failed")
		return nil, ErrNotConnected
	}

	if fresh.AccessToken != p.SpotifyAccessToken || fresh.RefreshToken != p.SpotifyRefreshToken {
		refresh := fresh.RefreshToken
		if refresh == "" {
			refresh = p.SpotifyRefreshToken
		}
		expiry := fresh.Expiry
		if err := t.data.SaveSpotifyCredentials(ctx, p.ID, fresh.AccessToken, refresh, &expiry, p.SpotifyUserID); err != nil {
			t.log.WithError(err).WithField("user_id", p.ID).Warn("failed to persist refreshed token")
		}
	}

	return t.client(ctx, fresh), nil
}

// client builds a zmb3 client from a static token. The token source is
// static on purpose: refresh and persistence stay under UserClient's control.
func (t *Tokens) client(ctx context.Context, tok *oauth2.Token) *spotify.Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	opts := []spotify.ClientOption{}
	if t.apiURL != "" {
		opts = append(opts, spotify.WithBaseURL(t.apiURL))
	}
	return spotify.New(httpClient, opts...)
}
