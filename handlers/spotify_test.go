package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zspotify "github.com/zmb3/spotify/v2"

	"crates/config"
	"crates/models"
	"crates/spotify"
)

// fakeConnector satisfies spotify.Connector for handler tests.
type fakeConnector struct {
	client       spotify.PlaylistClient
	clientErr    error
	connected    []uuid.UUID
	disconnected []uuid.UUID
}

func (f *fakeConnector) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeConnector) Connect(_ context.Context, userID uuid.UUID, code string) error {
	f.connected = append(f.connected, userID)
	return nil
}

func (f *fakeConnector) Disconnect(_ context.Context, userID uuid.UUID) error {
	f.disconnected = append(f.disconnected, userID)
	return nil
}

func (f *fakeConnector) UserClient(_ context.Context, _ *models.Profile) (spotify.PlaylistClient, error) {
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	return f.client, nil
}

// fakePlaylistClient serves a single two-track playlist.
type fakePlaylistClient struct {
	added [][]zspotify.ID
}

func track(id, name string) *zspotify.FullTrack {
	return &zspotify.FullTrack{
		SimpleTrack: zspotify.SimpleTrack{
			ID:      zspotify.ID(id),
			Name:    name,
			Artists: []zspotify.SimpleArtist{{Name: "Artist"}},
		},
		Album: zspotify.SimpleAlbum{Name: "Album"},
	}
}

func (f *fakePlaylistClient) CurrentUser(_ context.Context) (*zspotify.PrivateUser, error) {
	return &zspotify.PrivateUser{User: zspotify.User{ID: "spotify-user"}}, nil
}

func (f *fakePlaylistClient) GetPlaylist(_ context.Context, playlistID zspotify.ID, _ ...zspotify.RequestOption) (*zspotify.FullPlaylist, error) {
	return &zspotify.FullPlaylist{
		SimplePlaylist: zspotify.SimplePlaylist{ID: playlistID, Name: "Road Trip", Description: "imported"},
	}, nil
}

func (f *fakePlaylistClient) GetPlaylistItems(_ context.Context, _ zspotify.ID, _ ...zspotify.RequestOption) (*zspotify.PlaylistItemPage, error) {
	return &zspotify.PlaylistItemPage{
		Items: []zspotify.PlaylistItem{
			{Track: zspotify.PlaylistItemTrack{Track: track("t1", "First")}},
			{Track: zspotify.PlaylistItemTrack{Track: track("t2", "Second")}},
		},
	}, nil
}

func (f *fakePlaylistClient) CreatePlaylistForUser(_ context.Context, userID, name, description string, public, collaborative bool) (*zspotify.FullPlaylist, error) {
	return &zspotify.FullPlaylist{
		SimplePlaylist: zspotify.SimplePlaylist{ID: "new-playlist", Name: name},
	}, nil
}

func (f *fakePlaylistClient) ReplacePlaylistTracks(_ context.Context, _ zspotify.ID, _ ...zspotify.ID) error {
	return nil
}

func (f *fakePlaylistClient) AddTracksToPlaylist(_ context.Context, _ zspotify.ID, trackIDs ...zspotify.ID) (string, error) {
	f.added = append(f.added, trackIDs)
	return "snapshot", nil
}

func TestSpotifyConnectFlow(t *testing.T) {
	app, _ := newTestApp(t)
	conn := &fakeConnector{}
	Spotify = conn
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/spotify/connect", nil, cookies)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	// Wrong state is rejected; the account stays unlinked.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/spotify/callback?state=bogus&code=abc", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, conn.connected)

	// The state is single use, so restart the flow for the happy path.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/spotify/connect", nil, cookies)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err = url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state = loc.Query().Get("state")

	resp, _ = doJSON(t, app, http.MethodGet, "/api/spotify/callback?state="+state+"&code=abc", nil, cookies)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Len(t, conn.connected, 1)
}

func TestSpotifyDisconnect(t *testing.T) {
	app, _ := newTestApp(t)
	conn := &fakeConnector{}
	Spotify = conn
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/spotify/disconnect", nil, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, conn.disconnected, 1)
}

func TestImportRequiresConnectedAccount(t *testing.T) {
	app, _ := newTestApp(t)
	Spotify = &fakeConnector{clientErr: spotify.ErrNotConnected}
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/spotify/import", map[string]any{
		"playlist_id": "pl1",
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Spotify account is not connected.", body["error"])
}

func TestImportCreatesPrivateList(t *testing.T) {
	app, data := newTestApp(t)
	Spotify = &fakeConnector{client: &fakePlaylistClient{}}
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/spotify/import", map[string]any{
		"playlist_id": "pl1",
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["imported"])

	list := body["list"].(map[string]any)
	assert.Equal(t, "Road Trip", list["title"])
	assert.Equal(t, false, list["is_public"])

	listID, err := uuid.Parse(list["id"].(string))
	require.NoError(t, err)
	items, err := data.Items(context.Background(), listID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].TrackName)
	assert.Equal(t, 1, items[0].Position)
	assert.Equal(t, 2, items[1].Position)
}

func TestImportIntoForeignListIsDenied(t *testing.T) {
	app, _ := newTestApp(t)
	Spotify = &fakeConnector{client: &fakePlaylistClient{}}
	owner := signupAndLogin(t, app, "alice", "alice@example.com")
	other := signupAndLogin(t, app, "bob", "bob@example.com")

	listID := createList(t, app, owner, "Alice's", true)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/spotify/import", map[string]any{
		"playlist_id": "pl1",
		"list_id":     listID.String(),
	}, other)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestImportAppendsToOwnedList(t *testing.T) {
	app, data := newTestApp(t)
	Spotify = &fakeConnector{client: &fakePlaylistClient{}}
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	listID := createList(t, app, cookies, "Mixed", false)
	resp, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/list/%s/add", listID), map[string]any{
		"track_name": "existing",
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/spotify/import", map[string]any{
		"playlist_id": "pl1",
		"list_id":     listID.String(),
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["imported"])

	items, err := data.Items(context.Background(), listID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 2, items[1].Position)
	assert.Equal(t, "First", items[1].TrackName)
	assert.Equal(t, 3, items[2].Position)
}

func TestImportRefreshesExpiredTokenOnce(t *testing.T) {
	app, data := newTestApp(t)

	refreshes := 0
	var apiAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			require.NoError(t, r.ParseForm())
			if r.PostFormValue("grant_type") == "refresh_token" {
				refreshes++
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","refresh_token":"new-refresh","expires_in":3600}`))
		case strings.HasSuffix(r.URL.Path, "/tracks"):
			apiAuth = append(apiAuth, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[` +
				`{"track":{"type":"track","id":"t1","name":"First","artists":[{"name":"Artist"}],"album":{"name":"Album"}}},` +
				`{"track":{"type":"track","id":"t2","name":"Second","artists":[{"name":"Artist"}],"album":{"name":"Album"}}}` +
				`],"next":"","limit":100,"offset":0,"total":2}`))
		default:
			apiAuth = append(apiAuth, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"pl1","name":"Road Trip","description":"imported"}`))
		}
	}))
	t.Cleanup(srv.Close)

	Spotify = spotify.NewTokens(config.SpotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		APIURL:       srv.URL + "/v1/",
	}, data, Log)

	cookies := signupAndLogin(t, app, "alice", "alice@example.com")
	profile, err := data.ProfileByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, data.SaveSpotifyCredentials(context.Background(), profile.ID, "old-access", "old-refresh", &expired, "spotify-alice"))

	resp, body := doJSON(t, app, http.MethodPost, "/api/spotify/import", map[string]any{
		"playlist_id": "pl1",
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["imported"])

	// The expired access token was refreshed once, and every API call in the
	// import used the fresh token.
	assert.Equal(t, 1, refreshes)
	require.NotEmpty(t, apiAuth)
	for _, auth := range apiAuth {
		assert.Equal(t, "Bearer new-access", auth)
	}

	// The rotated token pair was persisted on the profile.
	stored, err := data.ProfileByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.SpotifyAccessToken)
	assert.Equal(t, "new-refresh", stored.SpotifyRefreshToken)
}

func TestExportOwnedList(t *testing.T) {
	app, _ := newTestApp(t)
	client := &fakePlaylistClient{}
	Spotify = &fakeConnector{client: client}
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	listID := createList(t, app, cookies, "Outbound", false)
	for _, tr := range []map[string]any{
		{"track_name": "with id", "track_id": "t1"},
		{"track_name": "manual entry"},
	} {
		resp, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/list/%s/add", listID), tr, cookies)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/list/%s/export", listID), map[string]any{}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "new-playlist", body["playlist_id"])

	// The manual entry has no track id and is skipped.
	require.Len(t, client.added, 1)
	assert.Equal(t, []zspotify.ID{"t1"}, client.added[0])
}
