package spotify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zspotify "github.com/zmb3/spotify/v2"

	"crates/models"
	"crates/store/storetest"
)

// pagedClient serves GetPlaylistItems from canned pages and records every
// playlist mutation.
type pagedClient struct {
	pages     []*zspotify.PlaylistItemPage
	pageCalls int

	created  []string
	replaced []zspotify.ID
	added    [][]zspotify.ID
}

func fullTrack(id, name string) *zspotify.FullTrack {
	return &zspotify.FullTrack{
		SimpleTrack: zspotify.SimpleTrack{
			ID:      zspotify.ID(id),
			Name:    name,
			Artists: []zspotify.SimpleArtist{{Name: "Artist"}},
		},
		Album: zspotify.SimpleAlbum{
			Name:   "Album",
			Images: []zspotify.Image{{URL: "http://img"}},
		},
	}
}

func page(next string, tracks ...*zspotify.FullTrack) *zspotify.PlaylistItemPage {
	p := &zspotify.PlaylistItemPage{}
	p.Next = next
	for _, tr := range tracks {
		p.Items = append(p.Items, zspotify.PlaylistItem{Track: zspotify.PlaylistItemTrack{Track: tr}})
	}
	return p
}

func (c *pagedClient) CurrentUser(_ context.Context) (*zspotify.PrivateUser, error) {
	return &zspotify.PrivateUser{User: zspotify.User{ID: "spotify-user"}}, nil
}

func (c *pagedClient) GetPlaylist(_ context.Context, playlistID zspotify.ID, _ ...zspotify.RequestOption) (*zspotify.FullPlaylist, error) {
	return &zspotify.FullPlaylist{
		SimplePlaylist: zspotify.SimplePlaylist{ID: playlistID, Name: "Imported Mix", Description: "from spotify"},
	}, nil
}

func (c *pagedClient) GetPlaylistItems(_ context.Context, _ zspotify.ID, _ ...zspotify.RequestOption) (*zspotify.PlaylistItemPage, error) {
	if c.pageCalls >= len(c.pages) {
		return page(""), nil
	}
	p := c.pages[c.pageCalls]
	c.pageCalls++
	return p, nil
}

func (c *pagedClient) CreatePlaylistForUser(_ context.Context, userID, name, description string, public, collaborative bool) (*zspotify.FullPlaylist, error) {
	c.created = append(c.created, name)
	return &zspotify.FullPlaylist{
		SimplePlaylist: zspotify.SimplePlaylist{ID: "created-playlist", Name: name},
	}, nil
}

func (c *pagedClient) ReplacePlaylistTracks(_ context.Context, playlistID zspotify.ID, trackIDs ...zspotify.ID) error {
	c.replaced = append(c.replaced, playlistID)
	return nil
}

func (c *pagedClient) AddTracksToPlaylist(_ context.Context, _ zspotify.ID, trackIDs ...zspotify.ID) (string, error) {
	c.added = append(c.added, trackIDs)
	return "snapshot", nil
}

func TestImportWalksAllPages(t *testing.T) {
	client := &pagedClient{pages: []*zspotify.PlaylistItemPage{
		page("next-1", fullTrack("t1", "One"), fullTrack("t2", "Two")),
		page("", fullTrack("t3", "Three")),
	}}
	data := storetest.New()
	owner := uuid.New()

	result, err := ImportPlaylist(context.Background(), client, data, owner, "pl1", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 2, client.pageCalls)

	assert.Equal(t, "Imported Mix", result.List.Title)
	assert.Equal(t, "from spotify", result.List.Description)
	assert.False(t, result.List.IsPublic)
	assert.Equal(t, owner, result.List.UserID)

	items, err := data.Items(context.Background(), result.List.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, it := range items {
		assert.Equal(t, i+1, it.Position)
	}
	assert.Equal(t, "Three", items[2].TrackName)
	assert.Equal(t, "Artist", items[0].ArtistName)
	assert.Equal(t, "http://img", items[0].AlbumArtURL)
}

func TestImportSkipsEpisodes(t *testing.T) {
	p := page("", fullTrack("t1", "One"))
	p.Items = append(p.Items, zspotify.PlaylistItem{})
	client := &pagedClient{pages: []*zspotify.PlaylistItemPage{p}}
	data := storetest.New()

	result, err := ImportPlaylist(context.Background(), client, data, uuid.New(), "pl1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportAppendsAfterMaxPosition(t *testing.T) {
	client := &pagedClient{pages: []*zspotify.PlaylistItemPage{
		page("", fullTrack("t1", "One"), fullTrack("t2", "Two")),
	}}
	data := storetest.New()
	owner := uuid.New()

	target := &models.List{ID: uuid.New(), UserID: owner, Title: "Existing", CreatedAt: time.Now()}
	require.NoError(t, data.CreateList(context.Background(), target))
	require.NoError(t, data.InsertItem(context.Background(), &models.ListItem{
		ID: uuid.New(), ListID: target.ID, Position: 7, TrackName: "old",
	}))

	result, err := ImportPlaylist(context.Background(), client, data, owner, "pl1", target)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, target.ID, result.List.ID)

	items, err := data.Items(context.Background(), target.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 8, items[1].Position)
	assert.Equal(t, 9, items[2].Position)
}

func TestExportCreatesPlaylistWhenNoneGiven(t *testing.T) {
	client := &pagedClient{}
	list := &models.List{ID: uuid.New(), Title: "My List", Description: "desc"}
	items := []models.ListItem{
		{SpotifyTrackID: "t1", TrackName: "One"},
		{TrackName: "manual, no id"},
		{SpotifyTrackID: "t2", TrackName: "Two"},
	}

	playlistID, err := ExportList(context.Background(), client, list, items, "")
	require.NoError(t, err)
	assert.Equal(t, "created-playlist", playlistID)
	assert.Equal(t, []string{"My List"}, client.created)
	assert.Empty(t, client.replaced)

	require.Len(t, client.added, 1)
	assert.Equal(t, []zspotify.ID{"t1", "t2"}, client.added[0])
}

func TestExportReplacesExistingPlaylist(t *testing.T) {
	client := &pagedClient{}
	list := &models.List{ID: uuid.New(), Title: "My List"}

	var items []models.ListItem
	for i := 0; i < 150; i++ {
		items = append(items, models.ListItem{SpotifyTrackID: fmt.Sprintf("t%d", i)})
	}

	playlistID, err := ExportList(context.Background(), client, list, items, "existing-playlist")
	require.NoError(t, err)
	assert.Equal(t, "existing-playlist", playlistID)
	assert.Empty(t, client.created)

	// The playlist is cleared first, then filled in batches of 100.
	assert.Equal(t, []zspotify.ID{"existing-playlist"}, client.replaced)
	require.Len(t, client.added, 2)
	assert.Len(t, client.added[0], 100)
	assert.Len(t, client.added[1], 50)
}

func TestExportEmptyListStillCreatesPlaylist(t *testing.T) {
	client := &pagedClient{}
	list := &models.List{ID: uuid.New(), Title: "Empty"}

	playlistID, err := ExportList(context.Background(), client, list, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "created-playlist", playlistID)
	assert.Empty(t, client.added)
}
