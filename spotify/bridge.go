package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zmb3/spotify/v2"

	"crates/models"
	"crates/store"
)

// trackBatchSize is the Spotify API limit for a single add-tracks call.
const trackBatchSize = 100

// importPageSize is the page size requested while walking a playlist.
const importPageSize = 100

// ImportResult summarizes a completed playlist import.
type ImportResult struct {
	List     *models.List `json:"list"`
	Imported int          `json:"imported"`
}

// ImportPlaylist copies an external playlist into a local list. With a target
// list the tracks are appended after the current max position; without one a
// new private list named after the playlist is created with positions 1..N in
// playlist order. Inserts are sequential single statements, so a concurrent
// reader can observe a partial import.
func ImportPlaylist(ctx context.Context, client PlaylistClient, data store.Store, owner uuid.UUID, playlistID string, target *models.List) (*ImportResult, error) {
	var collected []models.ListItem

	offset := 0
	for {
		page, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(importPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist page: %w", err)
		}

		for _, item := range page.Items {
			track := item.Track.Track
			if track == nil {
				// Episodes and local files have no track object.
				continue
			}
			collected = append(collected, models.ListItem{
				SpotifyTrackID: string(track.ID),
				TrackName:      track.Name,
				ArtistName:     joinArtists(track.Artists),
				AlbumName:      track.Album.Name,
				AlbumArtURL:    firstImage(track.Album.Images),
			})
		}

		if page.Next == "" || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	list := target
	start := 0
	if list == nil {
		playlist, err := client.GetPlaylist(ctx, spotify.ID(playlistID))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist: %w", err)
		}
		list = &models.List{
			ID:          uuid.New(),
			UserID:      owner,
			Title:       playlist.Name,
			Description: playlist.Description,
			IsRanked:    false,
			IsPublic:    false,
			CreatedAt:   time.Now(),
		}
		if err := data.CreateList(ctx, list); err != nil {
			return nil, err
		}
	} else {
		max, err := data.MaxPosition(ctx, list.ID)
		if err != nil {
			return nil, err
		}
		start = max
	}

	for i := range collected {
		it := collected[i]
		it.ID = uuid.New()
		it.ListID = list.ID
		it.Position = start + i + 1
		it.AddedAt = time.Now()
		if err := data.InsertItem(ctx, &it); err != nil {
			return nil, err
		}
	}

	return &ImportResult{List: list, Imported: len(collected)}, nil
}

// ExportList writes a local list to an external playlist. Items without a
// Spotify track id are silently skipped. An existing playlist is replaced
// wholesale (clear, then batch adds of at most 100 tracks); otherwise a new
// playlist is created first. A batch failure midway leaves the playlist
// partially populated; there is no rollback or resume.
func ExportList(ctx context.Context, client PlaylistClient, list *models.List, items []models.ListItem, playlistID string) (string, error) {
	var ids []spotify.ID
	for _, it := range items {
		if it.SpotifyTrackID == "" {
			continue
		}
		ids = append(ids, spotify.ID(it.SpotifyTrackID))
	}

	if playlistID == "" {
		user, err := client.CurrentUser(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to resolve spotify user: %w", err)
		}
		playlist, err := client.CreatePlaylistForUser(ctx, user.ID, list.Title, list.Description, false, false)
		if err != nil {
			return "", fmt.Errorf("failed to create playlist: %w", err)
		}
		playlistID = string(playlist.ID)
	} else {
		if err := client.ReplacePlaylistTracks(ctx, spotify.ID(playlistID)); err != nil {
			return "", fmt.Errorf("failed to clear playlist: %w", err)
		}
	}

	for start := 0; start < len(ids); start += trackBatchSize {
		end := start + trackBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids[start:end]...); err != nil {
			return "", fmt.Errorf("failed to add tracks: %w", err)
		}
	}

	return playlistID, nil
}
