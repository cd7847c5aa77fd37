package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeAndUpdateMe(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, body := doJSON(t, app, http.MethodGet, "/api/me/", nil, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["spotify_connected"])

	resp, _ = doJSON(t, app, http.MethodPut, "/api/me/", fiber.Map{"username": "alice2"}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/me/", nil, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice2", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
}

func TestUpdateMeRejectsTakenUsername(t *testing.T) {
	app, _ := newTestApp(t)
	signupAndLogin(t, app, "alice", "alice@example.com")
	bob := signupAndLogin(t, app, "bob", "bob@example.com")

	resp, body := doJSON(t, app, http.MethodPut, "/api/me/", fiber.Map{"username": "alice"}, bob)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username or email already taken.", body["error"])
}

func TestUpdateMeChangesPassword(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, _ := doJSON(t, app, http.MethodPut, "/api/me/", fiber.Map{"password": "newsecret"}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/login", fiber.Map{
		"email": "alice@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/login", fiber.Map{
		"email": "alice@example.com", "password": "newsecret",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFavoritesReplaceAll(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	resp, _ := doJSON(t, app, http.MethodPut, "/api/me/favorites", fiber.Map{
		"type": "song",
		"favorites": []fiber.Map{
			{"name": "One", "artist": "A"},
			{"name": "Two", "artist": "B"},
		},
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second save replaces the shelf instead of appending.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/me/favorites", fiber.Map{
		"type": "song",
		"favorites": []fiber.Map{
			{"name": "Three", "artist": "C"},
		},
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/me/favorites", nil, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	songs := body["songs"].([]any)
	require.Len(t, songs, 1)
	assert.Equal(t, "Three", songs[0].(map[string]any)["name"])
}

func TestFavoritesCapAndTypeValidation(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	six := make([]fiber.Map, 6)
	for i := range six {
		six[i] = fiber.Map{"name": "Song", "artist": "A"}
	}
	resp, body := doJSON(t, app, http.MethodPut, "/api/me/favorites", fiber.Map{
		"type": "song", "favorites": six,
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "At most five favorites are allowed.", body["error"])

	resp, _ = doJSON(t, app, http.MethodPut, "/api/me/favorites", fiber.Map{
		"type": "playlist", "favorites": []fiber.Map{},
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListenListAddRemove(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := signupAndLogin(t, app, "alice", "alice@example.com")

	// Adding twice keeps a single entry.
	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/me/listen-list", fiber.Map{
			"album_name": "Album", "artist": "Artist",
		}, cookies)
		require.Equal(t, http.StatusOK, resp.StatusCode, "add %d", i)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/me/listen-list", nil, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["albums"].([]any), 1)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/me/listen-list", fiber.Map{
		"album_name": "Album", "artist": "Artist",
	}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/me/listen-list", nil, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["albums"])
}
