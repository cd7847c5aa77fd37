package handlers

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"crates/middleware"
	"crates/spotify"
	"crates/store/storetest"
)

func init() {
	gob.Register(uuid.UUID{})
}

// fakeCatalog is a canned Searcher for search handler tests.
type fakeCatalog struct {
	items []spotify.CatalogItem
	err   error
}

func (f *fakeCatalog) Search(_ context.Context, q, kind string, limit int) ([]spotify.CatalogItem, error) {
	if len(q) < 2 {
		return []spotify.CatalogItem{}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// newTestApp wires the handler globals to an in-memory store and a memory
// session store and registers the same routes as main.go.
func newTestApp(t *testing.T) (*fiber.App, *storetest.Store) {
	t.Helper()

	data := storetest.New()
	sessions := session.New()

	log := logrus.New()
	log.SetOutput(io.Discard)

	Data = data
	Sessions = sessions
	Catalog = &fakeCatalog{}
	Spotify = nil
	Log = log
	middleware.Store = sessions
	middleware.Log = log

	app := fiber.New()

	app.Get("/", Index)
	app.Get("/login", LoginPage)
	app.Get("/signup", SignupPage)
	app.Get("/dashboard", middleware.PageAuth, Dashboard)
	app.Get("/list/new", middleware.PageAuth, NewListPage)
	app.Get("/list/:listID", ViewList)
	app.Get("/list/:listID/edit", middleware.PageAuth, EditList)
	app.Get("/user/:username", UserProfile)
	app.Get("/users", middleware.ValidatePageQuery, UsersDirectory)
	app.Get("/search", SearchAll)
	app.Get("/logout", Logout)

	api := app.Group("/api")
	api.Post("/signup", Signup)
	api.Post("/login", Login)
	api.Get("/search", Search)
	api.Get("/item", ItemDetail)

	listAPI := api.Group("/list", middleware.APIAuth)
	listAPI.Post("/", CreateList)
	listAPI.Put("/:listID", UpdateList)
	listAPI.Delete("/:listID", DeleteList)
	listAPI.Post("/:listID/add", AddItem)
	listAPI.Delete("/:listID/remove/:itemID", RemoveItem)
	listAPI.Post("/:listID/reorder", ReorderItem)
	listAPI.Post("/:listID/reorder-all", ReorderAll)
	listAPI.Post("/:listID/duplicate", DuplicateList)
	listAPI.Post("/:listID/like", LikeList)
	listAPI.Delete("/:listID/like", UnlikeList)
	listAPI.Post("/:listID/export", ExportList)

	meAPI := api.Group("/me", middleware.APIAuth)
	meAPI.Get("/", Me)
	meAPI.Put("/", UpdateMe)
	meAPI.Get("/favorites", FavoritesShelf)
	meAPI.Put("/favorites", SaveFavorites)
	meAPI.Get("/listen-list", ListenShelf)
	meAPI.Post("/listen-list", AddListenEntry)
	meAPI.Delete("/listen-list", RemoveListenEntry)

	userAPI := api.Group("/user", middleware.APIAuth)
	userAPI.Post("/:username/follow", FollowUser)
	userAPI.Delete("/:username/follow", UnfollowUser)

	api.Post("/rate/song", middleware.APIAuth, RateSong)
	api.Post("/rate/album", middleware.APIAuth, RateAlbum)

	spotifyAPI := api.Group("/spotify", middleware.APIAuth)
	spotifyAPI.Get("/connect", SpotifyConnect)
	spotifyAPI.Get("/callback", SpotifyCallback)
	spotifyAPI.Post("/disconnect", SpotifyDisconnect)
	spotifyAPI.Post("/import", ImportPlaylist)

	return app, data
}

// doJSON performs a request against the test app with an optional session
// cookie and decodes the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, cookies []*http.Cookie) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// signupAndLogin registers a user and returns the session cookies of a fresh
// login.
func signupAndLogin(t *testing.T, app *fiber.App, username, email string) []*http.Cookie {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/signup", fiber.Map{
		"username": username,
		"email":    email,
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/login", fiber.Map{
		"email":    email,
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies())

	return resp.Cookies()
}

// createList makes a list through the API and returns its id.
func createList(t *testing.T, app *fiber.App, cookies []*http.Cookie, title string, public bool) uuid.UUID {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/list/", fiber.Map{
		"title":     title,
		"is_public": public,
	}, cookies)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)
	return id
}
