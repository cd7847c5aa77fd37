package main

import (
	"context"
	"encoding/gob"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crates/config"
	"crates/database"
	"crates/handlers"
	"crates/middleware"
	"crates/spotify"
	"crates/store"
)

func init() {
	// The session store serializes values with gob, so the user id type has
	// to be registered before the first session write.
	gob.Register(uuid.UUID{})
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	conf, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if err := database.Migrate(conf.Database.URL); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	pool, err := database.Connect(context.Background(), conf.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	redisStore := redis.New(redis.Config{
		Host: conf.Redis.Host,
		Port: conf.Redis.Port,
	})

	sessions := session.New(session.Config{
		Storage:    redisStore,
		Expiration: time.Duration(conf.Session.TTLHours) * time.Hour,
	})

	data := store.NewPostgres(pool)

	handlers.Data = data
	handlers.Sessions = sessions
	handlers.Catalog = spotify.NewCatalog(conf.Spotify)
	handlers.Spotify = spotify.NewTokens(conf.Spotify, data, log)
	handlers.Log = log
	middleware.Store = sessions
	middleware.Log = log

	app := fiber.New()

	// Page routes.
	app.Get("/", handlers.Index)
	app.Get("/login", handlers.LoginPage)
	app.Get("/signup", handlers.SignupPage)
	app.Get("/dashboard", middleware.PageAuth, handlers.Dashboard)
	app.Get("/list/new", middleware.PageAuth, handlers.NewListPage)
	app.Get("/list/:listID", handlers.ViewList)
	app.Get("/list/:listID/edit", middleware.PageAuth, handlers.EditList)
	app.Get("/user/:username", handlers.UserProfile)
	app.Get("/users", middleware.ValidatePageQuery, handlers.UsersDirectory)
	app.Get("/search", handlers.SearchAll)
	app.Get("/logout", handlers.Logout)

	api := app.Group("/api")

	// Authentication routes.
	api.Post("/signup", handlers.Signup)
	api.Post("/login", handlers.Login)

	// Catalog search and item details are readable anonymously.
	api.Get("/search", handlers.Search)
	api.Get("/item", handlers.ItemDetail)

	// List routes.
	listAPI := api.Group("/list", middleware.APIAuth)
	listAPI.Post("/", handlers.CreateList)
	listAPI.Put("/:listID", handlers.UpdateList)
	listAPI.Delete("/:listID", handlers.DeleteList)
	listAPI.Post("/:listID/add", handlers.AddItem)
	listAPI.Delete("/:listID/remove/:itemID", handlers.RemoveItem)
	listAPI.Post("/:listID/reorder", handlers.ReorderItem)
	listAPI.Post("/:listID/reorder-all", handlers.ReorderAll)
	listAPI.Post("/:listID/duplicate", handlers.DuplicateList)
	listAPI.Post("/:listID/like", handlers.LikeList)
	listAPI.Delete("/:listID/like", handlers.UnlikeList)
	listAPI.Post("/:listID/export", handlers.ExportList)

	// Profile and social routes.
	meAPI := api.Group("/me", middleware.APIAuth)
	meAPI.Get("/", handlers.Me)
	meAPI.Put("/", handlers.UpdateMe)
	meAPI.Get("/favorites", handlers.FavoritesShelf)
	meAPI.Put("/favorites", handlers.SaveFavorites)
	meAPI.Get("/listen-list", handlers.ListenShelf)
	meAPI.Post("/listen-list", handlers.AddListenEntry)
	meAPI.Delete("/listen-list", handlers.RemoveListenEntry)

	userAPI := api.Group("/user", middleware.APIAuth)
	userAPI.Post("/:username/follow", handlers.FollowUser)
	userAPI.Delete("/:username/follow", handlers.UnfollowUser)

	// Rating routes.
	api.Post("/rate/song", middleware.APIAuth, handlers.RateSong)
	api.Post("/rate/album", middleware.APIAuth, handlers.RateAlbum)

	// Spotify account link and playlist import.
	spotifyAPI := api.Group("/spotify", middleware.APIAuth)
	spotifyAPI.Get("/connect", handlers.SpotifyConnect)
	spotifyAPI.Get("/callback", handlers.SpotifyCallback)
	spotifyAPI.Post("/disconnect", handlers.SpotifyDisconnect)
	spotifyAPI.Post("/import", handlers.ImportPlaylist)

	log.WithField("addr", conf.Server.Addr).Info("starting server")
	log.Fatal(app.Listen(conf.Server.Addr))
}
