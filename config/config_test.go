package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", conf.Server.Addr)
	assert.Equal(t, "localhost", conf.Redis.Host)
	assert.Equal(t, 6379, conf.Redis.Port)
	assert.Equal(t, 24, conf.Session.TTLHours)
	assert.Equal(t, spotifyauth.AuthURL, conf.Spotify.AuthURL)
	assert.Equal(t, spotifyauth.TokenURL, conf.Spotify.TokenURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":8080")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_TOKEN_URL", "http://localhost:9999/token")

	conf, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", conf.Server.Addr)
	assert.Equal(t, "postgres://test:test@db:5432/test", conf.Database.URL)
	assert.Equal(t, "client-id", conf.Spotify.ClientID)
	assert.Equal(t, "http://localhost:9999/token", conf.Spotify.TokenURL)
}
