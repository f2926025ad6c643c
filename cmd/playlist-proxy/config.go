package main

import "time"

// Config holds server configuration loaded from environment variables
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	RedisURL string `envconfig:"REDIS_URL" required:"true"`

	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID" required:"true"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" required:"true"`
	SpotifyRedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI" required:"true"`
	SpotifyScope        string `envconfig:"SPOTIFY_SCOPE" default:"user-read-private user-read-email"`
	SpotifyAuthURL      string `envconfig:"SPOTIFY_AUTH_URL" default:"https://accounts.spotify.com/authorize"`
	SpotifyTokenURL     string `envconfig:"SPOTIFY_TOKEN_URL" default:"https://accounts.spotify.com/api/token"`
	SpotifyAPIBaseURL   string `envconfig:"SPOTIFY_API_BASE_URL" default:"https://api.spotify.com/v1"`

	CacheTTL   time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	RetryMaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"250ms"`
	RetryMaxDelay    time.Duration `envconfig:"RETRY_MAX_DELAY" default:"2s"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}
