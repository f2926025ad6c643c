package main

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/callback"
	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/health"
	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/login"
	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/logout"
	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/playlist"
	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/refresh"
	"github.com/musicrelay/spotify-playlist-proxy/internal/playlistflow"
	"github.com/musicrelay/spotify-playlist-proxy/internal/provider"
	"github.com/musicrelay/spotify-playlist-proxy/internal/session"
)

type server struct {
	cfg      Config
	router   *chi.Mux
	store    session.Store
	provider provider.Provider
	flow     *playlistflow.Flow
}

func newServer(cfg Config, store session.Store, p provider.Provider, flow *playlistflow.Flow) *server {
	srv := &server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		store:    store,
		provider: p,
		flow:     flow,
	}

	// Set up middleware
	srv.router.Use(middleware.Logger)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(middleware.Timeout(30 * time.Second))

	// Register routes
	srv.routes()

	return srv
}

func (s *server) routes() {
	s.router.Get("/health", health.New(s.flow).WithVersion(Version).ServeHTTP)

	// OAuth2 authorization-code flow
	s.router.Get("/login", login.New(login.Config{Auth: s.provider}).ServeHTTP)
	s.router.Get("/callback", callback.New(callback.Config{Exchanger: s.provider, Store: s.store}).ServeHTTP)
	s.router.Get("/refresh_token", refresh.New(refresh.Config{Flow: s.flow}).ServeHTTP)
	s.router.Get("/logout", logout.New(logout.Config{Store: s.store}).ServeHTTP)

	// Resource endpoint
	s.router.Get("/playlist", playlist.New(playlist.Config{Flow: s.flow}).ServeHTTP)
}
