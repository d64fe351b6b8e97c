package server

import (
	"musiclib/config"
	"musiclib/core/auth"
	"musiclib/core/events"
	"musiclib/core/groups"
	"musiclib/core/tracks"
	"musiclib/core/userplaylists"
	"musiclib/repository"

	"gorm.io/gorm"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	tracks    *tracks.Service
	groups    *groups.Service
	playlists *userplaylists.Service
	auth      *auth.Service
	hub       *events.Hub
	db        *gorm.DB
}

// NewAPIHandler builds the repositories and services on top of gdb. revoker,
// artwork and hub are optional.
func NewAPIHandler(gdb *gorm.DB, cfg *config.Config, revoker auth.Revoker, artwork tracks.ArtworkStore, hub *events.Hub) *APIHandler {
	var pub events.Publisher
	if hub != nil {
		pub = hub
	}

	trackRepo := repository.NewGormTrackRepository(gdb)
	groupRepo := repository.NewGormGroupRepository(gdb)
	playlistRepo := repository.NewGormUserPlaylistRepository(gdb)
	userRepo := repository.NewGormUserRepository(gdb)

	trackSvc := tracks.NewService(trackRepo, artwork, pub)
	return &APIHandler{
		tracks:    trackSvc,
		groups:    groups.NewService(groupRepo, trackSvc, pub),
		playlists: userplaylists.NewService(playlistRepo, trackRepo, cfg.AllowUnscopedPlaylists, pub),
		auth:      auth.NewService(userRepo, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn), revoker),
		hub:       hub,
		db:        gdb,
	}
}
