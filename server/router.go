package server

import (
	"net/http"

	"musiclib/model"

	"github.com/gorilla/mux"
)

// NewRouter registers every route. Literal segments such as /favorites or
// /names are registered before the {id}/{name} patterns they would collide
// with. CORS wraps the router so preflight requests never reach route matching.
func NewRouter(h *APIHandler) http.Handler {
	router := mux.NewRouter().UseEncodedPath()

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/events", h.EventsHandler).Methods(http.MethodGet)

	// 用户认证
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/profile", h.AuthMiddleware(h.ProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/profile", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/auth/logout", h.AuthMiddleware(h.LogoutHandler)).Methods(http.MethodPost)

	// 曲目
	router.HandleFunc("/api/tracks", h.CreateTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/bulk", h.BulkCreateTracksHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/favorites", h.GetFavoritesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", h.UpdateTrackHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/tracks/{id}", h.DeleteTrackHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/favorite", h.ToggleFavoriteHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/tracks/{id}/playlist/{playlistName}", h.TrackPlaylistHandler).Methods(http.MethodPatch, http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/artwork", h.UploadArtworkHandler).Methods(http.MethodPost)

	// 艺人 / 旧版歌单分组
	router.HandleFunc("/api/artists", h.ListGroupsHandler(model.GroupByArtist)).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/names", h.GroupNamesHandler(model.GroupByArtist)).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{name}", h.GetGroupHandler(model.GroupByArtist)).Methods(http.MethodGet)

	router.HandleFunc("/api/playlists", h.ListGroupsHandler(model.GroupByPlaylist)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", h.CreatePlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/names", h.GroupNamesHandler(model.GroupByPlaylist)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{name}", h.GetGroupHandler(model.GroupByPlaylist)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{name}", h.DeletePlaylistHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{name}/tracks/{trackId}", h.PlaylistTrackHandler).Methods(http.MethodPost, http.MethodDelete)

	// 收藏
	router.HandleFunc("/api/favorites", h.GetFavoritesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/count", h.FavoriteCountHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/{id}/status", h.FavoriteStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/{id}/toggle", h.ToggleFavoriteHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/favorites/{id}", h.SetFavoriteHandler).Methods(http.MethodPost, http.MethodDelete)

	// 用户歌单，登录可选
	router.HandleFunc("/api/user-playlists", h.OptionalAuthMiddleware(h.CreateUserPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/user-playlists", h.OptionalAuthMiddleware(h.ListUserPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/user-playlists/{id}", h.OptionalAuthMiddleware(h.GetUserPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/user-playlists/{id}", h.OptionalAuthMiddleware(h.UpdateUserPlaylistHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/user-playlists/{id}", h.OptionalAuthMiddleware(h.DeleteUserPlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/user-playlists/{id}/tracks", h.OptionalAuthMiddleware(h.AddUserPlaylistTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/user-playlists/{id}/tracks/{trackId}", h.OptionalAuthMiddleware(h.RemoveUserPlaylistTrackHandler)).Methods(http.MethodDelete)

	return requestLogger(corsMiddleware(router))
}
