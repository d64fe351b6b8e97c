package server

import (
	"net/http"
)

// GetFavoritesHandler GET /api/favorites
func (h *APIHandler) GetFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.tracks.Favorites(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// FavoriteCountHandler GET /api/favorites/count
func (h *APIHandler) FavoriteCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.tracks.FavoriteCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// FavoriteStatusHandler GET /api/favorites/{id}/status
func (h *APIHandler) FavoriteStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := h.tracks.FavoriteStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// SetFavoriteHandler POST|DELETE /api/favorites/{id}
func (h *APIHandler) SetFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	set := h.tracks.SetFavorite
	if r.Method == http.MethodDelete {
		set = h.tracks.UnsetFavorite
	}
	track, err := set(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}
