package server

import (
	"net/http"

	"musiclib/core/userplaylists"
)

// ownerFrom 登录用户优先，其次 deviceId 查询参数
func ownerFrom(r *http.Request) userplaylists.Owner {
	return userplaylists.Owner{
		UserID:   GetUserIDFromContext(r.Context()),
		DeviceID: r.URL.Query().Get("deviceId"),
	}
}

// CreateUserPlaylistHandler POST /api/user-playlists
func (h *APIHandler) CreateUserPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req userplaylists.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.playlists.Create(r.Context(), ownerFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ListUserPlaylistsHandler GET /api/user-playlists
func (h *APIHandler) ListUserPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.playlists.FindAll(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetUserPlaylistHandler GET /api/user-playlists/{id}
func (h *APIHandler) GetUserPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.playlists.FindOne(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateUserPlaylistHandler PATCH /api/user-playlists/{id}
func (h *APIHandler) UpdateUserPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req userplaylists.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.playlists.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteUserPlaylistHandler DELETE /api/user-playlists/{id}
func (h *APIHandler) DeleteUserPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddUserPlaylistTrackHandler POST /api/user-playlists/{id}/tracks
func (h *APIHandler) AddUserPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req userplaylists.AddTrackInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.playlists.AddTrack(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveUserPlaylistTrackHandler DELETE /api/user-playlists/{id}/tracks/{trackId}
func (h *APIHandler) RemoveUserPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	trackID, err := pathVar(r, "trackId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.playlists.RemoveTrack(r.Context(), id, trackID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
