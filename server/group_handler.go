package server

import (
	"net/http"

	"musiclib/core/groups"
	"musiclib/model"
)

func (h *APIHandler) groupQuery(r *http.Request) (groups.Query, error) {
	page, err := queryPositiveInt(r, "page")
	if err != nil {
		return groups.Query{}, err
	}
	limit, err := queryPositiveInt(r, "limit")
	if err != nil {
		return groups.Query{}, err
	}
	return groups.Query{Search: r.URL.Query().Get("search"), Page: page, Limit: limit}, nil
}

// ListGroupsHandler GET /api/artists, GET /api/playlists
func (h *APIHandler) ListGroupsHandler(kind model.GroupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := h.groupQuery(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		page, err := h.groups.List(r.Context(), kind, q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// GroupNamesHandler GET /api/artists/names, GET /api/playlists/names
func (h *APIHandler) GroupNamesHandler(kind model.GroupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := h.groups.Names(r.Context(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, names)
	}
}

// GetGroupHandler GET /api/artists/{name}, GET /api/playlists/{name}
func (h *APIHandler) GetGroupHandler(kind model.GroupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := pathVar(r, "name")
		if err != nil {
			writeError(w, r, err)
			return
		}
		group, err := h.groups.Get(r.Context(), kind, name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

// CreatePlaylistHandler POST /api/playlists
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req groups.CreatePlaylistInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	group, err := h.groups.CreatePlaylist(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// DeletePlaylistHandler DELETE /api/playlists/{name}
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	name, err := pathVar(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.groups.DeletePlaylist(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaylistTrackHandler POST|DELETE /api/playlists/{name}/tracks/{trackId}
func (h *APIHandler) PlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	name, err := pathVar(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	trackID, err := pathVar(r, "trackId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var track *model.Track
	if r.Method == http.MethodDelete {
		track, err = h.groups.RemoveTrack(r.Context(), name, trackID)
	} else {
		track, err = h.groups.AddTrack(r.Context(), name, trackID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}
