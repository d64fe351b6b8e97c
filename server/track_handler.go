package server

import (
	"net/http"

	"musiclib/core/apperr"
	"musiclib/core/tracks"
	"musiclib/model"
)

// CreateTrackHandler POST /api/tracks
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req tracks.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.tracks.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

// BulkCreateTracksHandler POST /api/tracks/bulk
func (h *APIHandler) BulkCreateTracksHandler(w http.ResponseWriter, r *http.Request) {
	var req []tracks.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.tracks.CreateMany(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GetTracksHandler GET /api/tracks
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryPositiveInt(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryPositiveInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rating, err := queryRating(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	result, err := h.tracks.FindAll(r.Context(), tracks.Query{
		Search:   q.Get("search"),
		Artist:   q.Get("artist"),
		Playlist: q.Get("playlist"),
		Rating:   rating,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetTrackHandler GET /api/tracks/{id}
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.tracks.FindOne(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// UpdateTrackHandler PATCH /api/tracks/{id}
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req tracks.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.tracks.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// DeleteTrackHandler DELETE /api/tracks/{id}
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.tracks.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavoriteHandler PATCH /api/tracks/{id}/favorite and
// PATCH /api/favorites/{id}/toggle
func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.tracks.ToggleFavorite(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// TrackPlaylistHandler PATCH|DELETE /api/tracks/{id}/playlist/{playlistName}
func (h *APIHandler) TrackPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := pathVar(r, "playlistName")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var track *model.Track
	if r.Method == http.MethodDelete {
		track, err = h.tracks.RemoveFromPlaylist(r.Context(), id, name)
	} else {
		track, err = h.tracks.AddToPlaylist(r.Context(), id, name)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// UploadArtworkHandler POST /api/tracks/{id}/artwork (multipart field "file")
func (h *APIHandler) UploadArtworkHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathVar(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, tracks.MaxArtworkSize+1<<20)
	if err := r.ParseMultipartForm(tracks.MaxArtworkSize); err != nil {
		writeError(w, r, apperr.Invalid("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.Invalid("file is required"))
		return
	}
	defer file.Close()

	track, err := h.tracks.UploadArtwork(r.Context(), id, tracks.ArtworkUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}
