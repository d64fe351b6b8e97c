package tracks

import (
	"io"

	"musiclib/model"
)

// CreateInput is a new track as submitted by clients or the importer.
type CreateInput struct {
	URL      string   `json:"url" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Artist   string   `json:"artist"`
	Artwork  string   `json:"artwork"`
	Rating   *int     `json:"rating" validate:"omitempty,oneof=0 1"`
	Playlist []string `json:"playlist"`
	Duration *float64 `json:"duration" validate:"omitempty,gte=0"`
	Genre    string   `json:"genre"`
}

func (in *CreateInput) toTrack() *model.Track {
	t := &model.Track{
		URL:      in.URL,
		Title:    in.Title,
		Artist:   in.Artist,
		Artwork:  in.Artwork,
		Playlist: in.Playlist,
		Duration: in.Duration,
		Genre:    in.Genre,
	}
	if in.Rating != nil {
		t.Rating = *in.Rating
	}
	return t
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	URL      *string   `json:"url" validate:"omitempty,min=1"`
	Title    *string   `json:"title" validate:"omitempty,min=1"`
	Artist   *string   `json:"artist"`
	Artwork  *string   `json:"artwork"`
	Rating   *int      `json:"rating" validate:"omitempty,oneof=0 1"`
	Playlist *[]string `json:"playlist"`
	Duration *float64  `json:"duration" validate:"omitempty,gte=0"`
	Genre    *string   `json:"genre"`
}

func (in *UpdateInput) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if in.URL != nil {
		fields["url"] = *in.URL
	}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Artist != nil {
		fields["artist"] = *in.Artist
	}
	if in.Artwork != nil {
		fields["artwork"] = *in.Artwork
	}
	if in.Rating != nil {
		fields["rating"] = *in.Rating
	}
	if in.Duration != nil {
		fields["duration"] = *in.Duration
	}
	if in.Genre != nil {
		fields["genre"] = *in.Genre
	}
	return fields
}

// Query filters and pages a track listing.
type Query struct {
	Search   string
	Artist   string
	Playlist string
	Rating   *int
	Page     int
	Limit    int
}

// BulkFailure describes one rejected record of a bulk create.
type BulkFailure struct {
	Index   int    `json:"index"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// BulkResult is the outcome of an unordered bulk create.
type BulkResult struct {
	Created []*model.Track `json:"created"`
	Failed  []BulkFailure  `json:"failed"`
}

// ArtworkUpload is an image to attach to a track.
type ArtworkUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FavoriteStatus answers whether a track is a favorite.
type FavoriteStatus struct {
	TrackID    string `json:"trackId"`
	IsFavorite bool   `json:"isFavorite"`
}
