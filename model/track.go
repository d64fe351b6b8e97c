package model

import (
	"time"

	"gorm.io/gorm"
)

// Track represents an audio item in the music library.
type Track struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	URL       string    `json:"url" gorm:"size:767;uniqueIndex;not null"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Artist    string    `json:"artist,omitempty" gorm:"size:255;index"`
	Artwork   string    `json:"artwork,omitempty" gorm:"size:1024"`
	Rating    int       `json:"rating" gorm:"not null;default:0;index"` // 0 or 1, 1 = favorite
	// Playlist holds the legacy playlist names, ordered by when they were
	// attached. Stored in track_playlists and filled by the repository.
	Playlist  []string  `json:"playlist" gorm:"-"`
	Duration  *float64  `json:"duration,omitempty"`
	Genre     string    `json:"genre,omitempty" gorm:"size:100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Track
func (Track) TableName() string {
	return "tracks"
}

// BeforeCreate assigns an id when the caller did not.
func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID != "" {
		return nil
	}
	id, err := NewID()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// TrackPlaylist is one legacy playlist membership of a track.
type TrackPlaylist struct {
	TrackID  string `gorm:"primaryKey;size:36"`
	Name     string `gorm:"primaryKey;size:255;index"`
	Position int    `gorm:"not null;default:0"`
}

// TableName specifies the table name for TrackPlaylist
func (TrackPlaylist) TableName() string {
	return "track_playlists"
}

// IsFavorite reports whether the track is rated.
func (t *Track) IsFavorite() bool {
	return t.Rating == 1
}

// HasPlaylist reports whether name is among the track's legacy playlists.
func (t *Track) HasPlaylist(name string) bool {
	for _, p := range t.Playlist {
		if p == name {
			return true
		}
	}
	return false
}
