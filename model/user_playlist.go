package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserPlaylist is a named, ordered list of track ids owned by a user or a
// device. NULL owner columns never collide in the unique indexes.
type UserPlaylist struct {
	ID          string                      `json:"id" gorm:"primaryKey;size:36"`
	Name        string                      `json:"name" gorm:"size:255;not null;uniqueIndex:idx_user_playlists_name_user,priority:1;uniqueIndex:idx_user_playlists_name_device,priority:1"`
	UserID      *string                     `json:"userId,omitempty" gorm:"size:36;index;uniqueIndex:idx_user_playlists_name_user,priority:2"`
	DeviceID    *string                     `json:"deviceId,omitempty" gorm:"size:255;index;uniqueIndex:idx_user_playlists_name_device,priority:2"`
	Description string                      `json:"description,omitempty" gorm:"type:text"`
	Artwork     string                      `json:"artwork,omitempty" gorm:"size:1024"`
	TrackIDs    datatypes.JSONSlice[string] `json:"trackIds"`
	IsPublic    bool                        `json:"isPublic" gorm:"not null;default:false"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// TableName specifies the table name for UserPlaylist
func (UserPlaylist) TableName() string {
	return "user_playlists"
}

func (p *UserPlaylist) BeforeCreate(tx *gorm.DB) error {
	if p.ID != "" {
		return nil
	}
	id, err := NewID()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// UserPlaylistView is a playlist with its tracks resolved, as returned to
// clients.
type UserPlaylistView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UserID      *string   `json:"userId,omitempty"`
	DeviceID    *string   `json:"deviceId,omitempty"`
	Description string    `json:"description,omitempty"`
	Artwork     string    `json:"artwork,omitempty"`
	TrackIDs    []string  `json:"trackIds"`
	IsPublic    bool      `json:"isPublic"`
	Tracks      []*Track  `json:"tracks"`
	TrackCount  int       `json:"trackCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
