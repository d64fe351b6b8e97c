package model

// GroupKind selects the field tracks are grouped by.
type GroupKind string

const (
	GroupByArtist   GroupKind = "artist"
	GroupByPlaylist GroupKind = "playlist"
)

// Label is the human readable name used in messages.
func (k GroupKind) Label() string {
	if k == GroupByPlaylist {
		return "Playlist"
	}
	return "Artist"
}

// Group is a derived view over tracks sharing an artist or a legacy playlist
// name. It is never stored.
type Group struct {
	Name           string   `json:"name"`
	Tracks         []*Track `json:"tracks"`
	TrackCount     int      `json:"trackCount"`
	ArtworkPreview string   `json:"artworkPreview,omitempty"`
}

// NewGroup builds a group from tracks already in insertion order.
func NewGroup(name string, tracks []*Track) *Group {
	if tracks == nil {
		tracks = []*Track{}
	}
	g := &Group{Name: name, Tracks: tracks, TrackCount: len(tracks)}
	if len(tracks) > 0 {
		g.ArtworkPreview = tracks[0].Artwork
	}
	return g
}
