package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"musiclib/model"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert or update violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

// wrap translates gorm's duplicate-key error and adds context to the rest.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// likeEscaper escapes LIKE wildcards with '!', which both MySQL and SQLite
// accept through an explicit ESCAPE clause.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ? ESCAPE '!'".
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// loadPlaylists fills Track.Playlist for every track with one query.
func loadPlaylists(ctx context.Context, db *gorm.DB, tracks []*model.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	ids := make([]string, len(tracks))
	byID := make(map[string]*model.Track, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
		t.Playlist = []string{}
		byID[t.ID] = t
	}

	var rows []model.TrackPlaylist
	err := db.WithContext(ctx).
		Where("track_id IN ?", ids).
		Order("position ASC").Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("load playlists: %w", err)
	}
	for _, row := range rows {
		if t, ok := byID[row.TrackID]; ok {
			t.Playlist = append(t.Playlist, row.Name)
		}
	}
	return nil
}

// dedupe drops empty and repeated names, keeping first occurrences.
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
