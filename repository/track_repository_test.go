package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"musiclib/db/dbtest"
	"musiclib/model"
)

func createTrack(t *testing.T, repo TrackRepository, url, title, artist string, playlists ...string) *model.Track {
	t.Helper()
	track := &model.Track{URL: url, Title: title, Artist: artist, Playlist: playlists}
	if err := repo.Create(context.Background(), track); err != nil {
		t.Fatalf("create %s: %v", url, err)
	}
	return track
}

func TestTrackCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))

	created := createTrack(t, repo, "https://a/1.mp3", "One", "Alpha", "Road Trip", "Chill", "Road Trip")
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if want := []string{"Road Trip", "Chill"}; !reflect.DeepEqual(got.Playlist, want) {
		t.Errorf("Playlist = %v, want %v", got.Playlist, want)
	}
	if got.Rating != 0 {
		t.Errorf("Rating = %d, want 0", got.Rating)
	}

	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestTrackCreateDuplicateURL(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))
	createTrack(t, repo, "https://a/1.mp3", "One", "Alpha")

	err := repo.Create(ctx, &model.Track{URL: "https://a/1.mp3", Title: "Again"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create duplicate: got %v, want ErrDuplicate", err)
	}
	n, err := repo.Count(ctx, TrackFilter{})
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v; want 1", n, err)
	}
}

func TestTrackFindFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))
	a := createTrack(t, repo, "u1", "Dancing Queen", "ABBA", "Party")
	b := createTrack(t, repo, "u2", "Waterloo", "ABBA")
	c := createTrack(t, repo, "u3", "100% Pure", "Queen", "Party")
	one := 1
	if _, err := repo.SetRating(ctx, b.ID, 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter TrackFilter
		want   []string
	}{
		{"all in insertion order", TrackFilter{}, []string{a.ID, b.ID, c.ID}},
		{"search hits title or artist", TrackFilter{Search: "queen"}, []string{a.ID, c.ID}},
		{"percent is literal", TrackFilter{Search: "100%"}, []string{c.ID}},
		{"underscore is literal", TrackFilter{Search: "_"}, nil},
		{"artist substring", TrackFilter{Artist: "bb"}, []string{a.ID, b.ID}},
		{"playlist exact", TrackFilter{Playlist: "Party"}, []string{a.ID, c.ID}},
		{"playlist is case-sensitive", TrackFilter{Playlist: "party"}, nil},
		{"rating", TrackFilter{Rating: &one}, []string{b.ID}},
		{"combined", TrackFilter{Artist: "abba", Playlist: "Party"}, []string{a.ID}},
		{"paged", TrackFilter{Offset: 1, Limit: 1}, []string{b.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, err := repo.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			var ids []string
			for _, tr := range tracks {
				ids = append(ids, tr.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}

	n, err := repo.Count(ctx, TrackFilter{Search: "queen", Limit: 1})
	if err != nil || n != 2 {
		t.Errorf("Count ignores limit: got %d, %v", n, err)
	}
}

func TestTrackUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))
	tr := createTrack(t, repo, "u1", "Old", "A", "X", "Y")
	other := createTrack(t, repo, "u2", "Other", "B")

	err := repo.Update(ctx, tr.ID, TrackChanges{
		Fields:          map[string]interface{}{"title": "New"},
		Playlist:        []string{"Z", "X", "Z"},
		ReplacePlaylist: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.GetByID(ctx, tr.ID)
	if got.Title != "New" || !reflect.DeepEqual(got.Playlist, []string{"Z", "X"}) {
		t.Errorf("after update: title=%q playlist=%v", got.Title, got.Playlist)
	}

	err = repo.Update(ctx, tr.ID, TrackChanges{Fields: map[string]interface{}{"url": other.URL}})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("url collision: got %v, want ErrDuplicate", err)
	}
}

func TestTrackRatingAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))
	tr := createTrack(t, repo, "u1", "T", "A", "P")

	for i, want := range []int{1, 0} {
		ok, err := repo.ToggleRating(ctx, tr.ID)
		if err != nil || !ok {
			t.Fatalf("ToggleRating #%d: %v, %v", i, ok, err)
		}
		got, _ := repo.GetByID(ctx, tr.ID)
		if got.Rating != want {
			t.Errorf("after toggle #%d rating = %d, want %d", i, got.Rating, want)
		}
	}
	if ok, _ := repo.ToggleRating(ctx, "missing"); ok {
		t.Error("ToggleRating on missing id reported a match")
	}

	ok, err := repo.Delete(ctx, tr.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: %v, %v", ok, err)
	}
	if ok, _ := repo.Delete(ctx, tr.ID); ok {
		t.Error("second Delete reported a match")
	}
	n, _ := repo.Count(ctx, TrackFilter{Playlist: "P"})
	if n != 0 {
		t.Errorf("memberships survived delete: %d", n)
	}
}

func TestTrackPlaylistMembership(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))
	tr := createTrack(t, repo, "u1", "T", "A", "Road Trip")

	for i := 0; i < 2; i++ {
		if err := repo.AddToPlaylist(ctx, tr.ID, "Chill"); err != nil {
			t.Fatalf("AddToPlaylist: %v", err)
		}
	}
	got, _ := repo.GetByID(ctx, tr.ID)
	if want := []string{"Road Trip", "Chill"}; !reflect.DeepEqual(got.Playlist, want) {
		t.Errorf("Playlist = %v, want %v", got.Playlist, want)
	}

	n, err := repo.RemoveFromPlaylist(ctx, tr.ID, "Road Trip")
	if err != nil || n != 1 {
		t.Fatalf("RemoveFromPlaylist = %d, %v", n, err)
	}
	n, _ = repo.RemoveFromPlaylist(ctx, tr.ID, "Road Trip")
	if n != 0 {
		t.Errorf("second remove = %d, want 0", n)
	}
}

func TestTrackSearchFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	repo := NewGormTrackRepository(dbtest.Open(t))
	createTrack(t, repo, "u1", "Über Alles", "ÉMILE")
	createTrack(t, repo, "u2", "Other", "Bob")

	tests := []struct {
		name   string
		filter TrackFilter
		want   int64
	}{
		{"search artist", TrackFilter{Search: "émile"}, 1},
		{"search title", TrackFilter{Search: "über"}, 1},
		{"artist filter", TrackFilter{Artist: "Émile"}, 1},
		{"no match", TrackFilter{Search: "zoë"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := repo.Count(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if n != tt.want {
				t.Errorf("Count(%+v) = %d, want %d", tt.filter, n, tt.want)
			}
		})
	}
}
