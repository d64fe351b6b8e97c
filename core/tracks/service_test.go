package tracks

import (
	"context"
	"errors"
	"io"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"musiclib/core/apperr"
	"musiclib/core/events"
	"musiclib/db/dbtest"
	"musiclib/repository"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fakeArtworkStore struct {
	body []byte
}

func (f *fakeArtworkStore) PutArtwork(_ context.Context, trackID string, up ArtworkUpload) (string, error) {
	data, err := io.ReadAll(up.Body)
	if err != nil {
		return "", err
	}
	f.body = data
	return "https://cdn.test/artwork/" + trackID + ".png", nil
}

func newTestService(t *testing.T, store ArtworkStore) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewService(repository.NewGormTrackRepository(dbtest.Open(t)), store, rec), rec
}

func mustCreate(t *testing.T, svc *Service, in CreateInput) string {
	t.Helper()
	track, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%s): %v", in.URL, err)
	}
	return track.ID
}

func TestCreateDefaultsAndDuplicateURL(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTestService(t, nil)

	track, err := svc.Create(ctx, CreateInput{URL: "https://x/a.mp3", Title: "A", Playlist: []string{"P", "P", "Q"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if track.Rating != 0 || !reflect.DeepEqual(track.Playlist, []string{"P", "Q"}) {
		t.Errorf("defaults: rating=%d playlist=%v", track.Rating, track.Playlist)
	}

	_, err = svc.Create(ctx, CreateInput{URL: "https://x/a.mp3", Title: "Again"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate url: got %v, want Conflict", err)
	}
	page, err := svc.FindAll(ctx, Query{})
	if err != nil || page.Total != 1 {
		t.Errorf("library should hold one track: %+v, %v", page, err)
	}
	if got := rec.types(); !reflect.DeepEqual(got, []events.Type{events.TrackCreated}) {
		t.Errorf("events = %v", got)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t, nil)
	two := 2
	for _, in := range []CreateInput{
		{Title: "no url"},
		{URL: "u"},
		{URL: "u", Title: "t", Rating: &two},
	} {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Create(%+v) = %v, want Invalid", in, err)
		}
	}
}

func TestCreateManyIsUnordered(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res, err := svc.CreateMany(context.Background(), []CreateInput{
		{URL: "u1", Title: "one"},
		{URL: "u1", Title: "dup"},
		{URL: "u2"},
		{URL: "u3", Title: "three"},
	})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if len(res.Created) != 2 || res.Created[1].URL != "u3" {
		t.Errorf("created = %+v", res.Created)
	}
	if len(res.Failed) != 2 || res.Failed[0].Index != 1 || res.Failed[1].Index != 2 {
		t.Errorf("failed = %+v", res.Failed)
	}
	if !strings.Contains(res.Failed[0].Message, "already exists") {
		t.Errorf("duplicate message = %q", res.Failed[0].Message)
	}
}

func TestToggleFavoriteTwiceRestoresRating(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	id := mustCreate(t, svc, CreateInput{URL: "u", Title: "t"})

	once, err := svc.ToggleFavorite(ctx, id)
	if err != nil || once.Rating != 1 {
		t.Fatalf("first toggle: %+v, %v", once, err)
	}
	twice, err := svc.ToggleFavorite(ctx, id)
	if err != nil || twice.Rating != 0 {
		t.Fatalf("second toggle: %+v, %v", twice, err)
	}
	if _, err := svc.ToggleFavorite(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("toggle missing: %v", err)
	}
}

func TestPlaylistMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	id := mustCreate(t, svc, CreateInput{URL: "u", Title: "t", Playlist: []string{"Road Trip"}})

	track, err := svc.RemoveFromPlaylist(ctx, id, "Road Trip")
	if err != nil {
		t.Fatal(err)
	}
	if len(track.Playlist) != 0 || track.Playlist == nil {
		t.Errorf("after remove playlist = %#v, want empty", track.Playlist)
	}
	track, err = svc.RemoveFromPlaylist(ctx, id, "Road Trip")
	if err != nil || len(track.Playlist) != 0 {
		t.Errorf("removing absent name should be a no-op: %v, %v", track, err)
	}

	for i := 0; i < 2; i++ {
		track, err = svc.AddToPlaylist(ctx, id, "Chill")
		if err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(track.Playlist, []string{"Chill"}) {
		t.Errorf("playlist = %v, want [Chill]", track.Playlist)
	}
	if _, err := svc.AddToPlaylist(ctx, "missing", "Chill"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("add to missing track: %v", err)
	}
}

func TestFindAllFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	for _, in := range []CreateInput{
		{URL: "1", Title: "Dancing Queen", Artist: "ABBA"},
		{URL: "2", Title: "Waterloo", Artist: "ABBA"},
		{URL: "3", Title: "Bohemian Rhapsody", Artist: "Queen"},
	} {
		mustCreate(t, svc, in)
	}

	page, err := svc.FindAll(ctx, Query{Search: "QUEEN", Limit: 1, Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.Page != 2 || page.Limit != 1 || len(page.Data) != 1 || page.Data[0].URL != "3" {
		t.Errorf("page = %+v", page)
	}

	empty, err := svc.FindAll(ctx, Query{Artist: "nobody"})
	if err != nil || empty.Total != 0 || empty.Data == nil || empty.Page != 1 || empty.Limit != 20 {
		t.Errorf("empty page = %+v, %v", empty, err)
	}
}

func TestFindAllPageBeyondOffsetRange(t *testing.T) {
	svc, _ := newTestService(t, nil)
	mustCreate(t, svc, CreateInput{URL: "1", Title: "Waterloo", Artist: "ABBA"})

	page, err := svc.FindAll(context.Background(), Query{Page: math.MaxInt, Limit: 20})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Data == nil || len(page.Data) != 0 || page.Page != math.MaxInt {
		t.Errorf("page = total %d len %d page %d", page.Total, len(page.Data), page.Page)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	id := mustCreate(t, svc, CreateInput{URL: "u1", Title: "Old", Artist: "A", Playlist: []string{"X"}})
	mustCreate(t, svc, CreateInput{URL: "u2", Title: "Other"})

	title := "New"
	track, err := svc.Update(ctx, id, UpdateInput{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if track.Title != "New" || track.Artist != "A" || !reflect.DeepEqual(track.Playlist, []string{"X"}) {
		t.Errorf("partial update clobbered fields: %+v", track)
	}

	taken := "u2"
	if _, err := svc.Update(ctx, id, UpdateInput{URL: &taken}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("url collision: %v", err)
	}
	if _, err := svc.Update(ctx, "missing", UpdateInput{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing track: %v", err)
	}
	if err := svc.Remove(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("remove missing: %v", err)
	}
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	a := mustCreate(t, svc, CreateInput{URL: "a", Title: "a"})
	mustCreate(t, svc, CreateInput{URL: "b", Title: "b"})

	if _, err := svc.SetFavorite(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetFavorite(ctx, a); err != nil {
		t.Fatalf("SetFavorite is idempotent: %v", err)
	}
	favs, err := svc.Favorites(ctx)
	if err != nil || len(favs) != 1 || favs[0].ID != a {
		t.Errorf("Favorites = %v, %v", favs, err)
	}
	if n, _ := svc.FavoriteCount(ctx); n != 1 {
		t.Errorf("FavoriteCount = %d", n)
	}
	status, err := svc.FavoriteStatus(ctx, a)
	if err != nil || !status.IsFavorite {
		t.Errorf("FavoriteStatus = %+v, %v", status, err)
	}
	if _, err := svc.UnsetFavorite(ctx, a); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.FavoriteCount(ctx); n != 0 {
		t.Errorf("FavoriteCount after unset = %d", n)
	}
	if _, err := svc.FavoriteStatus(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("status of missing: %v", err)
	}
}

func TestUploadArtwork(t *testing.T) {
	ctx := context.Background()

	unconfigured, _ := newTestService(t, nil)
	if _, err := unconfigured.UploadArtwork(ctx, "x", ArtworkUpload{ContentType: "image/png"}); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("no store: %v", err)
	}

	store := &fakeArtworkStore{}
	svc, _ := newTestService(t, store)
	id := mustCreate(t, svc, CreateInput{URL: "u", Title: "t"})

	if _, err := svc.UploadArtwork(ctx, id, ArtworkUpload{ContentType: "text/plain", Body: strings.NewReader("x")}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad type: %v", err)
	}
	if _, err := svc.UploadArtwork(ctx, "missing", ArtworkUpload{ContentType: "image/png", Body: strings.NewReader("x")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing track: %v", err)
	}

	track, err := svc.UploadArtwork(ctx, id, ArtworkUpload{Filename: "c.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("UploadArtwork: %v", err)
	}
	if track.Artwork != "https://cdn.test/artwork/"+id+".png" || string(store.body) != "png" {
		t.Errorf("artwork = %q, stored %q", track.Artwork, store.body)
	}
}
