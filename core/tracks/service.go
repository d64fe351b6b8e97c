// Package tracks implements the track lifecycle: creation, listing, partial
// updates, favorites, legacy playlist membership and artwork upload.
package tracks

import (
	"context"
	"errors"
	"fmt"

	"musiclib/core/apperr"
	"musiclib/core/events"
	"musiclib/core/validation"
	"musiclib/logger"
	"musiclib/model"
	"musiclib/repository"

	"golang.org/x/sync/errgroup"
)

// ArtworkStore persists artwork images and returns their public URL.
type ArtworkStore interface {
	PutArtwork(ctx context.Context, trackID string, upload ArtworkUpload) (string, error)
}

// Service 曲目服务
type Service struct {
	repo    repository.TrackRepository
	artwork ArtworkStore
	events  events.Publisher
}

// NewService creates the track service. artwork and pub may be nil.
func NewService(repo repository.TrackRepository, artwork ArtworkStore, pub events.Publisher) *Service {
	return &Service{repo: repo, artwork: artwork, events: pub}
}

func notFound(id string) error {
	return apperr.NotFound("Track with ID %s not found", id)
}

// Create inserts one track. A URL already in the library is a Conflict.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Track, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByURL(ctx, in.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("Track with this URL already exists")
	}

	track := in.toTrack()
	if err := s.repo.Create(ctx, track); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Track with this URL already exists")
		}
		return nil, err
	}
	events.Publish(s.events, events.TrackCreated, track.ID, "")
	return track, nil
}

// CreateMany inserts each record independently. Rejected records are
// reported by index and never stop the rest.
func (s *Service) CreateMany(ctx context.Context, inputs []CreateInput) (*BulkResult, error) {
	result := &BulkResult{Created: []*model.Track{}, Failed: []BulkFailure{}}
	for i := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in := inputs[i]
		if err := validation.ValidateStruct(&in); err != nil {
			result.Failed = append(result.Failed, BulkFailure{Index: i, URL: in.URL, Message: err.Error()})
			continue
		}
		track := in.toTrack()
		if err := s.repo.Create(ctx, track); err != nil {
			msg := "failed to store track"
			if errors.Is(err, repository.ErrDuplicate) {
				msg = "Track with this URL already exists"
			} else {
				logger.Error("[Tracks] bulk insert failed", logger.Int("index", i), logger.ErrorField(err))
			}
			result.Failed = append(result.Failed, BulkFailure{Index: i, URL: in.URL, Message: msg})
			continue
		}
		result.Created = append(result.Created, track)
		events.Publish(s.events, events.TrackCreated, track.ID, "")
	}
	return result, nil
}

// FindAll lists tracks matching q. The page and the total are queried
// concurrently.
func (s *Service) FindAll(ctx context.Context, q Query) (*model.Page[*model.Track], error) {
	p := model.NewPagination(q.Page, q.Limit)
	filter := repository.TrackFilter{
		Search:   q.Search,
		Artist:   q.Artist,
		Playlist: q.Playlist,
		Rating:   q.Rating,
		Offset:   p.Offset(),
		Limit:    p.Limit,
	}

	var (
		tracks []*model.Track
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	if !p.PastEnd() {
		g.Go(func() error {
			var err error
			tracks, err = s.repo.Find(gctx, filter)
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return model.NewPage(tracks, total, p.Page, p.Limit), nil
}

// FindOne returns the track or NotFound.
func (s *Service) FindOne(ctx context.Context, id string) (*model.Track, error) {
	track, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, notFound(id)
	}
	return track, nil
}

// Update merges the supplied fields into the track.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Track, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if _, err := s.FindOne(ctx, id); err != nil {
		return nil, err
	}

	changes := repository.TrackChanges{Fields: in.fields()}
	if in.Playlist != nil {
		changes.Playlist = *in.Playlist
		changes.ReplacePlaylist = true
	}
	if err := s.repo.Update(ctx, id, changes); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Track with this URL already exists")
		}
		return nil, err
	}
	events.Publish(s.events, events.TrackUpdated, id, "")
	return s.FindOne(ctx, id)
}

// Remove deletes the track.
func (s *Service) Remove(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(id)
	}
	events.Publish(s.events, events.TrackDeleted, id, "")
	return nil
}

// ToggleFavorite flips the rating between 0 and 1.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (*model.Track, error) {
	ok, err := s.repo.ToggleRating(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(id)
	}
	events.Publish(s.events, events.FavoriteChanged, id, "")
	return s.FindOne(ctx, id)
}

func (s *Service) setFavorite(ctx context.Context, id string, rating int) (*model.Track, error) {
	ok, err := s.repo.SetRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(id)
	}
	events.Publish(s.events, events.FavoriteChanged, id, "")
	return s.FindOne(ctx, id)
}

// SetFavorite marks the track as a favorite.
func (s *Service) SetFavorite(ctx context.Context, id string) (*model.Track, error) {
	return s.setFavorite(ctx, id, 1)
}

// UnsetFavorite clears the favorite mark.
func (s *Service) UnsetFavorite(ctx context.Context, id string) (*model.Track, error) {
	return s.setFavorite(ctx, id, 0)
}

func favoriteFilter() repository.TrackFilter {
	one := 1
	return repository.TrackFilter{Rating: &one}
}

// Favorites lists every track with rating 1, in insertion order.
func (s *Service) Favorites(ctx context.Context) ([]*model.Track, error) {
	tracks, err := s.repo.Find(ctx, favoriteFilter())
	if err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []*model.Track{}
	}
	return tracks, nil
}

func (s *Service) FavoriteCount(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, favoriteFilter())
}

func (s *Service) FavoriteStatus(ctx context.Context, id string) (*FavoriteStatus, error) {
	track, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FavoriteStatus{TrackID: track.ID, IsFavorite: track.IsFavorite()}, nil
}

// AddToPlaylist attaches a legacy playlist name. Adding a name the track
// already has is a successful no-op.
func (s *Service) AddToPlaylist(ctx context.Context, id, name string) (*model.Track, error) {
	if name == "" {
		return nil, apperr.Invalid("playlist name is required")
	}
	track, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if track.HasPlaylist(name) {
		return track, nil
	}
	if err := s.repo.AddToPlaylist(ctx, id, name); err != nil {
		return nil, err
	}
	events.Publish(s.events, events.PlaylistChanged, id, name)
	return s.FindOne(ctx, id)
}

// RemoveFromPlaylist detaches a legacy playlist name; absent names are a
// no-op.
func (s *Service) RemoveFromPlaylist(ctx context.Context, id, name string) (*model.Track, error) {
	track, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.RemoveFromPlaylist(ctx, id, name)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return track, nil
	}
	events.Publish(s.events, events.PlaylistChanged, id, name)
	return s.FindOne(ctx, id)
}

var artworkTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MaxArtworkSize caps artwork uploads.
const MaxArtworkSize = 10 << 20

// UploadArtwork stores the image and points the track's artwork at it.
func (s *Service) UploadArtwork(ctx context.Context, id string, up ArtworkUpload) (*model.Track, error) {
	if s.artwork == nil {
		return nil, apperr.Unavailable("artwork storage is not configured")
	}
	if !artworkTypes[up.ContentType] {
		return nil, apperr.Invalid("unsupported artwork type %q", up.ContentType)
	}
	if up.Size > MaxArtworkSize {
		return nil, apperr.Invalid("artwork exceeds %d bytes", MaxArtworkSize)
	}
	if _, err := s.FindOne(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.artwork.PutArtwork(ctx, id, up)
	if err != nil {
		return nil, fmt.Errorf("store artwork: %w", err)
	}
	if err := s.repo.Update(ctx, id, repository.TrackChanges{Fields: map[string]interface{}{"artwork": url}}); err != nil {
		return nil, err
	}
	logger.Info("[Tracks] artwork uploaded", logger.String("trackId", id), logger.String("url", url))
	events.Publish(s.events, events.TrackUpdated, id, "")
	return s.FindOne(ctx, id)
}
