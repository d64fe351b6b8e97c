// Package groups serves the artist and legacy playlist views: tracks grouped
// by a shared key, searched, sorted by name and paginated.
package groups

import (
	"context"

	"musiclib/core/apperr"
	"musiclib/core/events"
	"musiclib/core/tracks"
	"musiclib/model"
	"musiclib/repository"

	"golang.org/x/sync/errgroup"
)

// Query pages through groups. Search is a case-insensitive substring of the
// group name.
type Query struct {
	Search string
	Page   int
	Limit  int
}

// CreatePlaylistInput 旧版歌单创建请求
type CreatePlaylistInput struct {
	Name     string   `json:"name" validate:"required"`
	TrackIDs []string `json:"trackIds"`
}

// Service 分组服务
type Service struct {
	repo   repository.GroupRepository
	tracks *tracks.Service
	events events.Publisher
}

// NewService creates the grouping service. Membership changes on single
// tracks go through the track service.
func NewService(repo repository.GroupRepository, trackSvc *tracks.Service, pub events.Publisher) *Service {
	return &Service{repo: repo, tracks: trackSvc, events: pub}
}

// List returns one page of groups of the given kind plus the total number of
// matching groups. Both queries run concurrently.
func (s *Service) List(ctx context.Context, kind model.GroupKind, q Query) (*model.Page[*model.Group], error) {
	p := model.NewPagination(q.Page, q.Limit)
	gq := repository.GroupQuery{Kind: kind, Search: q.Search, Offset: p.Offset(), Limit: p.Limit}

	var (
		groups []*model.Group
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	if !p.PastEnd() {
		g.Go(func() error {
			var err error
			groups, err = s.repo.ListGroups(gctx, gq)
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.repo.CountGroups(gctx, gq)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return model.NewPage(groups, total, p.Page, p.Limit), nil
}

// Get returns the group named exactly name, NotFound if no track carries it.
func (s *Service) Get(ctx context.Context, kind model.GroupKind, name string) (*model.Group, error) {
	members, err := s.repo.GroupTracks(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, apperr.NotFound("%s %q not found", kind.Label(), name)
	}
	return model.NewGroup(name, members), nil
}

// Names lists the distinct non-empty group names.
func (s *Service) Names(ctx context.Context, kind model.GroupKind) ([]string, error) {
	return s.repo.GroupNames(ctx, kind)
}

// CreatePlaylist tags every listed track with name and returns the
// resulting group. NotFound when none of the ids exist.
func (s *Service) CreatePlaylist(ctx context.Context, in CreatePlaylistInput) (*model.Group, error) {
	if in.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	matched, err := s.repo.AttachPlaylist(ctx, in.Name, in.TrackIDs)
	if err != nil {
		return nil, err
	}
	if matched > 0 {
		events.Publish(s.events, events.PlaylistChanged, "", in.Name)
	}
	return s.Get(ctx, model.GroupByPlaylist, in.Name)
}

// DeletePlaylist removes name from every track.
func (s *Service) DeletePlaylist(ctx context.Context, name string) error {
	n, err := s.repo.DetachPlaylist(ctx, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Playlist %q not found", name)
	}
	events.Publish(s.events, events.PlaylistDeleted, "", name)
	return nil
}

// AddTrack attaches name to one track.
func (s *Service) AddTrack(ctx context.Context, name, trackID string) (*model.Track, error) {
	return s.tracks.AddToPlaylist(ctx, trackID, name)
}

// RemoveTrack detaches name from one track.
func (s *Service) RemoveTrack(ctx context.Context, name, trackID string) (*model.Track, error) {
	return s.tracks.RemoveFromPlaylist(ctx, trackID, name)
}
