// Package userplaylists manages playlists owned by a signed-in user or an
// anonymous device.
package userplaylists

import (
	"context"
	"errors"

	"musiclib/core/apperr"
	"musiclib/core/events"
	"musiclib/core/validation"
	"musiclib/model"
	"musiclib/repository"
)

// Owner identifies who is acting. UserID comes from a verified token and
// takes precedence over the client-supplied DeviceID.
type Owner struct {
	UserID   string
	DeviceID string
}

func (o Owner) scope() repository.PlaylistScope {
	if o.UserID != "" {
		return repository.PlaylistScope{UserID: o.UserID}
	}
	return repository.PlaylistScope{DeviceID: o.DeviceID}
}

// CreateInput 创建歌单请求
type CreateInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	DeviceID    string   `json:"deviceId" validate:"max=255"`
	Description string   `json:"description"`
	Artwork     string   `json:"artwork" validate:"max=1024"`
	TrackIDs    []string `json:"trackIds"`
	IsPublic    bool     `json:"isPublic"`
}

// UpdateInput 更新歌单请求，nil 字段保持不变
type UpdateInput struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description"`
	Artwork     *string   `json:"artwork" validate:"omitempty,max=1024"`
	TrackIDs    *[]string `json:"trackIds"`
	IsPublic    *bool     `json:"isPublic"`
}

// AddTrackInput 添加曲目请求
type AddTrackInput struct {
	TrackID string `json:"trackId" validate:"required"`
}

// Service 用户歌单服务
type Service struct {
	playlists     repository.UserPlaylistRepository
	tracks        repository.TrackRepository
	allowUnscoped bool
	events        events.Publisher
}

// NewService creates the service. With allowUnscoped false, playlists must
// belong to a user or device and anonymous listings only show public
// playlists.
func NewService(playlists repository.UserPlaylistRepository, tracks repository.TrackRepository, allowUnscoped bool, pub events.Publisher) *Service {
	return &Service{playlists: playlists, tracks: tracks, allowUnscoped: allowUnscoped, events: pub}
}

func notFound(id string) error {
	return apperr.NotFound("Playlist with ID %s not found", id)
}

func conflict() error {
	return apperr.Conflict("Playlist with this name already exists")
}

// Create stores a new playlist under the caller's scope.
func (s *Service) Create(ctx context.Context, owner Owner, in CreateInput) (*model.UserPlaylistView, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if owner.DeviceID == "" {
		owner.DeviceID = in.DeviceID
	}
	scope := owner.scope()
	if scope.Unscoped() && !s.allowUnscoped {
		return nil, apperr.Invalid("sign in or supply a deviceId to create a playlist")
	}

	existing, err := s.playlists.FindByName(ctx, in.Name, scope)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict()
	}

	p := &model.UserPlaylist{
		Name:        in.Name,
		Description: in.Description,
		Artwork:     in.Artwork,
		TrackIDs:    uniqueIDs(in.TrackIDs),
		IsPublic:    in.IsPublic,
	}
	if scope.UserID != "" {
		p.UserID = &scope.UserID
	} else if scope.DeviceID != "" {
		p.DeviceID = &scope.DeviceID
	}
	if err := s.playlists.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict()
		}
		return nil, err
	}
	events.Publish(s.events, events.UserPlaylistCreated, p.ID, p.Name)
	return s.view(ctx, p)
}

// FindAll lists the caller's playlists, newest first.
func (s *Service) FindAll(ctx context.Context, owner Owner) ([]*model.UserPlaylistView, error) {
	opts := repository.PlaylistListOptions{Scope: owner.scope()}
	if opts.Scope.Unscoped() {
		if s.allowUnscoped {
			opts.All = true
		} else {
			opts.PublicOnly = true
		}
	}
	playlists, err := s.playlists.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, playlists)
}

func (s *Service) get(ctx context.Context, id string) (*model.UserPlaylist, error) {
	p, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound(id)
	}
	return p, nil
}

// FindOne returns the hydrated playlist.
func (s *Service) FindOne(ctx context.Context, id string) (*model.UserPlaylistView, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// Update merges the supplied fields. Renaming onto a name already used in
// the same scope is a Conflict.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.UserPlaylistView, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != p.Name {
		existing, err := s.playlists.FindByName(ctx, *in.Name, scopeOf(p))
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != p.ID {
			return nil, conflict()
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Artwork != nil {
		p.Artwork = *in.Artwork
	}
	if in.TrackIDs != nil {
		p.TrackIDs = uniqueIDs(*in.TrackIDs)
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

func (s *Service) save(ctx context.Context, p *model.UserPlaylist) error {
	if err := s.playlists.Save(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return conflict()
		}
		return err
	}
	events.Publish(s.events, events.UserPlaylistUpdated, p.ID, p.Name)
	return nil
}

// Remove deletes the playlist.
func (s *Service) Remove(ctx context.Context, id string) error {
	ok, err := s.playlists.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(id)
	}
	events.Publish(s.events, events.UserPlaylistDeleted, id, "")
	return nil
}

// AddTrack appends trackID unless already present.
func (s *Service) AddTrack(ctx context.Context, id string, in AddTrackInput) (*model.UserPlaylistView, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	track, err := s.tracks.GetByID(ctx, in.TrackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, apperr.NotFound("Track with ID %s not found", in.TrackID)
	}
	if !containsID(p.TrackIDs, in.TrackID) {
		p.TrackIDs = append(p.TrackIDs, in.TrackID)
		if err := s.save(ctx, p); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, p)
}

// RemoveTrack drops every reference to trackID.
func (s *Service) RemoveTrack(ctx context.Context, id, trackID string) (*model.UserPlaylistView, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(p.TrackIDs))
	for _, tid := range p.TrackIDs {
		if tid != trackID {
			kept = append(kept, tid)
		}
	}
	if len(kept) != len(p.TrackIDs) {
		p.TrackIDs = kept
		if err := s.save(ctx, p); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, p)
}

func (s *Service) view(ctx context.Context, p *model.UserPlaylist) (*model.UserPlaylistView, error) {
	views, err := s.hydrate(ctx, []*model.UserPlaylist{p})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// hydrate resolves the tracks of every playlist with a single lookup. Ids
// that no longer resolve are skipped.
func (s *Service) hydrate(ctx context.Context, playlists []*model.UserPlaylist) ([]*model.UserPlaylistView, error) {
	var ids []string
	seen := map[string]struct{}{}
	for _, p := range playlists {
		for _, id := range p.TrackIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	found, err := s.tracks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Track, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	views := make([]*model.UserPlaylistView, len(playlists))
	for i, p := range playlists {
		resolved := make([]*model.Track, 0, len(p.TrackIDs))
		for _, id := range p.TrackIDs {
			if t, ok := byID[id]; ok {
				resolved = append(resolved, t)
			}
		}
		artwork := p.Artwork
		if artwork == "" && len(resolved) > 0 {
			artwork = resolved[0].Artwork
		}
		trackIDs := []string(p.TrackIDs)
		if trackIDs == nil {
			trackIDs = []string{}
		}
		views[i] = &model.UserPlaylistView{
			ID:          p.ID,
			Name:        p.Name,
			UserID:      p.UserID,
			DeviceID:    p.DeviceID,
			Description: p.Description,
			Artwork:     artwork,
			TrackIDs:    trackIDs,
			IsPublic:    p.IsPublic,
			Tracks:      resolved,
			TrackCount:  len(resolved),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
	}
	return views, nil
}

func scopeOf(p *model.UserPlaylist) repository.PlaylistScope {
	var s repository.PlaylistScope
	if p.UserID != nil {
		s.UserID = *p.UserID
	} else if p.DeviceID != nil {
		s.DeviceID = *p.DeviceID
	}
	return s
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
