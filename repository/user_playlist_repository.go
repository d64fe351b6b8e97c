package repository

import (
	"context"
	"errors"

	"musiclib/model"

	"gorm.io/gorm"
)

// PlaylistScope selects whose playlists a lookup sees. UserID wins over
// DeviceID; with neither set the scope is "ownerless".
type PlaylistScope struct {
	UserID   string
	DeviceID string
}

// Unscoped reports whether the scope names no owner.
func (s PlaylistScope) Unscoped() bool {
	return s.UserID == "" && s.DeviceID == ""
}

func (s PlaylistScope) apply(tx *gorm.DB) *gorm.DB {
	switch {
	case s.UserID != "":
		return tx.Where("user_id = ?", s.UserID)
	case s.DeviceID != "":
		return tx.Where("device_id = ?", s.DeviceID)
	default:
		return tx.Where("user_id IS NULL AND device_id IS NULL")
	}
}

// PlaylistListOptions controls UserPlaylistRepository.List. With an unscoped
// Scope, All lists every playlist and PublicOnly only public ones.
type PlaylistListOptions struct {
	Scope      PlaylistScope
	All        bool
	PublicOnly bool
}

// UserPlaylistRepository 用户歌单数据访问接口
type UserPlaylistRepository interface {
	Create(ctx context.Context, p *model.UserPlaylist) error
	GetByID(ctx context.Context, id string) (*model.UserPlaylist, error)
	FindByName(ctx context.Context, name string, scope PlaylistScope) (*model.UserPlaylist, error)
	List(ctx context.Context, opts PlaylistListOptions) ([]*model.UserPlaylist, error)
	Save(ctx context.Context, p *model.UserPlaylist) error
	Delete(ctx context.Context, id string) (bool, error)
}

type gormUserPlaylistRepository struct {
	db *gorm.DB
}

// NewGormUserPlaylistRepository 创建 GORM 用户歌单仓库
func NewGormUserPlaylistRepository(db *gorm.DB) UserPlaylistRepository {
	return &gormUserPlaylistRepository{db: db}
}

func (r *gormUserPlaylistRepository) Create(ctx context.Context, p *model.UserPlaylist) error {
	return wrap("create user playlist", r.db.WithContext(ctx).Create(p).Error)
}

func (r *gormUserPlaylistRepository) GetByID(ctx context.Context, id string) (*model.UserPlaylist, error) {
	var p model.UserPlaylist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("get user playlist", err)
	}
	return &p, nil
}

func (r *gormUserPlaylistRepository) FindByName(ctx context.Context, name string, scope PlaylistScope) (*model.UserPlaylist, error) {
	var p model.UserPlaylist
	tx := scope.apply(r.db.WithContext(ctx).Where("name = ?", name))
	if err := tx.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("find user playlist", err)
	}
	return &p, nil
}

// List returns playlists newest first.
func (r *gormUserPlaylistRepository) List(ctx context.Context, opts PlaylistListOptions) ([]*model.UserPlaylist, error) {
	tx := r.db.WithContext(ctx)
	switch {
	case !opts.Scope.Unscoped():
		tx = opts.Scope.apply(tx)
	case opts.PublicOnly:
		tx = tx.Where("is_public = ?", true)
	case opts.All:
	default:
		tx = opts.Scope.apply(tx)
	}
	var playlists []*model.UserPlaylist
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&playlists).Error; err != nil {
		return nil, wrap("list user playlists", err)
	}
	return playlists, nil
}

// Save writes every column of p.
func (r *gormUserPlaylistRepository) Save(ctx context.Context, p *model.UserPlaylist) error {
	return wrap("save user playlist", r.db.WithContext(ctx).Save(p).Error)
}

func (r *gormUserPlaylistRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UserPlaylist{})
	if res.Error != nil {
		return false, wrap("delete user playlist", res.Error)
	}
	return res.RowsAffected > 0, nil
}
