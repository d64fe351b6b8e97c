package repository

import (
	"context"
	"errors"

	"musiclib/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackFilter narrows a track listing. Empty fields do not filter; all set
// fields must hold.
type TrackFilter struct {
	Search   string // title or artist, case-insensitive substring
	Artist   string // case-insensitive substring
	Playlist string // exact legacy playlist name
	Rating   *int
	Offset   int
	Limit    int // 0 = no limit
}

// TrackChanges is a partial update. Fields maps column names to new values.
// Playlist is written only when ReplacePlaylist is set.
type TrackChanges struct {
	Fields          map[string]interface{}
	Playlist        []string
	ReplacePlaylist bool
}

// TrackRepository 曲目数据访问接口
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id string) (*model.Track, error)
	GetByURL(ctx context.Context, url string) (*model.Track, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Track, error)
	Find(ctx context.Context, f TrackFilter) ([]*model.Track, error)
	Count(ctx context.Context, f TrackFilter) (int64, error)
	Update(ctx context.Context, id string, changes TrackChanges) error
	Delete(ctx context.Context, id string) (bool, error)

	// 收藏
	ToggleRating(ctx context.Context, id string) (bool, error)
	SetRating(ctx context.Context, id string, rating int) (bool, error)

	// 歌单成员
	AddToPlaylist(ctx context.Context, trackID, name string) error
	RemoveFromPlaylist(ctx context.Context, trackID, name string) (int64, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 曲目仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create inserts the track and its playlist memberships in one transaction.
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	track.Playlist = dedupe(track.Playlist)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(track).Error; err != nil {
			return err
		}
		return insertMemberships(tx, track.ID, track.Playlist)
	})
	return wrap("create track", err)
}

func insertMemberships(tx *gorm.DB, trackID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]model.TrackPlaylist, len(names))
	for i, name := range names {
		rows[i] = model.TrackPlaylist{TrackID: trackID, Name: name, Position: i}
	}
	return tx.Create(&rows).Error
}

func (r *gormTrackRepository) first(ctx context.Context, query string, arg interface{}) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where(query, arg).First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("get track", err)
	}
	if err := loadPlaylists(ctx, r.db, []*model.Track{&track}); err != nil {
		return nil, err
	}
	return &track, nil
}

// GetByID 根据ID获取曲目，不存在时返回 nil, nil
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormTrackRepository) GetByURL(ctx context.Context, url string) (*model.Track, error) {
	return r.first(ctx, "url = ?", url)
}

// GetByIDs returns the existing tracks among ids, ordered by id.
func (r *gormTrackRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Track, error) {
	if len(ids) == 0 {
		return []*model.Track{}, nil
	}
	var tracks []*model.Track
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&tracks).Error; err != nil {
		return nil, wrap("get tracks", err)
	}
	if err := loadPlaylists(ctx, r.db, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *gormTrackRepository) scope(ctx context.Context, f TrackFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&model.Track{})
	if f.Search != "" {
		p := containsPattern(f.Search)
		tx = tx.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(artist) LIKE ? ESCAPE '!')", p, p)
	}
	if f.Artist != "" {
		tx = tx.Where("LOWER(artist) LIKE ? ESCAPE '!'", containsPattern(f.Artist))
	}
	if f.Playlist != "" {
		members := r.db.Model(&model.TrackPlaylist{}).Select("track_id").Where("name = ?", f.Playlist)
		tx = tx.Where("id IN (?)", members)
	}
	if f.Rating != nil {
		tx = tx.Where("rating = ?", *f.Rating)
	}
	return tx
}

// Find lists tracks in insertion order.
func (r *gormTrackRepository) Find(ctx context.Context, f TrackFilter) ([]*model.Track, error) {
	tx := r.scope(ctx, f).Order("id ASC")
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	var tracks []*model.Track
	if err := tx.Find(&tracks).Error; err != nil {
		return nil, wrap("find tracks", err)
	}
	if err := loadPlaylists(ctx, r.db, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Count ignores Offset and Limit.
func (r *gormTrackRepository) Count(ctx context.Context, f TrackFilter) (int64, error) {
	var n int64
	if err := r.scope(ctx, f).Count(&n).Error; err != nil {
		return 0, wrap("count tracks", err)
	}
	return n, nil
}

// Update applies a partial update. Membership rows are replaced in the same
// transaction as the column update.
func (r *gormTrackRepository) Update(ctx context.Context, id string, changes TrackChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes.Fields) > 0 {
			if err := tx.Model(&model.Track{}).Where("id = ?", id).Updates(changes.Fields).Error; err != nil {
				return err
			}
		}
		if !changes.ReplacePlaylist {
			return nil
		}
		if err := tx.Where("track_id = ?", id).Delete(&model.TrackPlaylist{}).Error; err != nil {
			return err
		}
		return insertMemberships(tx, id, dedupe(changes.Playlist))
	})
	return wrap("update track", err)
}

// Delete removes the track and its memberships. It reports whether the track
// existed.
func (r *gormTrackRepository) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", id).Delete(&model.TrackPlaylist{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Track{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, wrap("delete track", err)
	}
	return affected > 0, nil
}

// ToggleRating flips rating between 0 and 1 in a single statement.
func (r *gormTrackRepository) ToggleRating(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", id).
		Update("rating", gorm.Expr("1 - rating"))
	if res.Error != nil {
		return false, wrap("toggle rating", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormTrackRepository) SetRating(ctx context.Context, id string, rating int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", id).
		Update("rating", rating)
	if res.Error != nil {
		return false, wrap("set rating", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AddToPlaylist appends name to the track's playlists; existing memberships
// are left untouched.
func (r *gormTrackRepository) AddToPlaylist(ctx context.Context, trackID, name string) error {
	return wrap("add to playlist", addMembership(r.db.WithContext(ctx), trackID, name))
}

func addMembership(db *gorm.DB, trackID, name string) error {
	var next int
	err := db.Model(&model.TrackPlaylist{}).
		Select("COALESCE(MAX(position) + 1, 0)").
		Where("track_id = ?", trackID).
		Scan(&next).Error
	if err != nil {
		return err
	}
	row := model.TrackPlaylist{TrackID: trackID, Name: name, Position: next}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// RemoveFromPlaylist returns the number of memberships removed (0 or 1).
func (r *gormTrackRepository) RemoveFromPlaylist(ctx context.Context, trackID, name string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("track_id = ? AND name = ?", trackID, name).
		Delete(&model.TrackPlaylist{})
	if res.Error != nil {
		return 0, wrap("remove from playlist", res.Error)
	}
	return res.RowsAffected, nil
}
