package repository

import (
	"context"
	"sort"

	"musiclib/model"

	"gorm.io/gorm"
)

// GroupQuery selects a page of artist or legacy playlist groups.
type GroupQuery struct {
	Kind   model.GroupKind
	Search string
	Offset int
	Limit  int // 0 = no limit
}

// GroupRepository 分组查询接口（艺术家 / 旧版歌单）
type GroupRepository interface {
	// ListGroups returns a page of groups ordered by name, each holding its
	// tracks in insertion order.
	ListGroups(ctx context.Context, q GroupQuery) ([]*model.Group, error)
	// CountGroups counts every group matching q, ignoring Offset and Limit.
	CountGroups(ctx context.Context, q GroupQuery) (int64, error)
	GroupTracks(ctx context.Context, kind model.GroupKind, name string) ([]*model.Track, error)
	GroupNames(ctx context.Context, kind model.GroupKind) ([]string, error)

	// AttachPlaylist adds name to each existing track in trackIDs and returns
	// how many tracks were matched.
	AttachPlaylist(ctx context.Context, name string, trackIDs []string) (int64, error)
	// DetachPlaylist removes name from every track and returns how many
	// tracks carried it.
	DetachPlaylist(ctx context.Context, name string) (int64, error)
}

type gormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository 创建 GORM 分组仓库
func NewGormGroupRepository(db *gorm.DB) GroupRepository {
	return &gormGroupRepository{db: db}
}

// keyScope returns the table scope and key column for kind, restricted to
// non-empty keys and the optional search term.
func (r *gormGroupRepository) keyScope(ctx context.Context, kind model.GroupKind, search string) (*gorm.DB, string) {
	var tx *gorm.DB
	var col string
	switch kind {
	case model.GroupByPlaylist:
		col = "name"
		tx = r.db.WithContext(ctx).Model(&model.TrackPlaylist{}).Where("name <> ''")
	default:
		col = "artist"
		tx = r.db.WithContext(ctx).Model(&model.Track{}).Where("artist IS NOT NULL AND artist <> ''")
	}
	if search != "" {
		tx = tx.Where("LOWER("+col+") LIKE ? ESCAPE '!'", containsPattern(search))
	}
	return tx, col
}

func (r *gormGroupRepository) ListGroups(ctx context.Context, q GroupQuery) ([]*model.Group, error) {
	tx, col := r.keyScope(ctx, q.Kind, q.Search)
	tx = tx.Distinct().Order(col + " ASC")
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var names []string
	if err := tx.Pluck(col, &names).Error; err != nil {
		return nil, wrap("list group names", err)
	}
	if len(names) == 0 {
		return []*model.Group{}, nil
	}

	members, err := r.membersOf(ctx, q.Kind, names)
	if err != nil {
		return nil, err
	}
	groups := make([]*model.Group, len(names))
	for i, name := range names {
		groups[i] = model.NewGroup(name, members[name])
	}
	return groups, nil
}

// membersOf loads the tracks of every named group, each slice ordered by id.
func (r *gormGroupRepository) membersOf(ctx context.Context, kind model.GroupKind, names []string) (map[string][]*model.Track, error) {
	out := make(map[string][]*model.Track, len(names))

	if kind != model.GroupByPlaylist {
		var tracks []*model.Track
		if err := r.db.WithContext(ctx).Where("artist IN ?", names).Order("id ASC").Find(&tracks).Error; err != nil {
			return nil, wrap("load artist tracks", err)
		}
		if err := loadPlaylists(ctx, r.db, tracks); err != nil {
			return nil, err
		}
		for _, t := range tracks {
			out[t.Artist] = append(out[t.Artist], t)
		}
		return out, nil
	}

	// a track in N playlists shows up in N groups
	var rows []model.TrackPlaylist
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, wrap("load memberships", err)
	}
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.TrackID]; !ok {
			seen[row.TrackID] = struct{}{}
			ids = append(ids, row.TrackID)
		}
	}
	tracks, err := NewGormTrackRepository(r.db).GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}
	for _, row := range rows {
		if t, ok := byID[row.TrackID]; ok {
			out[row.Name] = append(out[row.Name], t)
		}
	}
	for name := range out {
		group := out[name]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
	return out, nil
}

func (r *gormGroupRepository) CountGroups(ctx context.Context, q GroupQuery) (int64, error) {
	tx, col := r.keyScope(ctx, q.Kind, q.Search)
	var n int64
	if err := tx.Distinct(col).Count(&n).Error; err != nil {
		return 0, wrap("count groups", err)
	}
	return n, nil
}

// GroupTracks matches name exactly and returns an empty slice when nothing
// carries it.
func (r *gormGroupRepository) GroupTracks(ctx context.Context, kind model.GroupKind, name string) ([]*model.Track, error) {
	tx := r.db.WithContext(ctx)
	if kind == model.GroupByPlaylist {
		members := r.db.Model(&model.TrackPlaylist{}).Select("track_id").Where("name = ?", name)
		tx = tx.Where("id IN (?)", members)
	} else {
		tx = tx.Where("artist = ?", name)
	}
	var tracks []*model.Track
	if err := tx.Order("id ASC").Find(&tracks).Error; err != nil {
		return nil, wrap("load group tracks", err)
	}
	if err := loadPlaylists(ctx, r.db, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *gormGroupRepository) GroupNames(ctx context.Context, kind model.GroupKind) ([]string, error) {
	tx, col := r.keyScope(ctx, kind, "")
	var names []string
	if err := tx.Distinct().Order(col+" ASC").Pluck(col, &names).Error; err != nil {
		return nil, wrap("list group names", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *gormGroupRepository) AttachPlaylist(ctx context.Context, name string, trackIDs []string) (int64, error) {
	trackIDs = dedupe(trackIDs)
	if len(trackIDs) == 0 {
		return 0, nil
	}
	var matched int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&model.Track{}).Where("id IN ?", trackIDs).Pluck("id", &existing).Error; err != nil {
			return err
		}
		for _, id := range existing {
			if err := addMembership(tx, id, name); err != nil {
				return err
			}
		}
		matched = int64(len(existing))
		return nil
	})
	if err != nil {
		return 0, wrap("attach playlist", err)
	}
	return matched, nil
}

func (r *gormGroupRepository) DetachPlaylist(ctx context.Context, name string) (int64, error) {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.TrackPlaylist{})
	if res.Error != nil {
		return 0, wrap("detach playlist", res.Error)
	}
	return res.RowsAffected, nil
}
