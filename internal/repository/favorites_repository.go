package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/model"
)

type FavoritesRepository interface {
	CreateList(ctx context.Context, list *model.FavoritesList) error
	GetList(ctx context.Context, userID string, id uint) (*model.FavoritesListWithEntries, error)
	ListByUser(ctx context.Context, userID string) ([]*model.FavoritesListWithEntries, error)
	RenameList(ctx context.Context, userID string, id uint, name string) error
	DeleteList(ctx context.Context, userID string, id uint) error
	AddEntry(ctx context.Context, userID string, entry *model.FavoritesListEntry) error
	RemoveEntry(ctx context.Context, userID string, listID uint, pidURI string) error
}

type favoritesRepository struct {
	db *gorm.DB
}

func NewFavoritesRepository(db *gorm.DB) FavoritesRepository {
	return &favoritesRepository{db: db}
}

func (r *favoritesRepository) CreateList(ctx context.Context, list *model.FavoritesList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

func ownedList(db *gorm.DB, userID string, id uint) (*model.FavoritesList, error) {
	var l model.FavoritesList
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&l).Error; err != nil {
		return nil, translate(err, "favorites list", id)
	}
	return &l, nil
}

func (r *favoritesRepository) GetList(ctx context.Context, userID string, id uint) (*model.FavoritesListWithEntries, error) {
	l, err := ownedList(r.db.WithContext(ctx), userID, id)
	if err != nil {
		return nil, err
	}
	lists, err := r.withEntries(ctx, []model.FavoritesList{*l})
	if err != nil {
		return nil, err
	}
	return lists[0], nil
}

func (r *favoritesRepository) ListByUser(ctx context.Context, userID string) ([]*model.FavoritesListWithEntries, error) {
	var lists []model.FavoritesList
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&lists).Error; err != nil {
		return nil, err
	}
	return r.withEntries(ctx, lists)
}

func (r *favoritesRepository) withEntries(ctx context.Context, lists []model.FavoritesList) ([]*model.FavoritesListWithEntries, error) {
	res := make([]*model.FavoritesListWithEntries, 0, len(lists))
	if len(lists) == 0 {
		return res, nil
	}
	ids := make([]uint, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	var entries []model.FavoritesListEntry
	if err := r.db.WithContext(ctx).Where("favorites_list_id IN ?", ids).Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	byList := make(map[uint][]model.FavoritesListEntry, len(lists))
	for _, e := range entries {
		byList[e.FavoritesListID] = append(byList[e.FavoritesListID], e)
	}
	for _, l := range lists {
		res = append(res, &model.FavoritesListWithEntries{FavoritesList: l, Entries: byList[l.ID]})
	}
	return res, nil
}

func (r *favoritesRepository) RenameList(ctx context.Context, userID string, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&model.FavoritesList{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("name", name)
	return requireAffected(res, "favorites list", id)
}

func (r *favoritesRepository) DeleteList(ctx context.Context, userID string, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedList(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Where("favorites_list_id = ?", id).Delete(&model.FavoritesListEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.FavoritesList{}, id).Error
	})
}

func (r *favoritesRepository) AddEntry(ctx context.Context, userID string, entry *model.FavoritesListEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedList(tx, userID, entry.FavoritesListID); err != nil {
			return err
		}
		return translate(tx.Create(entry).Error, "favorites entry", entry.PidURI)
	})
}

func (r *favoritesRepository) RemoveEntry(ctx context.Context, userID string, listID uint, pidURI string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedList(tx, userID, listID); err != nil {
			return err
		}
		res := tx.Where("favorites_list_id = ? AND pid_uri = ?", listID, pidURI).Delete(&model.FavoritesListEntry{})
		return requireAffected(res, "favorites entry", pidURI)
	})
}
