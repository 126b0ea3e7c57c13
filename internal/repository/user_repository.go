package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/model"
)

// UserRepository 用户聚合的持久化
type UserRepository interface {
	// Create 在一个事务内写入用户及其消息配置
	Create(ctx context.Context, user *model.User, cfg *model.MessageConfig) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// UpdateFields 按列更新；nil 值写入 NULL
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// Delete 级联删除用户拥有的全部数据
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User, cfg *model.MessageConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "user", user.ID)
		}
		cfg.UserID = user.ID
		return tx.Create(cfg).Error
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	var res []*model.User
	err := r.db.WithContext(ctx).Order("created_at, id").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	return requireAffected(res, "user", id)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return translate(err, "user", id)
		}

		var queryIDs []uint
		if err := tx.Model(&model.SearchFilterDataMarketplace{}).
			Where("user_id = ? AND stored_query_id IS NOT NULL", id).
			Pluck("stored_query_id", &queryIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.SearchFilterDataMarketplace{}).Error; err != nil {
			return err
		}
		if len(queryIDs) > 0 {
			if err := tx.Where("id IN ?", queryIDs).Delete(&model.StoredQuery{}).Error; err != nil {
				return err
			}
		}

		var listIDs []uint
		if err := tx.Model(&model.FavoritesList{}).Where("user_id = ?", id).Pluck("id", &listIDs).Error; err != nil {
			return err
		}
		if len(listIDs) > 0 {
			if err := tx.Where("favorites_list_id IN ?", listIDs).Delete(&model.FavoritesListEntry{}).Error; err != nil {
				return err
			}
		}

		for _, owned := range []any{
			&model.FavoritesList{}, &model.Message{}, &model.MessageConfig{}, &model.ColidEntrySubscription{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&model.User{}, "id = ?", id).Error; err != nil {
			return err
		}
		if u.SearchFilterEditorID != nil {
			return tx.Delete(&model.SearchFilterEditor{}, *u.SearchFilterEditorID).Error
		}
		return nil
	})
}
