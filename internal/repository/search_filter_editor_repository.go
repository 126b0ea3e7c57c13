package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
)

// SearchFilterEditorRepository 用户编辑器过滤器（弱引用，存于 users.search_filter_editor_id）
type SearchFilterEditorRepository interface {
	GetForUser(ctx context.Context, userID string) (*model.SearchFilterEditor, error)
	// SetForUser 替换用户的编辑器过滤器，旧记录一并删除
	SetForUser(ctx context.Context, userID string, filter datatypes.JSON) (*model.SearchFilterEditor, error)
	RemoveForUser(ctx context.Context, userID string) error
}

type searchFilterEditorRepository struct {
	db *gorm.DB
}

func NewSearchFilterEditorRepository(db *gorm.DB) SearchFilterEditorRepository {
	return &searchFilterEditorRepository{db: db}
}

func (r *searchFilterEditorRepository) GetForUser(ctx context.Context, userID string) (*model.SearchFilterEditor, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Select("id", "search_filter_editor_id").Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, translate(err, "user", userID)
	}
	if u.SearchFilterEditorID == nil {
		return nil, apperr.NotFound("search filter editor of user", userID)
	}
	var f model.SearchFilterEditor
	if err := r.db.WithContext(ctx).First(&f, *u.SearchFilterEditorID).Error; err != nil {
		return nil, translate(err, "search filter editor", *u.SearchFilterEditorID)
	}
	return &f, nil
}

func (r *searchFilterEditorRepository) SetForUser(ctx context.Context, userID string, filter datatypes.JSON) (*model.SearchFilterEditor, error) {
	created := &model.SearchFilterEditor{FilterJSON: filter}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			return translate(err, "user", userID)
		}
		if err := tx.Create(created).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Update("search_filter_editor_id", created.ID).Error; err != nil {
			return err
		}
		if u.SearchFilterEditorID != nil {
			return tx.Delete(&model.SearchFilterEditor{}, *u.SearchFilterEditorID).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *searchFilterEditorRepository) RemoveForUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			return translate(err, "user", userID)
		}
		if u.SearchFilterEditorID == nil {
			return apperr.NotFound("search filter editor of user", userID)
		}
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Update("search_filter_editor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.SearchFilterEditor{}, *u.SearchFilterEditorID).Error
	})
}
