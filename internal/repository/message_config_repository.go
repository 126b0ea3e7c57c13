package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/appdata-service/internal/model"
)

type MessageConfigRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.MessageConfig, error)
	// ListByUserIDs 批量读取，返回 user_id -> 配置；没有配置的用户不在结果中
	ListByUserIDs(ctx context.Context, userIDs []string) (map[string]model.MessageConfig, error)
	// Upsert 按 user_id 插入或更新间隔
	Upsert(ctx context.Context, cfg *model.MessageConfig) error
}

type messageConfigRepository struct {
	db *gorm.DB
}

func NewMessageConfigRepository(db *gorm.DB) MessageConfigRepository {
	return &messageConfigRepository{db: db}
}

func (r *messageConfigRepository) GetByUserID(ctx context.Context, userID string) (*model.MessageConfig, error) {
	var cfg model.MessageConfig
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cfg).Error; err != nil {
		return nil, translate(err, "message config of user", userID)
	}
	return &cfg, nil
}

func (r *messageConfigRepository) ListByUserIDs(ctx context.Context, userIDs []string) (map[string]model.MessageConfig, error) {
	res := make(map[string]model.MessageConfig, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}
	var rows []model.MessageConfig
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		res[c.UserID] = c
	}
	return res, nil
}

func (r *messageConfigRepository) Upsert(ctx context.Context, cfg *model.MessageConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"send_interval", "delete_interval", "updated_at"}),
	}).Create(cfg).Error
}
