package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/model"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.ColidEntrySubscription) error
	Delete(ctx context.Context, userID, pidURI string) error
	Exists(ctx context.Context, userID, pidURI string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.ColidEntrySubscription, error)
	// ListSubscribers 按创建顺序分页返回某条目的订阅者
	ListSubscribers(ctx context.Context, pidURI string, offset, limit int) ([]*model.ColidEntrySubscription, error)
	CountSubscribers(ctx context.Context, pidURI string) (int64, error)
	DeleteByURI(ctx context.Context, pidURI string) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create 重复订阅违反 (user_id, colid_pid_uri) 唯一索引，返回 ErrConflict
func (r *subscriptionRepository) Create(ctx context.Context, sub *model.ColidEntrySubscription) error {
	return translate(r.db.WithContext(ctx).Create(sub).Error, "subscription", sub.ColidPidURI)
}

func (r *subscriptionRepository) Delete(ctx context.Context, userID, pidURI string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND colid_pid_uri = ?", userID, pidURI).
		Delete(&model.ColidEntrySubscription{})
	return requireAffected(res, "subscription", pidURI)
}

func (r *subscriptionRepository) Exists(ctx context.Context, userID, pidURI string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.ColidEntrySubscription{}).
		Where("user_id = ? AND colid_pid_uri = ?", userID, pidURI).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*model.ColidEntrySubscription, error) {
	var res []*model.ColidEntrySubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&res).Error
	return res, err
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, pidURI string, offset, limit int) ([]*model.ColidEntrySubscription, error) {
	var res []*model.ColidEntrySubscription
	err := r.db.WithContext(ctx).
		Where("colid_pid_uri = ?", pidURI).
		Order("id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, pidURI string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.ColidEntrySubscription{}).Where("colid_pid_uri = ?", pidURI).Count(&cnt).Error
	return cnt, err
}

func (r *subscriptionRepository) DeleteByURI(ctx context.Context, pidURI string) (int64, error) {
	res := r.db.WithContext(ctx).Where("colid_pid_uri = ?", pidURI).Delete(&model.ColidEntrySubscription{})
	return res.RowsAffected, res.Error
}
