package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	CreateBatch(ctx context.Context, msgs []*model.Message) error
	GetByID(ctx context.Context, userID string, id uint) (*model.Message, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Message, error)
	MarkRead(ctx context.Context, userID string, id uint, at time.Time) error
	// MarkSent 清空 SendOn，使消息不再出现在待发送列表中
	MarkSent(ctx context.Context, id uint) error
	Delete(ctx context.Context, userID string, id uint) error
	// ListDueToSend ReadOn 为空且 SendOn <= now
	ListDueToSend(ctx context.Context, now time.Time, limit int) ([]*model.Message, error)
	// DeleteExpired 删除 DeleteOn <= now 的消息，返回删除条数
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) CreateBatch(ctx context.Context, msgs []*model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(msgs, 200).Error
}

func (r *messageRepository) GetByID(ctx context.Context, userID string, id uint) (*model.Message, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		return nil, translate(err, "message", id)
	}
	return &m, nil
}

func (r *messageRepository) ListByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&res).Error
	return res, err
}

func (r *messageRepository) MarkRead(ctx context.Context, userID string, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_on", at)
	return requireAffected(res, "message", id)
}

func (r *messageRepository) MarkSent(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Message{}).Where("id = ?", id).Update("send_on", nil)
	return requireAffected(res, "message", id)
}

func (r *messageRepository) Delete(ctx context.Context, userID string, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Message{})
	return requireAffected(res, "message", id)
}

func (r *messageRepository) ListDueToSend(ctx context.Context, now time.Time, limit int) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Where("read_on IS NULL AND send_on IS NOT NULL AND send_on <= ?", now).
		Order("send_on, id").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *messageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("delete_on IS NOT NULL AND delete_on <= ?", now).Delete(&model.Message{})
	return res.RowsAffected, res.Error
}
