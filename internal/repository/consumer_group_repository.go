package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/model"
)

type ConsumerGroupRepository interface {
	Create(ctx context.Context, cg *model.ConsumerGroup) error
	GetByID(ctx context.Context, id uint) (*model.ConsumerGroup, error)
	List(ctx context.Context) ([]*model.ConsumerGroup, error)
	UpdateURI(ctx context.Context, id uint, uri string) error
	// Delete 删除消费组，并把引用它的用户默认消费组置空
	Delete(ctx context.Context, id uint) error
}

type consumerGroupRepository struct {
	db *gorm.DB
}

func NewConsumerGroupRepository(db *gorm.DB) ConsumerGroupRepository {
	return &consumerGroupRepository{db: db}
}

func (r *consumerGroupRepository) Create(ctx context.Context, cg *model.ConsumerGroup) error {
	return translate(r.db.WithContext(ctx).Create(cg).Error, "consumer group", cg.URI)
}

func (r *consumerGroupRepository) GetByID(ctx context.Context, id uint) (*model.ConsumerGroup, error) {
	var cg model.ConsumerGroup
	if err := r.db.WithContext(ctx).First(&cg, id).Error; err != nil {
		return nil, translate(err, "consumer group", id)
	}
	return &cg, nil
}

func (r *consumerGroupRepository) List(ctx context.Context) ([]*model.ConsumerGroup, error) {
	var res []*model.ConsumerGroup
	err := r.db.WithContext(ctx).Order("id").Find(&res).Error
	return res, err
}

func (r *consumerGroupRepository) UpdateURI(ctx context.Context, id uint, uri string) error {
	res := r.db.WithContext(ctx).Model(&model.ConsumerGroup{}).Where("id = ?", id).Update("uri", uri)
	return requireAffected(res, "consumer group", id)
}

func (r *consumerGroupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("default_consumer_group_id = ?", id).
			Update("default_consumer_group_id", nil).Error; err != nil {
			return err
		}
		return requireAffected(tx.Delete(&model.ConsumerGroup{}, id), "consumer group", id)
	})
}
