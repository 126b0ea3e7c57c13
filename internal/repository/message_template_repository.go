package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/model"
)

type MessageTemplateRepository interface {
	Create(ctx context.Context, t *model.MessageTemplate) error
	GetByType(ctx context.Context, typ model.MessageType) (*model.MessageTemplate, error)
	List(ctx context.Context) ([]*model.MessageTemplate, error)
	Update(ctx context.Context, typ model.MessageType, subject, body string) error
	Delete(ctx context.Context, typ model.MessageType) error
}

type messageTemplateRepository struct {
	db *gorm.DB
}

func NewMessageTemplateRepository(db *gorm.DB) MessageTemplateRepository {
	return &messageTemplateRepository{db: db}
}

func (r *messageTemplateRepository) Create(ctx context.Context, t *model.MessageTemplate) error {
	return translate(r.db.WithContext(ctx).Create(t).Error, "message template", t.Type)
}

func (r *messageTemplateRepository) GetByType(ctx context.Context, typ model.MessageType) (*model.MessageTemplate, error) {
	var t model.MessageTemplate
	if err := r.db.WithContext(ctx).Where("type = ?", typ).First(&t).Error; err != nil {
		return nil, translate(err, "message template", typ)
	}
	return &t, nil
}

func (r *messageTemplateRepository) List(ctx context.Context) ([]*model.MessageTemplate, error) {
	var res []*model.MessageTemplate
	err := r.db.WithContext(ctx).Order("id").Find(&res).Error
	return res, err
}

func (r *messageTemplateRepository) Update(ctx context.Context, typ model.MessageType, subject, body string) error {
	res := r.db.WithContext(ctx).Model(&model.MessageTemplate{}).
		Where("type = ?", typ).
		Updates(map[string]any{"subject": subject, "body": body})
	return requireAffected(res, "message template", typ)
}

func (r *messageTemplateRepository) Delete(ctx context.Context, typ model.MessageType) error {
	return requireAffected(r.db.WithContext(ctx).Where("type = ?", typ).Delete(&model.MessageTemplate{}), "message template", typ)
}
