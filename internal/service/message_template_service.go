package service

import (
	"context"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
)

type MessageTemplateService interface {
	List(ctx context.Context) ([]*model.MessageTemplate, error)
	Get(ctx context.Context, typ model.MessageType) (*model.MessageTemplate, error)
	Create(ctx context.Context, typ model.MessageType, subject, body string) (*model.MessageTemplate, error)
	Update(ctx context.Context, typ model.MessageType, subject, body string) (*model.MessageTemplate, error)
	Delete(ctx context.Context, typ model.MessageType) error
}

type messageTemplateService struct {
	repo repository.MessageTemplateRepository
}

func NewMessageTemplateService(repo repository.MessageTemplateRepository) MessageTemplateService {
	return &messageTemplateService{repo: repo}
}

func validTemplate(typ model.MessageType, subject, body string) error {
	if !typ.IsValid() {
		return apperr.NewValidationError("type", "unknown message type")
	}
	if subject == "" {
		return apperr.NewValidationError("subject", "is required")
	}
	if body == "" {
		return apperr.NewValidationError("body", "is required")
	}
	return nil
}

func (s *messageTemplateService) List(ctx context.Context) ([]*model.MessageTemplate, error) {
	return s.repo.List(ctx)
}

func (s *messageTemplateService) Get(ctx context.Context, typ model.MessageType) (*model.MessageTemplate, error) {
	return s.repo.GetByType(ctx, typ)
}

func (s *messageTemplateService) Create(ctx context.Context, typ model.MessageType, subject, body string) (*model.MessageTemplate, error) {
	if err := validTemplate(typ, subject, body); err != nil {
		return nil, err
	}
	t := &model.MessageTemplate{Type: typ, Subject: subject, Body: body}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *messageTemplateService) Update(ctx context.Context, typ model.MessageType, subject, body string) (*model.MessageTemplate, error) {
	if err := validTemplate(typ, subject, body); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, typ, subject, body); err != nil {
		return nil, err
	}
	return s.repo.GetByType(ctx, typ)
}

func (s *messageTemplateService) Delete(ctx context.Context, typ model.MessageType) error {
	return s.repo.Delete(ctx, typ)
}
