package service

import (
	"context"

	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/validation"
)

type ConsumerGroupService interface {
	List(ctx context.Context) ([]*model.ConsumerGroup, error)
	Get(ctx context.Context, id uint) (*model.ConsumerGroup, error)
	Create(ctx context.Context, uri string) (*model.ConsumerGroup, error)
	Update(ctx context.Context, id uint, uri string) (*model.ConsumerGroup, error)
	// Delete 引用它的用户默认消费组置空
	Delete(ctx context.Context, id uint) error
}

type consumerGroupService struct {
	repo repository.ConsumerGroupRepository
}

func NewConsumerGroupService(repo repository.ConsumerGroupRepository) ConsumerGroupService {
	return &consumerGroupService{repo: repo}
}

func (s *consumerGroupService) List(ctx context.Context) ([]*model.ConsumerGroup, error) {
	return s.repo.List(ctx)
}

func (s *consumerGroupService) Get(ctx context.Context, id uint) (*model.ConsumerGroup, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *consumerGroupService) Create(ctx context.Context, uri string) (*model.ConsumerGroup, error) {
	if err := validation.Var("uri", uri, "required,absuri"); err != nil {
		return nil, err
	}
	cg := &model.ConsumerGroup{URI: uri}
	if err := s.repo.Create(ctx, cg); err != nil {
		return nil, err
	}
	return cg, nil
}

func (s *consumerGroupService) Update(ctx context.Context, id uint, uri string) (*model.ConsumerGroup, error) {
	if err := validation.Var("uri", uri, "required,absuri"); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateURI(ctx, id, uri); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *consumerGroupService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
