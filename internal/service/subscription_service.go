package service

import (
	"context"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/validation"
)

// SubscriptionService 用户对目录条目的订阅
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, pidURI, note string) (*model.ColidEntrySubscription, error)
	Unsubscribe(ctx context.Context, userID, pidURI string) error
	List(ctx context.Context, userID string) ([]*model.ColidEntrySubscription, error)
	CountSubscribers(ctx context.Context, pidURI string) (int64, error)
}

type subscriptionService struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
}

func NewSubscriptionService(users repository.UserRepository, subs repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{users: users, subs: subs}
}

// Subscribe 同一用户重复订阅同一条目返回 ErrConflict
func (s *subscriptionService) Subscribe(ctx context.Context, userID, pidURI, note string) (*model.ColidEntrySubscription, error) {
	if err := validation.Var("colid_pid_uri", pidURI, "required,absuri"); err != nil {
		return nil, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	sub := &model.ColidEntrySubscription{UserID: userID, ColidPidURI: pidURI, Note: note}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, pidURI string) error {
	if err := validation.Var("colid_pid_uri", pidURI, "required,absuri"); err != nil {
		return err
	}
	return s.subs.Delete(ctx, userID, pidURI)
}

func (s *subscriptionService) List(ctx context.Context, userID string) ([]*model.ColidEntrySubscription, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	return s.subs.ListByUser(ctx, userID)
}

func (s *subscriptionService) CountSubscribers(ctx context.Context, pidURI string) (int64, error) {
	if err := validation.Var("colid_pid_uri", pidURI, "required,absuri"); err != nil {
		return 0, err
	}
	return s.subs.CountSubscribers(ctx, pidURI)
}
