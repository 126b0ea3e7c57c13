package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

const defaultDueLimit = 1000

// MessageService 用户消息的读取与维护，以及投递方使用的待发送队列
type MessageService interface {
	List(ctx context.Context, userID string) ([]*model.Message, error)
	MarkRead(ctx context.Context, userID string, id uint) (*model.Message, error)
	Delete(ctx context.Context, userID string, id uint) error
	// Send 按用户配置直接创建一条消息
	Send(ctx context.Context, userID, subject, body string) (*model.Message, error)
	ListDueToSend(ctx context.Context, limit int) ([]*model.Message, error)
	MarkSent(ctx context.Context, id uint) error
	// Cleanup 删除已过 DeleteOn 的消息，返回删除数
	Cleanup(ctx context.Context) (int64, error)
}

type messageService struct {
	users      repository.UserRepository
	messages   repository.MessageRepository
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewMessageService(users repository.UserRepository, messages repository.MessageRepository, dispatcher *Dispatcher) MessageService {
	return &messageService{users: users, messages: messages, dispatcher: dispatcher, now: utcNow}
}

func (s *messageService) List(ctx context.Context, userID string) ([]*model.Message, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	return s.messages.ListByUser(ctx, userID)
}

func (s *messageService) MarkRead(ctx context.Context, userID string, id uint) (*model.Message, error) {
	if err := s.messages.MarkRead(ctx, userID, id, s.now()); err != nil {
		return nil, err
	}
	return s.messages.GetByID(ctx, userID, id)
}

func (s *messageService) Delete(ctx context.Context, userID string, id uint) error {
	return s.messages.Delete(ctx, userID, id)
}

func (s *messageService) Send(ctx context.Context, userID, subject, body string) (*model.Message, error) {
	if subject == "" {
		return nil, apperr.NewValidationError("subject", "is required")
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	return s.dispatcher.Dispatch(ctx, userID, subject, body)
}

func (s *messageService) ListDueToSend(ctx context.Context, limit int) ([]*model.Message, error) {
	if limit <= 0 || limit > defaultDueLimit {
		limit = defaultDueLimit
	}
	return s.messages.ListDueToSend(ctx, s.now(), limit)
}

func (s *messageService) MarkSent(ctx context.Context, id uint) error {
	return s.messages.MarkSent(ctx, id)
}

func (s *messageService) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.messages.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	logger.Info("expired messages deleted", zap.Int64("count", n))
	return n, nil
}
