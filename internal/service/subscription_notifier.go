package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

// SubscriptionNotifier 目录条目更新/删除时，按页扇出消息给所有订阅者
type SubscriptionNotifier struct {
	subs       repository.SubscriptionRepository
	configs    repository.MessageConfigRepository
	messages   repository.MessageRepository
	dispatcher *Dispatcher
	batchSize  int
	now        func() time.Time
}

func NewSubscriptionNotifier(subs repository.SubscriptionRepository, configs repository.MessageConfigRepository,
	messages repository.MessageRepository, dispatcher *Dispatcher, batchSize int) *SubscriptionNotifier {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SubscriptionNotifier{subs: subs, configs: configs, messages: messages, dispatcher: dispatcher, batchSize: batchSize, now: utcNow}
}

// NotifyEntryUpdated 返回写入的消息数
func (n *SubscriptionNotifier) NotifyEntryUpdated(ctx context.Context, pidURI, label string) (int, error) {
	return n.fanout(ctx, model.MessageTypeColidEntrySubscriptionUpdate, pidURI, label)
}

// NotifyEntryDeleted 通知后删除该条目的全部订阅
func (n *SubscriptionNotifier) NotifyEntryDeleted(ctx context.Context, pidURI, label string) (int, error) {
	written, err := n.fanout(ctx, model.MessageTypeColidEntrySubscriptionDelete, pidURI, label)
	if err != nil {
		return written, err
	}
	removed, err := n.subs.DeleteByURI(ctx, pidURI)
	if err != nil {
		return written, err
	}
	logger.Info("subscriptions removed for deleted entry", zap.String("pid_uri", pidURI), zap.Int64("removed", removed))
	return written, nil
}

func (n *SubscriptionNotifier) fanout(ctx context.Context, typ model.MessageType, pidURI, label string) (int, error) {
	if label == "" {
		label = pidURI
	}
	tmpl := n.dispatcher.template(ctx, typ)
	subject := render(tmpl.Subject, label)
	body := render(tmpl.Body, label, pidURI)
	now := n.now()

	written := 0
	for offset := 0; ; offset += n.batchSize {
		subs, err := n.subs.ListSubscribers(ctx, pidURI, offset, n.batchSize)
		if err != nil {
			return written, err
		}
		if len(subs) == 0 {
			break
		}

		userIDs := make([]string, len(subs))
		for i, s := range subs {
			userIDs[i] = s.UserID
		}
		configs, err := n.configs.ListByUserIDs(ctx, userIDs)
		if err != nil {
			return written, err
		}

		records := make([]*model.Message, 0, len(subs))
		for _, s := range subs {
			cfg, ok := configs[s.UserID]
			if !ok {
				cfg = model.DefaultMessageConfig(s.UserID)
			}
			msg := newMessage(cfg, s.UserID, subject, body, now)
			msg.AdditionalInfo = pidURI
			records = append(records, msg)
		}
		if err := n.messages.CreateBatch(ctx, records); err != nil {
			return written, err
		}
		written += len(records)
		if len(subs) < n.batchSize {
			break
		}
	}

	logger.Info("subscription fanout finished",
		zap.String("type", string(typ)),
		zap.String("pid_uri", pidURI),
		zap.Int("messages", written))
	return written, nil
}
