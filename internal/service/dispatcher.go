package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

// 数据库中没有模板时使用的默认模板
var defaultTemplates = map[model.MessageType]model.MessageTemplate{
	model.MessageTypeStoredQueryResult: {
		Subject: "New results for your saved search %s",
		Body:    "Your saved search %s has %s new or updated resources:\n%s",
	},
	model.MessageTypeColidEntrySubscriptionUpdate: {
		Subject: "Subscribed entry updated: %s",
		Body:    "The catalog entry %s (%s) you subscribed to has been updated.",
	},
	model.MessageTypeColidEntrySubscriptionDelete: {
		Subject: "Subscribed entry deleted: %s",
		Body:    "The catalog entry %s (%s) you subscribed to has been deleted. Your subscription was removed.",
	},
}

// Dispatcher 把通知内容落成用户消息。只写库，不做任何外部投递。
type Dispatcher struct {
	configs   repository.MessageConfigRepository
	templates repository.MessageTemplateRepository
	messages  repository.MessageRepository
	now       func() time.Time
}

func NewDispatcher(configs repository.MessageConfigRepository, templates repository.MessageTemplateRepository, messages repository.MessageRepository) *Dispatcher {
	return &Dispatcher{configs: configs, templates: templates, messages: messages, now: utcNow}
}

// Schedule 计算 SendOn/DeleteOn。SendInterval 为 Never 时不发送；DeleteInterval 为 Never 时不删除。
func Schedule(cfg model.MessageConfig, now time.Time) (sendOn, deleteOn *time.Time) {
	if t, ok := interval.Next(now, cfg.SendInterval, now); ok {
		sendOn = &t
	}
	base := now
	if sendOn != nil {
		base = *sendOn
	}
	if t, ok := interval.Next(base, cfg.DeleteInterval, now); ok {
		deleteOn = &t
	}
	return sendOn, deleteOn
}

// Build 按用户的消息配置构造消息，不写库。用户没有配置时使用默认配置。
func (d *Dispatcher) Build(ctx context.Context, userID, subject, body string, now time.Time) (*model.Message, error) {
	cfg, err := d.configs.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		def := model.DefaultMessageConfig(userID)
		cfg = &def
	}
	return newMessage(*cfg, userID, subject, body, now), nil
}

func newMessage(cfg model.MessageConfig, userID, subject, body string, now time.Time) *model.Message {
	sendOn, deleteOn := Schedule(cfg, now)
	return &model.Message{
		UserID:   userID,
		Subject:  subject,
		Body:     body,
		SendOn:   sendOn,
		DeleteOn: deleteOn,
	}
}

// Dispatch 构造并保存消息
func (d *Dispatcher) Dispatch(ctx context.Context, userID, subject, body string) (*model.Message, error) {
	msg, err := d.Build(ctx, userID, subject, body, d.now())
	if err != nil {
		return nil, err
	}
	if err := d.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// BuildStoredQueryResult 为存储查询的新增/更新结果构造消息
func (d *Dispatcher) BuildStoredQueryResult(ctx context.Context, filter model.SearchFilterDataMarketplace, delta []string, now time.Time) (*model.Message, error) {
	tmpl := d.template(ctx, model.MessageTypeStoredQueryResult)
	msg, err := d.Build(ctx, filter.UserID,
		render(tmpl.Subject, filter.Name),
		render(tmpl.Body, filter.Name, strconv.Itoa(len(delta)), strings.Join(delta, "\n")),
		now)
	if err != nil {
		return nil, err
	}
	if filter.PidURI != nil {
		msg.AdditionalInfo = *filter.PidURI
	}
	return msg, nil
}

// template 读取模板，读取失败时退回默认模板
func (d *Dispatcher) template(ctx context.Context, typ model.MessageType) model.MessageTemplate {
	t, err := d.templates.GetByType(ctx, typ)
	if err == nil {
		return *t
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		logger.Warn("load message template failed, using default", zap.String("type", string(typ)), zap.Error(err))
	}
	return defaultTemplates[typ]
}

// render 依次替换 %s；多余参数忽略，缺少的参数替换为空串
func render(tmpl string, args ...string) string {
	var b strings.Builder
	for {
		i := strings.Index(tmpl, "%s")
		if i < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:i])
		if len(args) > 0 {
			b.WriteString(args[0])
			args = args[1:]
		}
		tmpl = tmpl[i+2:]
	}
}

func utcNow() time.Time { return time.Now().UTC() }
