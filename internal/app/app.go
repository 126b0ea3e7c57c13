// Package app 按配置组装仓储、外部客户端、服务与定时任务，供 cmd/server 与 cmd/sweep 共用
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/api/handler"
	"github.com/d60-Lab/appdata-service/internal/cache"
	"github.com/d60-Lab/appdata-service/internal/client"
	"github.com/d60-Lab/appdata-service/internal/client/directory"
	"github.com/d60-Lab/appdata-service/internal/client/registration"
	"github.com/d60-Lab/appdata-service/internal/client/search"
	"github.com/d60-Lab/appdata-service/internal/metrics"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/scheduler"
	"github.com/d60-Lab/appdata-service/internal/service"
	"github.com/d60-Lab/appdata-service/internal/storedquery"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

// App 组装结果；Redis 未启用时为 nil
type App struct {
	Services handler.Services
	Runner   *service.StoredQueryRunner
	Redis    *redis.Client
}

// New 创建出站凭据与客户端，按需加一层 redis 目录缓存
func New(cfg *config.Config, db *gorm.DB) (*App, error) {
	cred, err := client.NewCredential(cfg.Azure)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	users := repository.NewUserRepository(db)
	groups := repository.NewConsumerGroupRepository(db)
	editors := repository.NewSearchFilterEditorRepository(db)
	filters := repository.NewSearchFilterRepository(db)
	queries := repository.NewStoredQueryRepository(db)
	messages := repository.NewMessageRepository(db)
	configs := repository.NewMessageConfigRepository(db)
	templates := repository.NewMessageTemplateRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	favorites := repository.NewFavoritesRepository(db)

	dispatcher := service.NewDispatcher(configs, templates, messages)
	evaluator := storedquery.NewEvaluator(search.NewClient(cfg.Search, cred), cfg.Search.PageSize, cfg.Search.MaxResults)
	runner := service.NewStoredQueryRunner(filters, queries, evaluator, dispatcher, cfg.Scheduler.Workers).
		WithObserver(metrics.StoredQueryObserver{})

	a := &App{Runner: runner}

	dirClient := directory.NewClient(cfg.Directory, cred)
	var dir handler.DirectoryLookup = dirClient
	if cfg.Redis.Enabled {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		dir = cache.NewDirectory(dirClient, a.Redis, cfg.Directory.CacheTTL)
	}

	a.Services = handler.Services{
		Users:          service.NewUserService(users, groups, editors, configs),
		ConsumerGroups: service.NewConsumerGroupService(groups),
		SearchFilters:  service.NewSearchFilterService(users, filters, registration.NewClient(cfg.Registration, cred)),
		Subscriptions:  service.NewSubscriptionService(users, subs),
		Messages:       service.NewMessageService(users, messages, dispatcher),
		Templates:      service.NewMessageTemplateService(templates),
		Favorites:      service.NewFavoritesService(users, favorites),
		Directory:      dir,
		Sweeper:        runner,
		Notifier:       service.NewSubscriptionNotifier(subs, configs, messages, dispatcher, cfg.Notifications.BatchSize),
	}
	return a, nil
}

// SweepJob 扫描一轮存储查询
func (a *App) SweepJob() scheduler.Job {
	return func(ctx context.Context) error {
		res, err := a.Runner.Sweep(ctx)
		metrics.RecordDispatched(string(model.MessageTypeStoredQueryResult), res.Notified)
		logger.Info("stored query sweep",
			zap.Int("evaluated", res.Evaluated),
			zap.Int("changed", res.Changed),
			zap.Int("notified", res.Notified),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed))
		return err
	}
}

// CleanupJob 删除已过期的消息
func (a *App) CleanupJob() scheduler.Job {
	return func(ctx context.Context) error {
		_, err := a.Services.Messages.Cleanup(ctx)
		return err
	}
}

// Close 释放 redis 连接
func (a *App) Close() error {
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}
