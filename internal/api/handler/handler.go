package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client/directory"
	"github.com/d60-Lab/appdata-service/internal/service"
	"github.com/d60-Lab/appdata-service/internal/validation"
	"github.com/d60-Lab/appdata-service/pkg/response"
)

// DirectoryLookup 目录查询（带缓存或直连）
type DirectoryLookup interface {
	GetUser(ctx context.Context, idOrEmail string) (*directory.User, error)
	Search(ctx context.Context, term string) ([]directory.Entity, error)
}

// Sweeper 手动触发存储查询扫描
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// Notifier 目录条目变更的订阅通知
type Notifier interface {
	NotifyEntryUpdated(ctx context.Context, pidURI, label string) (int, error)
	NotifyEntryDeleted(ctx context.Context, pidURI, label string) (int, error)
}

// Services 处理器依赖；Directory 为 nil 时目录接口返回 502
type Services struct {
	Users          service.UserService
	ConsumerGroups service.ConsumerGroupService
	SearchFilters  service.SearchFilterService
	Subscriptions  service.SubscriptionService
	Messages       service.MessageService
	Templates      service.MessageTemplateService
	Favorites      service.FavoritesService
	Directory      DirectoryLookup
	Sweeper        Sweeper
	Notifier       Notifier
}

type Handler struct {
	users          service.UserService
	consumerGroups service.ConsumerGroupService
	searchFilters  service.SearchFilterService
	subscriptions  service.SubscriptionService
	messages       service.MessageService
	templates      service.MessageTemplateService
	favorites      service.FavoritesService
	directory      DirectoryLookup
	sweeper        Sweeper
	notifier       Notifier
}

func New(s Services) *Handler {
	return &Handler{
		users:          s.Users,
		consumerGroups: s.ConsumerGroups,
		searchFilters:  s.SearchFilters,
		subscriptions:  s.Subscriptions,
		messages:       s.Messages,
		templates:      s.Templates,
		favorites:      s.Favorites,
		directory:      s.Directory,
		sweeper:        s.Sweeper,
		notifier:       s.Notifier,
	}
}

// bindJSON 绑定失败时已写出 400，调用方直接返回
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	converted := validation.Convert(err)
	if errors.Is(converted, apperr.ErrValidation) {
		return converted
	}
	return apperr.NewValidationError("body", err.Error())
}

// uintParam 路径参数解析失败时写出 400
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		response.Error(c, apperr.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return uint(v), true
}

func ctx(c *gin.Context) context.Context { return c.Request.Context() }
