// Package api 组装 gin 引擎：中间件、路由与文档
package api

import (
	"fmt"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/appdata-service/config"
	_ "github.com/d60-Lab/appdata-service/docs"
	"github.com/d60-Lab/appdata-service/internal/api/handler"
	"github.com/d60-Lab/appdata-service/internal/api/middleware"
	"github.com/d60-Lab/appdata-service/internal/metrics"
	"github.com/d60-Lab/appdata-service/internal/validation"
)

// Options 路由可选组件
type Options struct {
	Server      config.ServerConfig
	ServiceName string
	// RateLimiter 为 nil 时不限流
	RateLimiter *middleware.RateLimiter
	Sentry      bool
	Tracing     bool
	Health      map[string]handler.Pinger
}

// RegisterValidators 把自定义规则注册到 gin 的 binding 引擎
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return validation.Register(v)
}

// NewRouter /health 与 /metrics 不经过限流与 gzip
func NewRouter(h *handler.Handler, opts Options) *gin.Engine {
	if opts.Server.Mode != "" {
		gin.SetMode(opts.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(metrics.Middleware())

	r.GET("/health", handler.Health(opts.Health))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if opts.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v3 := r.Group("/api/v3")
	v3.Use(gzip.Gzip(gzip.DefaultCompression))
	if opts.RateLimiter != nil {
		v3.Use(opts.RateLimiter.Middleware())
	}

	users := v3.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PUT("/:id/emailAddress", h.UpdateEmail)
		users.PUT("/:id/department", h.UpdateDepartment)
		users.PUT("/:id/lastLoginDataMarketplace", h.UpdateLastLoginDataMarketplace)
		users.PUT("/:id/lastLoginEditor", h.UpdateLastLoginEditor)
		users.PUT("/:id/lastTimeChecked", h.UpdateLastTimeChecked)

		users.GET("/:id/defaultConsumerGroup", h.GetDefaultConsumerGroup)
		users.PUT("/:id/defaultConsumerGroup", h.SetDefaultConsumerGroup)
		users.DELETE("/:id/defaultConsumerGroup", h.RemoveDefaultConsumerGroup)

		users.GET("/:id/searchFilterEditor", h.GetSearchFilterEditor)
		users.PUT("/:id/searchFilterEditor", h.SetSearchFilterEditor)
		users.DELETE("/:id/searchFilterEditor", h.RemoveSearchFilterEditor)

		users.GET("/:id/searchFiltersDataMarketplace", h.ListSearchFilters)
		users.POST("/:id/searchFiltersDataMarketplace", h.CreateSearchFilter)
		users.GET("/:id/searchFiltersDataMarketplace/pidUris", h.ListSearchFilterPidURIs)
		users.GET("/:id/searchFiltersDataMarketplace/:filterId", h.GetSearchFilter)
		users.DELETE("/:id/searchFiltersDataMarketplace/:filterId", h.DeleteSearchFilter)

		users.GET("/:id/storedQueries", h.ListStoredQueries)
		users.POST("/:id/storedQueries", h.AddStoredQuery)
		users.DELETE("/:id/storedQueries/:filterId", h.RemoveStoredQuery)

		users.GET("/:id/colidEntrySubscriptions", h.ListSubscriptions)
		users.POST("/:id/colidEntrySubscriptions", h.Subscribe)
		users.DELETE("/:id/colidEntrySubscriptions", h.Unsubscribe)

		users.GET("/:id/messages", h.ListMessages)
		users.POST("/:id/messages", h.SendMessage)
		users.PUT("/:id/messages/:messageId/read", h.MarkMessageRead)
		users.DELETE("/:id/messages/:messageId", h.DeleteMessage)
		users.GET("/:id/messageConfig", h.GetMessageConfig)
		users.PUT("/:id/messageConfig", h.UpdateMessageConfig)

		users.GET("/:id/favoritesLists", h.ListFavorites)
		users.POST("/:id/favoritesLists", h.CreateFavoritesList)
		users.PUT("/:id/favoritesLists/:listId", h.RenameFavoritesList)
		users.DELETE("/:id/favoritesLists/:listId", h.DeleteFavoritesList)
		users.POST("/:id/favoritesLists/:listId/entries", h.AddFavoritesEntry)
		users.DELETE("/:id/favoritesLists/:listId/entries", h.RemoveFavoritesEntry)
	}

	groups := v3.Group("/consumerGroups")
	{
		groups.GET("", h.ListConsumerGroups)
		groups.POST("", h.CreateConsumerGroup)
		groups.GET("/:groupId", h.GetConsumerGroup)
		groups.PUT("/:groupId", h.UpdateConsumerGroup)
		groups.DELETE("/:groupId", h.DeleteConsumerGroup)
	}

	templates := v3.Group("/messageTemplates")
	{
		templates.GET("", h.ListMessageTemplates)
		templates.POST("", h.CreateMessageTemplate)
		templates.GET("/:type", h.GetMessageTemplate)
		templates.PUT("/:type", h.UpdateMessageTemplate)
		templates.DELETE("/:type", h.DeleteMessageTemplate)
	}

	v3.GET("/messages/due", h.ListDueMessages)
	v3.PUT("/messages/:messageId/sent", h.MarkMessageSent)

	v3.GET("/colidEntrySubscriptions/subscribers", h.CountSubscribers)
	v3.POST("/colidEntrySubscriptions/notifyUpdated", h.NotifyEntryUpdated)
	v3.POST("/colidEntrySubscriptions/notifyDeleted", h.NotifyEntryDeleted)

	v3.POST("/storedQueries/execute", h.ExecuteStoredQueries)

	v3.GET("/activeDirectory/users/:id", h.GetDirectoryUser)
	v3.GET("/activeDirectory/search", h.SearchDirectory)

	return r
}
