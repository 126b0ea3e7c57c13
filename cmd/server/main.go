// @title AppData Service API
// @version 3.0
// @description 用户、保存的检索、存储查询、订阅、消息与收藏夹
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/api"
	"github.com/d60-Lab/appdata-service/internal/api/handler"
	"github.com/d60-Lab/appdata-service/internal/api/middleware"
	"github.com/d60-Lab/appdata-service/internal/app"
	"github.com/d60-Lab/appdata-service/internal/scheduler"
	"github.com/d60-Lab/appdata-service/pkg/database"
	"github.com/d60-Lab/appdata-service/pkg/logger"
	"github.com/d60-Lab/appdata-service/pkg/tracing"
)

func must[T any](v T, err error) T {
	check(err)
	return v
}

func check(err error) {
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	sentryOn := must(tracing.InitSentry(cfg.Sentry))
	if sentryOn {
		defer sentry.Flush(2 * time.Second)
	}
	shutdownTracing := must(tracing.Init(ctx, cfg.Tracing))

	db := must(database.InitDB(cfg))
	a := must(app.New(cfg, db))
	check(api.RegisterValidators())

	sqlDB := must(db.DB())
	health := map[string]handler.Pinger{"database": sqlDB}
	if a.Redis != nil {
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() })
	}

	var limiter *middleware.RateLimiter
	stopCleanup := make(chan struct{})
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go limiter.Cleanup(time.Minute, stopCleanup)
	}

	router := api.NewRouter(handler.New(a.Services), api.Options{
		Server:      cfg.Server,
		ServiceName: cfg.Tracing.ServiceName,
		RateLimiter: limiter,
		Sentry:      sentryOn,
		Tracing:     cfg.Tracing.Enabled,
		Health:      health,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(30 * time.Minute)
		check(sched.Add(scheduler.JobStoredQuerySweep, cfg.Scheduler.StoredQueryCron, a.SweepJob()))
		check(sched.Add(scheduler.JobMessageCleanup, cfg.Scheduler.CleanupCron, a.CleanupJob()))
		sched.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(sctx); err != nil {
			logger.Warn("scheduler did not stop in time", zap.Error(err))
		}
	}
	close(stopCleanup)
	if err := shutdownTracing(sctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	if err := a.Close(); err != nil {
		logger.Warn("redis close", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Warn("database close", zap.Error(err))
	}
}
