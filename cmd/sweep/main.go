// sweep 执行一轮存储查询扫描与过期消息清理后退出，供外部 cron/k8s CronJob 调用。
//
//	JOB=sweep|cleanup|all（默认 all）
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/app"
	"github.com/d60-Lab/appdata-service/internal/scheduler"
	"github.com/d60-Lab/appdata-service/pkg/database"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

const jobTimeout = 30 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("open database", zap.Error(err))
		return 1
	}
	defer database.Close(db)

	a, err := app.New(cfg, db)
	if err != nil {
		logger.Error("build app", zap.Error(err))
		return 1
	}
	defer a.Close()

	job := os.Getenv("JOB")
	if job == "" {
		job = "all"
	}
	ctx := context.Background()
	failed := false
	if job == "all" || job == "sweep" {
		failed = scheduler.RunJob(ctx, scheduler.JobStoredQuerySweep, jobTimeout, a.SweepJob()) != nil || failed
	}
	if job == "all" || job == "cleanup" {
		failed = scheduler.RunJob(ctx, scheduler.JobMessageCleanup, jobTimeout, a.CleanupJob()) != nil || failed
	}
	if failed {
		return 1
	}
	return 0
}
