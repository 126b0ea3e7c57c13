// Package scheduler 用 cron 表达式驱动存储查询扫描与过期消息清理
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/metrics"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

const (
	JobStoredQuerySweep = "stored_query_sweep"
	JobMessageCleanup   = "message_cleanup"
)

// Job 一次任务执行
type Job func(ctx context.Context) error

// Scheduler 秒级 cron；同一任务上一轮未结束时跳过本轮
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// New timeout 为单次任务的最长执行时间
func New(timeout time.Duration) *Scheduler {
	l := cronLogger{log: logger.L()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Add 注册任务
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		RunJob(s.ctx, name, s.timeout, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	logger.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop 取消正在运行的任务并等待其退出，或直到 ctx 结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunJob 执行一次任务并记录日志与指标；cmd/sweep 也直接调用它
func RunJob(ctx context.Context, name string, timeout time.Duration, job Job) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := job(ctx)
	d := time.Since(start)
	metrics.RecordJob(name, d, err == nil)
	if err != nil {
		logger.Error("job failed", zap.String("job", name), zap.Duration("took", d), zap.Error(err))
		return err
	}
	logger.Info("job finished", zap.String("job", name), zap.Duration("took", d))
	return nil
}

// cronLogger 把 cron 的日志接到 zap
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, zap.Any("kv", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("kv", keysAndValues))
}
