package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/storedquery"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

const defaultJobTimeout = 2 * time.Minute

// SweepResult 一轮扫描的统计
type SweepResult struct {
	Evaluated int `json:"evaluated"`
	Changed   int `json:"changed"`
	Notified  int `json:"notified"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// SweepObserver 接收每次评估的结果与耗时，用于指标
type SweepObserver interface {
	ObserveStoredQuery(outcome string, d time.Duration)
}

// StoredQueryRunner 对存储查询做评估、生成通知并在一个事务内落库
type StoredQueryRunner struct {
	filters    repository.SearchFilterRepository
	queries    repository.StoredQueryRepository
	evaluator  *storedquery.Evaluator
	dispatcher *Dispatcher
	workers    int
	jobTimeout time.Duration
	observer   SweepObserver
	now        func() time.Time
}

func NewStoredQueryRunner(filters repository.SearchFilterRepository, queries repository.StoredQueryRepository,
	evaluator *storedquery.Evaluator, dispatcher *Dispatcher, workers int) *StoredQueryRunner {
	if workers <= 0 {
		workers = 4
	}
	return &StoredQueryRunner{
		filters:    filters,
		queries:    queries,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		workers:    workers,
		jobTimeout: defaultJobTimeout,
		now:        utcNow,
	}
}

// WithObserver 设置指标观察者
func (r *StoredQueryRunner) WithObserver(o SweepObserver) *StoredQueryRunner {
	r.observer = o
	return r
}

// EvaluateOne 评估单个查询。结果有变化且有增量时生成消息，与查询状态在同一事务内保存。
// 检索失败时不落库，返回 ErrUpstreamUnavailable。
// 同一查询的并发评估只有先提交的一方生效，其余返回 NotDue 且不发消息。
func (r *StoredQueryRunner) EvaluateOne(ctx context.Context, queryID uint) (*storedquery.Evaluation, error) {
	start := time.Now()
	ev, err := r.evaluateOne(ctx, queryID)
	if r.observer != nil {
		outcome := "failed"
		if err == nil {
			outcome = ev.Outcome.String()
		}
		r.observer.ObserveStoredQuery(outcome, time.Since(start))
	}
	return ev, err
}

func (r *StoredQueryRunner) evaluateOne(ctx context.Context, queryID uint) (*storedquery.Evaluation, error) {
	sq, err := r.filters.GetStoredQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	now := r.now()
	ev, err := r.evaluator.Evaluate(ctx, sq.Filter, sq.Query, now)
	if err != nil {
		return nil, err
	}
	if ev.Outcome == storedquery.NotDue {
		return ev, nil
	}

	var msg *model.Message
	if ev.Outcome == storedquery.Changed && len(ev.Delta) > 0 {
		msg, err = r.dispatcher.BuildStoredQueryResult(ctx, sq.Filter, ev.Delta, now)
		if err != nil {
			return nil, err
		}
	}
	saved, err := r.queries.SaveEvaluation(ctx, &ev.Query, sq.Query.LatestExecutionDate, msg)
	if err != nil {
		return nil, err
	}
	if !saved {
		// 并发评估已先落库，本次视为未到期
		logger.Debug("stored query already evaluated concurrently", zap.Uint("stored_query_id", queryID))
		return &storedquery.Evaluation{Outcome: storedquery.NotDue, Query: sq.Query, Total: sq.Query.NumberSearchResults, Hash: sq.Query.SearchResultHash}, nil
	}
	return ev, nil
}

// Sweep 用有界 worker 池评估全部存储查询。单个查询失败只计数和记录日志，不中断扫描。
// ctx 取消后不再派发新任务，已派发的任务会完成。
func (r *StoredQueryRunner) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := r.filters.ListStoredQueryIDs(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var (
		mu  sync.Mutex
		res SweepResult
		wg  sync.WaitGroup
	)
	ch := make(chan uint)
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ch {
				jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.jobTimeout)
				ev, err := r.EvaluateOne(jobCtx, id)
				cancel()

				mu.Lock()
				switch {
				case err != nil:
					res.Failed++
					logger.Warn("stored query evaluation failed", zap.Uint("stored_query_id", id), zap.Error(err))
				case ev.Outcome == storedquery.NotDue:
					res.Skipped++
				default:
					res.Evaluated++
					if ev.Outcome == storedquery.Changed && !ev.Baseline {
						res.Changed++
						if len(ev.Delta) > 0 {
							res.Notified++
						}
					}
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, id := range ids {
		select {
		case ch <- id:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(ch)
	wg.Wait()

	logger.Info("stored query sweep finished",
		zap.Int("total", len(ids)),
		zap.Int("evaluated", res.Evaluated),
		zap.Int("changed", res.Changed),
		zap.Int("notified", res.Notified),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, ctx.Err()
}
