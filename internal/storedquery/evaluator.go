package storedquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client/search"
	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
)

// Outcome 一次评估的结果
type Outcome int

const (
	// NotDue 未到期，什么都不做
	NotDue Outcome = iota
	// Unchanged 结果摘要未变
	Unchanged
	// Changed 结果摘要变化；首次执行也归入此类，但 Baseline 为 true 且 Delta 为空
	Changed
)

func (o Outcome) String() string {
	switch o {
	case NotDue:
		return "not_due"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Searcher 检索服务
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Page, error)
}

// Evaluation 评估结果。Query 是更新后的副本，调用方负责持久化。
type Evaluation struct {
	Outcome  Outcome
	Query    model.StoredQuery
	Total    int
	Hash     string
	Baseline bool
	// Delta 最后修改时间晚于上次执行时间的资源 id
	Delta []string
}

// IsDue 首次执行前总是到期；上次执行时间在将来时不到期；否则 now 不早于下一次时间即到期。
// Never 在首次执行后不再到期。
func IsDue(q model.StoredQuery, now time.Time) bool {
	if q.LatestExecutionDate == nil {
		return true
	}
	latest := *q.LatestExecutionDate
	if latest.After(now) {
		return false
	}
	next, ok := interval.Next(latest, q.ExecutionInterval, now)
	if !ok {
		return false
	}
	return !now.Before(next)
}

// 分页按 id 升序，避免相关度排序在翻页间变化导致结果重复或遗漏
const (
	resultOrderField = "_id"
	resultOrder      = "asc"
)

type Evaluator struct {
	searcher   Searcher
	pageSize   int
	maxResults int
}

func NewEvaluator(searcher Searcher, pageSize, maxResults int) *Evaluator {
	if pageSize <= 0 {
		pageSize = 100
	}
	if maxResults < pageSize {
		maxResults = pageSize
	}
	return &Evaluator{searcher: searcher, pageSize: pageSize, maxResults: maxResults}
}

// Evaluate 对单个存储查询执行一次评估，不修改入参。
// 检索失败时返回 ErrUpstreamUnavailable，查询保持到期状态，下一轮重试。
func (e *Evaluator) Evaluate(ctx context.Context, filter model.SearchFilterDataMarketplace, q model.StoredQuery, now time.Time) (*Evaluation, error) {
	if !IsDue(q, now) {
		return &Evaluation{Outcome: NotDue, Query: q, Total: q.NumberSearchResults, Hash: q.SearchResultHash}, nil
	}

	total, hits, err := e.collect(ctx, filter)
	if err != nil {
		return nil, err
	}

	fresh := Hash(uniqueIDs(hits))
	prior := q.LatestExecutionDate

	ev := &Evaluation{
		Outcome:  Unchanged,
		Total:    total,
		Hash:     fresh,
		Baseline: prior == nil,
	}
	if fresh != q.SearchResultHash {
		ev.Outcome = Changed
		if prior != nil {
			ev.Delta = delta(hits, *prior)
		}
	}

	executed := interval.Truncate(now)
	updated := q
	updated.NumberSearchResults = total
	updated.SearchResultHash = fresh
	updated.LatestExecutionDate = &executed
	ev.Query = updated
	return ev, nil
}

// collect 逐页拉取，直到取完或达到上限
func (e *Evaluator) collect(ctx context.Context, filter model.SearchFilterDataMarketplace) (int, []search.Hit, error) {
	var (
		total int
		hits  []search.Hit
	)
	for from := 0; from < e.maxResults; {
		size := e.pageSize
		if from+size > e.maxResults {
			size = e.maxResults - from
		}
		page, err := e.searcher.Search(ctx, search.Request{
			Criteria:   json.RawMessage(filter.FilterJSON),
			SearchTerm: filter.SearchTerm,
			From:       from,
			Size:       size,
			OrderField: resultOrderField,
			Order:      resultOrder,
		})
		if err != nil {
			if errors.Is(err, apperr.ErrUpstreamUnavailable) {
				return 0, nil, fmt.Errorf("search filter %d: %w", filter.ID, err)
			}
			return 0, nil, apperr.Upstream("search", err)
		}
		total = page.Total
		hits = append(hits, page.Hits...)
		from += len(page.Hits)
		if len(page.Hits) == 0 || from >= total {
			break
		}
	}
	return total, hits, nil
}

func delta(hits []search.Hit, since time.Time) []string {
	var res []string
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		if h.LastModified.After(since) {
			res = append(res, h.ID)
		}
	}
	return res
}

// uniqueIDs 去掉翻页边界上重复出现的结果
func uniqueIDs(hits []search.Hit) []string {
	seen := make(map[string]struct{}, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		ids = append(ids, h.ID)
	}
	return ids
}
