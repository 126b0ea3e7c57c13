package storedquery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client/search"
	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
)

type fakeSearcher struct {
	hits     []search.Hit
	err      error
	requests []search.Request
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (*search.Page, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	end := req.From + req.Size
	if end > len(f.hits) {
		end = len(f.hits)
	}
	page := &search.Page{Total: len(f.hits)}
	if req.From < end {
		page.Hits = f.hits[req.From:end]
	}
	return page, nil
}

func hitsModifiedAt(ts ...time.Time) []search.Hit {
	res := make([]search.Hit, len(ts))
	for i, t := range ts {
		res[i] = search.Hit{ID: fmt.Sprintf("https://pid.example.com/%d", i), LastModified: t}
	}
	return res
}

var testFilter = model.SearchFilterDataMarketplace{
	ID:         7,
	Name:       "datasets",
	SearchTerm: "sales",
	FilterJSON: datatypes.JSON(`{"type":["dataset"]}`),
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		iv     interval.Interval
		latest *time.Time
		want   bool
	}{
		{"never executed", interval.Never, nil, true},
		{"weekly past next monday", interval.Weekly, ptr(date(2024, 1, 1)), true},
		{"weekly same week", interval.Weekly, ptr(date(2024, 1, 8)), false},
		{"daily exactly one day", interval.Daily, ptr(now.AddDate(0, 0, -1)), true},
		{"daily less than a day", interval.Daily, ptr(now.Add(-23 * time.Hour)), false},
		{"monthly same month", interval.Monthly, ptr(date(2024, 1, 2)), false},
		{"monthly previous month", interval.Monthly, ptr(date(2023, 12, 31)), true},
		{"quarterly previous quarter", interval.Quarterly, ptr(date(2023, 11, 1)), true},
		{"never after first run", interval.Never, ptr(date(2020, 1, 1)), false},
		{"immediately", interval.Immediately, ptr(now.Add(-time.Second)), true},
		{"future execution date", interval.Immediately, ptr(now.Add(time.Hour)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := model.StoredQuery{ExecutionInterval: tt.iv, LatestExecutionDate: tt.latest}
			assert.Equal(t, tt.want, IsDue(q, now))
		})
	}
}

func TestEvaluate_WeeklyExample(t *testing.T) {
	latest := date(2024, 1, 1)
	now := time.Date(2024, 1, 10, 8, 15, 42, 987654321, time.UTC)
	s := &fakeSearcher{hits: hitsModifiedAt(date(2023, 12, 1), date(2024, 1, 5), date(2024, 1, 9))}
	q := model.StoredQuery{ID: 1, ExecutionInterval: interval.Weekly, LatestExecutionDate: &latest, SearchResultHash: "stale"}

	ev, err := NewEvaluator(s, 2, 100).Evaluate(context.Background(), testFilter, q, now)
	require.NoError(t, err)

	assert.Equal(t, Changed, ev.Outcome)
	assert.False(t, ev.Baseline)
	assert.Equal(t, 3, ev.Total)
	assert.Equal(t, []string{"https://pid.example.com/1", "https://pid.example.com/2"}, ev.Delta)

	require.NotNil(t, ev.Query.LatestExecutionDate)
	assert.Equal(t, time.Date(2024, 1, 10, 8, 15, 42, 0, time.UTC), *ev.Query.LatestExecutionDate)
	assert.Equal(t, 3, ev.Query.NumberSearchResults)
	assert.Equal(t, ev.Hash, ev.Query.SearchResultHash)

	// 入参不被修改
	assert.Equal(t, "stale", q.SearchResultHash)
	assert.Equal(t, latest, *q.LatestExecutionDate)

	require.Len(t, s.requests, 2)
	assert.Equal(t, 0, s.requests[0].From)
	assert.Equal(t, 2, s.requests[1].From)
	assert.Equal(t, "sales", s.requests[0].SearchTerm)
	assert.JSONEq(t, `{"type":["dataset"]}`, string(s.requests[0].Criteria))
}

func TestEvaluate_FirstRunIsBaseline(t *testing.T) {
	now := date(2024, 3, 1)
	s := &fakeSearcher{hits: hitsModifiedAt(now.Add(-time.Hour), now.Add(-time.Minute))}
	q := model.StoredQuery{ExecutionInterval: interval.Daily}

	ev, err := NewEvaluator(s, 10, 100).Evaluate(context.Background(), testFilter, q, now)
	require.NoError(t, err)
	assert.Equal(t, Changed, ev.Outcome)
	assert.True(t, ev.Baseline)
	assert.Empty(t, ev.Delta)
	assert.Equal(t, now, *ev.Query.LatestExecutionDate)
}

func TestEvaluate_Unchanged(t *testing.T) {
	latest := date(2024, 1, 1)
	now := date(2024, 1, 3)
	hits := hitsModifiedAt(date(2024, 1, 2))
	q := model.StoredQuery{ExecutionInterval: interval.Daily, LatestExecutionDate: &latest, SearchResultHash: Hash([]string{hits[0].ID})}

	ev, err := NewEvaluator(&fakeSearcher{hits: hits}, 10, 100).Evaluate(context.Background(), testFilter, q, now)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, ev.Outcome)
	assert.Nil(t, ev.Delta)
	assert.Equal(t, now, *ev.Query.LatestExecutionDate)
}

func TestEvaluate_NotDueIsNoOp(t *testing.T) {
	now := date(2024, 1, 10)
	future := now.Add(48 * time.Hour)
	s := &fakeSearcher{}
	q := model.StoredQuery{ExecutionInterval: interval.Daily, LatestExecutionDate: &future, SearchResultHash: "h", NumberSearchResults: 4}

	ev, err := NewEvaluator(s, 10, 100).Evaluate(context.Background(), testFilter, q, now)
	require.NoError(t, err)
	assert.Equal(t, NotDue, ev.Outcome)
	assert.Equal(t, q, ev.Query)
	assert.Empty(t, s.requests)
}

func TestEvaluate_SearchFailureLeavesQueryDue(t *testing.T) {
	now := date(2024, 1, 10)
	s := &fakeSearcher{err: errors.New("connection reset")}
	q := model.StoredQuery{ExecutionInterval: interval.Weekly}

	ev, err := NewEvaluator(s, 10, 100).Evaluate(context.Background(), testFilter, q, now)
	assert.Nil(t, ev)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.True(t, IsDue(q, now))

	s.err = apperr.Upstream("search", errors.New("503"))
	_, err = NewEvaluator(s, 10, 100).Evaluate(context.Background(), testFilter, q, now)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestEvaluate_StopsAtMaxResults(t *testing.T) {
	ts := make([]time.Time, 25)
	s := &fakeSearcher{hits: hitsModifiedAt(ts...)}

	ev, err := NewEvaluator(s, 4, 10).Evaluate(context.Background(), testFilter, model.StoredQuery{ExecutionInterval: interval.Daily}, date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 25, ev.Total)
	require.Len(t, s.requests, 3)
	assert.Equal(t, 2, s.requests[2].Size)
}

func TestEvaluate_Idempotent(t *testing.T) {
	latest := date(2024, 1, 1)
	now := date(2024, 1, 10)
	s := &fakeSearcher{hits: hitsModifiedAt(date(2024, 1, 5))}
	e := NewEvaluator(s, 10, 100)

	first, err := e.Evaluate(context.Background(), testFilter, model.StoredQuery{ExecutionInterval: interval.Weekly, LatestExecutionDate: &latest}, now)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), testFilter, first.Query, now)
	require.NoError(t, err)
	assert.Equal(t, NotDue, second.Outcome)
	assert.Equal(t, first.Query, second.Query)
	assert.Len(t, s.requests, 1)
}

func ptr[T any](v T) *T { return &v }

func TestEvaluate_PagesInStableOrder(t *testing.T) {
	now := date(2024, 1, 10)
	s := &fakeSearcher{hits: hitsModifiedAt(now, now, now, now, now)}
	_, err := NewEvaluator(s, 2, 100).Evaluate(context.Background(), testFilter, model.StoredQuery{ExecutionInterval: interval.Daily}, now)
	require.NoError(t, err)

	require.Len(t, s.requests, 3)
	for _, req := range s.requests {
		assert.Equal(t, "_id", req.OrderField)
		assert.Equal(t, "asc", req.Order)
	}
}

func TestEvaluate_DuplicateAcrossPagesKeepsHash(t *testing.T) {
	now := date(2024, 1, 10)
	hits := hitsModifiedAt(now, now, now)
	q := model.StoredQuery{ExecutionInterval: interval.Daily}

	clean, err := NewEvaluator(&fakeSearcher{hits: hits}, 2, 100).Evaluate(context.Background(), testFilter, q, now)
	require.NoError(t, err)

	// 第二页重复返回了上一页末尾的结果
	shifted := []search.Hit{hits[0], hits[1], hits[1], hits[2]}
	dup, err := NewEvaluator(&fakeSearcher{hits: shifted}, 2, 100).Evaluate(context.Background(), testFilter, q, now)
	require.NoError(t, err)

	assert.Equal(t, clean.Hash, dup.Hash)
}
