package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/client/search"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/testutil"
)

// env 基于内存 sqlite 组装仓储与服务
type env struct {
	db         *gorm.DB
	users      repository.UserRepository
	filters    repository.SearchFilterRepository
	queries    repository.StoredQueryRepository
	messages   repository.MessageRepository
	configs    repository.MessageConfigRepository
	templates  repository.MessageTemplateRepository
	subs       repository.SubscriptionRepository
	dispatcher *Dispatcher
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	db := testutil.NewTestDB(t)
	e := &env{
		db:        db,
		users:     repository.NewUserRepository(db),
		filters:   repository.NewSearchFilterRepository(db),
		queries:   repository.NewStoredQueryRepository(db),
		messages:  repository.NewMessageRepository(db),
		configs:   repository.NewMessageConfigRepository(db),
		templates: repository.NewMessageTemplateRepository(db),
		subs:      repository.NewSubscriptionRepository(db),
	}
	e.dispatcher = NewDispatcher(e.configs, e.templates, e.messages)
	e.dispatcher.now = fixedClock(now)
	return e
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeSearcher struct {
	hits  []search.Hit
	err   error
	calls int
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (*search.Page, error) {
	f.calls++
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
