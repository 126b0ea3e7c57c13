package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
)

// UserBuilder 构造用户及其默认消息配置
type UserBuilder struct {
	user   model.User
	config *model.MessageConfig
}

func NewUser() *UserBuilder {
	id := uuid.NewString()
	return &UserBuilder{user: model.User{ID: id, EmailAddress: id[:8] + "@example.com"}}
}

func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.ID = id
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.EmailAddress = email
	return b
}

func (b *UserBuilder) WithMessageConfig(send, del interval.Interval) *UserBuilder {
	b.config = &model.MessageConfig{SendInterval: send, DeleteInterval: del}
	return b
}

func (b *UserBuilder) Build() model.User { return b.user }

// Create 写入用户与消息配置（未指定时使用默认配置）
func (b *UserBuilder) Create(tb testing.TB, db *gorm.DB) model.User {
	tb.Helper()
	u := b.user
	mustCreate(tb, db, &u)
	cfg := model.DefaultMessageConfig(u.ID)
	if b.config != nil {
		cfg.SendInterval, cfg.DeleteInterval = b.config.SendInterval, b.config.DeleteInterval
	}
	mustCreate(tb, db, &cfg)
	return u
}

// SearchFilterBuilder 构造用户的检索过滤器，可选附带存储查询
type SearchFilterBuilder struct {
	filter model.SearchFilterDataMarketplace
	query  *model.StoredQuery
}

func NewSearchFilter(userID string) *SearchFilterBuilder {
	return &SearchFilterBuilder{filter: model.SearchFilterDataMarketplace{
		UserID:     userID,
		Name:       "filter",
		SearchTerm: "*",
		FilterJSON: datatypes.JSON(`{"aggregations":{}}`),
	}}
}

func (b *SearchFilterBuilder) WithName(name string) *SearchFilterBuilder {
	b.filter.Name = name
	return b
}

func (b *SearchFilterBuilder) WithSearchTerm(term string) *SearchFilterBuilder {
	b.filter.SearchTerm = term
	return b
}

func (b *SearchFilterBuilder) WithPidURI(uri string) *SearchFilterBuilder {
	b.filter.PidURI = &uri
	return b
}

func (b *SearchFilterBuilder) WithStoredQuery(iv interval.Interval, latest *time.Time, hash string) *SearchFilterBuilder {
	b.query = &model.StoredQuery{ExecutionInterval: iv, LatestExecutionDate: latest, SearchResultHash: hash}
	return b
}

// Create 写入过滤器；带存储查询时先写查询再关联
func (b *SearchFilterBuilder) Create(tb testing.TB, db *gorm.DB) (model.SearchFilterDataMarketplace, *model.StoredQuery) {
	tb.Helper()
	f := b.filter
	var q *model.StoredQuery
	if b.query != nil {
		cp := *b.query
		mustCreate(tb, db, &cp)
		f.StoredQueryID = &cp.ID
		q = &cp
	}
	mustCreate(tb, db, &f)
	return f, q
}

// MessageBuilder 构造消息
type MessageBuilder struct{ msg model.Message }

func NewMessage(userID string) *MessageBuilder {
	return &MessageBuilder{msg: model.Message{UserID: userID, Subject: "subject", Body: "body"}}
}

func (b *MessageBuilder) SendOn(t time.Time) *MessageBuilder {
	b.msg.SendOn = &t
	return b
}

func (b *MessageBuilder) ReadOn(t time.Time) *MessageBuilder {
	b.msg.ReadOn = &t
	return b
}

func (b *MessageBuilder) DeleteOn(t time.Time) *MessageBuilder {
	b.msg.DeleteOn = &t
	return b
}

func (b *MessageBuilder) Create(tb testing.TB, db *gorm.DB) model.Message {
	tb.Helper()
	m := b.msg
	mustCreate(tb, db, &m)
	return m
}

// Ptr 返回值的指针
func Ptr[T any](v T) *T { return &v }

func mustCreate(tb testing.TB, db *gorm.DB, v any) {
	tb.Helper()
	if err := db.Create(v).Error; err != nil {
		tb.Fatalf("create %T: %v", v, err)
	}
}
