package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/testutil"
)

func TestSchedule(t *testing.T) {
	// 2024-01-10 是周三
	now := time.Date(2024, 1, 10, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		name         string
		send, del    interval.Interval
		wantSend     *time.Time
		wantDeleteOn *time.Time
	}{
		{
			name: "weekly then monthly", send: interval.Weekly, del: interval.Monthly,
			wantSend:     testutil.Ptr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
			wantDeleteOn: testutil.Ptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "immediately then daily", send: interval.Immediately, del: interval.Daily,
			wantSend:     testutil.Ptr(now),
			wantDeleteOn: testutil.Ptr(now.AddDate(0, 0, 1)),
		},
		{
			name: "never send", send: interval.Never, del: interval.Quarterly,
			wantSend:     nil,
			wantDeleteOn: testutil.Ptr(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "never delete", send: interval.Daily, del: interval.Never,
			wantSend:     testutil.Ptr(now.AddDate(0, 0, 1)),
			wantDeleteOn: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendOn, deleteOn := Schedule(model.MessageConfig{SendInterval: tt.send, DeleteInterval: tt.del}, now)
			assert.Equal(t, tt.wantSend, sendOn)
			assert.Equal(t, tt.wantDeleteOn, deleteOn)
		})
	}
}

func TestDispatcher_DispatchUsesUserConfig(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	u := testutil.NewUser().WithMessageConfig(interval.Weekly, interval.Monthly).Create(t, e.db)

	msg, err := e.dispatcher.Dispatch(context.Background(), u.ID, "hello", "world")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	require.NotNil(t, msg.SendOn)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *msg.SendOn)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *msg.DeleteOn)
	assert.Nil(t, msg.ReadOn)

	stored, err := e.messages.ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestDispatcher_MissingConfigFallsBackToDefault(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	e := newEnv(t, now)

	msg, err := e.dispatcher.Build(context.Background(), "no-config", "s", "b", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *msg.SendOn)
}

func TestDispatcher_StoredQueryResultTemplate(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	ctx := context.Background()
	filter := model.SearchFilterDataMarketplace{UserID: "u1", Name: "sales", PidURI: testutil.Ptr("https://pid.example.com/sf/1")}

	msg, err := e.dispatcher.BuildStoredQueryResult(ctx, filter, []string{"https://pid.example.com/a", "https://pid.example.com/b"}, now)
	require.NoError(t, err)
	assert.Equal(t, "New results for your saved search sales", msg.Subject)
	assert.Contains(t, msg.Body, "has 2 new or updated resources")
	assert.Contains(t, msg.Body, "https://pid.example.com/b")
	assert.Equal(t, "https://pid.example.com/sf/1", msg.AdditionalInfo)

	require.NoError(t, e.templates.Create(ctx, &model.MessageTemplate{
		Type: model.MessageTypeStoredQueryResult, Subject: "[%s]", Body: "%s: %s",
	}))
	msg, err = e.dispatcher.BuildStoredQueryResult(ctx, filter, []string{"x"}, now)
	require.NoError(t, err)
	assert.Equal(t, "[sales]", msg.Subject)
	assert.Equal(t, "sales: 1", msg.Body)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "a-b", render("%s-%s", "a", "b", "c"))
	assert.Equal(t, "a-", render("%s-%s", "a"))
	assert.Equal(t, "100%", render("100%"))
}
