package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/internal/interval"
	"github.com/d60-Lab/appdata-service/internal/model"
	"github.com/d60-Lab/appdata-service/internal/testutil"
)

const notifiedURI = "https://pid.example.com/entry/42"

func TestSubscriptionNotifier_UpdatedFansOutInPages(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b := testutil.NewUser().WithID(fmt.Sprintf("sub-%d", i))
		if i == 0 {
			b = b.WithMessageConfig(interval.Immediately, interval.Daily)
		}
		u := b.Create(t, e.db)
		require.NoError(t, e.subs.Create(ctx, &model.ColidEntrySubscription{UserID: u.ID, ColidPidURI: notifiedURI}))
	}
	other := testutil.NewUser().Create(t, e.db)
	require.NoError(t, e.subs.Create(ctx, &model.ColidEntrySubscription{UserID: other.ID, ColidPidURI: "https://pid.example.com/entry/other"}))

	n := NewSubscriptionNotifier(e.subs, e.configs, e.messages, e.dispatcher, 2)
	n.now = fixedClock(now)

	written, err := n.NotifyEntryUpdated(ctx, notifiedURI, "Sales 2024")
	require.NoError(t, err)
	assert.Equal(t, 5, written)

	msgs, err := e.messages.ListByUser(ctx, "sub-0")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Subscribed entry updated: Sales 2024", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, notifiedURI)
	assert.Equal(t, notifiedURI, msgs[0].AdditionalInfo)
	assert.Equal(t, now, *msgs[0].SendOn)

	msgs, err = e.messages.ListByUser(ctx, "sub-3")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *msgs[0].SendOn)

	msgs, err = e.messages.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	count, err := e.subs.CountSubscribers(ctx, notifiedURI)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestSubscriptionNotifier_DeletedRemovesSubscriptions(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	ctx := context.Background()

	u := testutil.NewUser().Create(t, e.db)
	require.NoError(t, e.subs.Create(ctx, &model.ColidEntrySubscription{UserID: u.ID, ColidPidURI: notifiedURI}))

	n := NewSubscriptionNotifier(e.subs, e.configs, e.messages, e.dispatcher, 10)
	written, err := n.NotifyEntryDeleted(ctx, notifiedURI, "")
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	msgs, err := e.messages.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Subscribed entry deleted: "+notifiedURI, msgs[0].Subject)

	ok, err := e.subs.Exists(ctx, u.ID, notifiedURI)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscriptionNotifier_NoSubscribers(t *testing.T) {
	e := newEnv(t, time.Now())
	n := NewSubscriptionNotifier(e.subs, e.configs, e.messages, e.dispatcher, 10)
	written, err := n.NotifyEntryUpdated(context.Background(), notifiedURI, "x")
	require.NoError(t, err)
	assert.Zero(t, written)
}
