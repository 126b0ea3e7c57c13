package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client/directory"
)

type fakeDirectory struct {
	users    map[string]directory.User
	calls    atomic.Int64
	bulkIDs  [][]string
	searches atomic.Int64
}

func (f *fakeDirectory) GetUser(_ context.Context, id string) (*directory.User, error) {
	f.calls.Add(1)
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("directory user", id)
	}
	return &u, nil
}

func (f *fakeDirectory) GetUsers(_ context.Context, ids []string) ([]directory.User, error) {
	f.bulkIDs = append(f.bulkIDs, ids)
	var res []directory.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (f *fakeDirectory) GetGroup(_ context.Context, id string) (*directory.Group, error) {
	f.calls.Add(1)
	return &directory.Group{ID: id, DisplayName: "group " + id}, nil
}

func (f *fakeDirectory) Search(_ context.Context, term string) ([]directory.Entity, error) {
	f.searches.Add(1)
	if term == "none" {
		return []directory.Entity{}, nil
	}
	return []directory.Entity{{ID: "u1", DisplayName: term, Kind: "user"}}, nil
}

func setup(t *testing.T) (*Directory, *fakeDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	fake := &fakeDirectory{users: map[string]directory.User{
		"u1":               {ID: "u1", Mail: "jane@example.com"},
		"u2":               {ID: "u2", Mail: "joe@example.com"},
		"jane@example.com": {ID: "u1", Mail: "jane@example.com"},
	}}
	return NewDirectory(fake, rdb, time.Minute), fake, mr
}

func TestDirectory_GetUserCachesByIDAndEmail(t *testing.T) {
	d, fake, _ := setup(t)
	ctx := context.Background()

	u, err := d.GetUser(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = d.GetUser(ctx, "JANE@example.com")
	require.NoError(t, err)
	_, err = d.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.calls.Load())

	_, err = d.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDirectory_TTLExpiry(t *testing.T) {
	d, fake, mr := setup(t)
	ctx := context.Background()

	_, err := d.GetGroup(ctx, "g1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = d.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, fake.calls.Load())
}

func TestDirectory_GetUsersLoadsOnlyMissing(t *testing.T) {
	d, fake, _ := setup(t)
	ctx := context.Background()

	_, err := d.GetUser(ctx, "u1")
	require.NoError(t, err)

	users, err := d.GetUsers(ctx, []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)
	require.Len(t, fake.bulkIDs, 1)
	assert.Equal(t, []string{"u2", "u3"}, fake.bulkIDs[0])

	_, err = d.GetUsers(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Len(t, fake.bulkIDs, 1)
}

func TestDirectory_SearchSkipsEmptyResults(t *testing.T) {
	d, fake, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := d.Search(ctx, "none")
		require.NoError(t, err)
		res, err := d.Search(ctx, "jane")
		require.NoError(t, err)
		require.Len(t, res, 1)
	}
	assert.EqualValues(t, 3, fake.searches.Load())
}

func TestDirectory_RedisDownFallsBack(t *testing.T) {
	d, fake, mr := setup(t)
	mr.Close()

	u, err := d.GetUser(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "joe@example.com", u.Mail)
	assert.EqualValues(t, 1, fake.calls.Load())
}
