package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.DirectoryConfig{ClientConfig: config.ClientConfig{BaseURL: srv.URL}}, nil)
}

func TestClient_GetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/jane@example.com" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Contains(t, r.URL.Query().Get("$select"), "department")
		_, _ = w.Write([]byte(`{"id":"6f1c","mail":"jane@example.com","displayName":"Jane","department":"R&D","accountEnabled":true}`))
	})

	u, err := c.GetUser(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "6f1c", u.ID)
	assert.Equal(t, "R&D", u.Department)
	assert.True(t, u.AccountEnabled)

	_, err = c.GetUser(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClient_FailureIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetUser(context.Background(), "6f1c")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = c.GetGroup(context.Background(), "g1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	res, err := c.Search(context.Background(), "ja")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("$filter"), "startswith(displayName,'o''brien')")
		if strings.HasSuffix(r.URL.Path, "/users") {
			_, _ = w.Write([]byte(`{"value":[{"id":"u1","mail":"o@example.com","displayName":"O'Brien"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"value":[{"id":"g1","displayName":"O'Brien fans"}]}`))
	})

	res, err := c.Search(context.Background(), "o'brien")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, Entity{ID: "u1", Mail: "o@example.com", DisplayName: "O'Brien", Kind: "user"}, res[0])
	assert.Equal(t, "group", res[1].Kind)

	empty, err := c.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClient_GetUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/directoryObjects/getByIds", r.URL.Path)
		_, _ = w.Write([]byte(`{"value":[{"id":"a","mail":"a@example.com"},{"id":"b"}]}`))
	})

	users, err := c.GetUsers(context.Background(), []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Mail)
}
