package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/internal/api/handler"
	"github.com/d60-Lab/appdata-service/internal/api/middleware"
	"github.com/d60-Lab/appdata-service/internal/repository"
	"github.com/d60-Lab/appdata-service/internal/service"
	"github.com/d60-Lab/appdata-service/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubSweeper struct{ res service.SweepResult }

func (s stubSweeper) Sweep(context.Context) (service.SweepResult, error) { return s.res, nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field string `json:"field"`
	} `json:"errors"`
}

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	configs := repository.NewMessageConfigRepository(db)
	templates := repository.NewMessageTemplateRepository(db)
	messages := repository.NewMessageRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	dispatcher := service.NewDispatcher(configs, templates, messages)

	h := handler.New(handler.Services{
		Users: service.NewUserService(users, repository.NewConsumerGroupRepository(db),
			repository.NewSearchFilterEditorRepository(db), configs),
		ConsumerGroups: service.NewConsumerGroupService(repository.NewConsumerGroupRepository(db)),
		SearchFilters:  service.NewSearchFilterService(users, repository.NewSearchFilterRepository(db), nil),
		Subscriptions:  service.NewSubscriptionService(users, subs),
		Messages:       service.NewMessageService(users, messages, dispatcher),
		Templates:      service.NewMessageTemplateService(templates),
		Favorites:      service.NewFavoritesService(users, repository.NewFavoritesRepository(db)),
		Sweeper:        stubSweeper{res: service.SweepResult{Evaluated: 2, Changed: 1, Notified: 1}},
		Notifier:       service.NewSubscriptionNotifier(subs, configs, messages, dispatcher, 10),
	})
	opts.Server.Mode = gin.TestMode
	return NewRouter(h, opts)
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealth(t *testing.T) {
	ok := newTestRouter(t, Options{Health: map[string]handler.Pinger{
		"database": handler.PingFunc(func(context.Context) error { return nil }),
	}})
	w, _ := do(t, ok, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestRouter(t, Options{Health: map[string]handler.Pinger{
		"redis": handler.PingFunc(func(context.Context) error { return errors.New("refused") }),
	}})
	w, _ = do(t, down, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUsers_CRUDAndErrorMapping(t *testing.T) {
	r := newTestRouter(t, Options{})
	id := "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

	w, _ := do(t, r, http.MethodPost, "/api/v3/users", map[string]string{"id": id, "email_address": "a@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/v3/users/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var u struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "a@example.com", u.EmailAddress)

	w, _ = do(t, r, http.MethodPost, "/api/v3/users", map[string]string{"id": id, "email_address": "b@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v3/users", map[string]string{"email_address": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "email_address", env.Errors[0].Field)

	w, _ = do(t, r, http.MethodGet, "/api/v3/users/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/v3/users/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/v3/users/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageConfig_RejectsUnknownInterval(t *testing.T) {
	r := newTestRouter(t, Options{})
	w, _ := do(t, r, http.MethodPost, "/api/v3/users", map[string]string{"email_address": "c@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))

	w, env = do(t, r, http.MethodPut, "/api/v3/users/"+u.ID+"/messageConfig",
		map[string]string{"send_interval": "Hourly", "delete_interval": "Monthly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "send_interval", env.Errors[0].Field)

	w, _ = do(t, r, http.MethodPut, "/api/v3/users/"+u.ID+"/messageConfig",
		map[string]string{"send_interval": "Daily", "delete_interval": "Never"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptions_NotifyDeletedRemovesSubscribers(t *testing.T) {
	r := newTestRouter(t, Options{})
	uri := "https://pid.example.com/entry-1"

	var ids []string
	for _, mail := range []string{"s1@example.com", "s2@example.com"} {
		w, env := do(t, r, http.MethodPost, "/api/v3/users", map[string]string{"email_address": mail})
		require.Equal(t, http.StatusCreated, w.Code)
		var u struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &u))
		ids = append(ids, u.ID)

		w, _ = do(t, r, http.MethodPost, "/api/v3/users/"+u.ID+"/colidEntrySubscriptions",
			map[string]string{"colid_pid_uri": uri})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, _ := do(t, r, http.MethodPost, "/api/v3/users/"+ids[0]+"/colidEntrySubscriptions",
		map[string]string{"colid_pid_uri": uri})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/v3/colidEntrySubscriptions/subscribers?pid_uri="+uri, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pid_uri":"`+uri+`","subscribers":2}`, string(env.Data))

	w, env = do(t, r, http.MethodPost, "/api/v3/colidEntrySubscriptions/notifyDeleted",
		map[string]string{"colid_pid_uri": uri, "label": "Entry 1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"messages":2}`, string(env.Data))

	w, env = do(t, r, http.MethodGet, "/api/v3/colidEntrySubscriptions/subscribers?pid_uri="+uri, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pid_uri":"`+uri+`","subscribers":0}`, string(env.Data))

	w, env = do(t, r, http.MethodGet, "/api/v3/users/"+ids[1]+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	assert.Len(t, msgs, 1)
}

func TestSubscribe_RejectsRelativeURI(t *testing.T) {
	r := newTestRouter(t, Options{})
	w, _ := do(t, r, http.MethodPost, "/api/v3/users/any/colidEntrySubscriptions",
		map[string]string{"colid_pid_uri": "entry-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectory_NotConfigured(t *testing.T) {
	r := newTestRouter(t, Options{})
	w, _ := do(t, r, http.MethodGet, "/api/v3/activeDirectory/users/someone@example.com", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExecuteStoredQueries(t *testing.T) {
	r := newTestRouter(t, Options{})
	w, env := do(t, r, http.MethodPost, "/api/v3/storedQueries/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"evaluated":2,"changed":1,"notified":1,"skipped":0,"failed":0}`, string(env.Data))
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, Options{RateLimiter: middleware.NewRateLimiter(0.001, 1)})
	w, _ := do(t, r, http.MethodGet, "/api/v3/consumerGroups", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/v3/consumerGroups", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

