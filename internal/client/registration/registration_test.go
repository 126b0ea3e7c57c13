package registration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
)

func TestClient_RegisterAndUnregister(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			_, _ = w.Write([]byte(`{"pidUri":"https://pid.example.com/search/42"}`))
		case http.MethodDelete:
			if r.URL.Query().Get("pidUri") == "https://pid.example.com/gone" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(config.ClientConfig{BaseURL: srv.URL}, nil)
	pid, err := c.Register(context.Background(), Filter{
		Name:       "weekly",
		SearchTerm: "sales",
		FilterJSON: []byte(`{"type":["dataset"]}`),
		Owner:      "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pid.example.com/search/42", pid)
	assert.JSONEq(t, `{"name":"weekly","searchTerm":"sales","filter":{"type":["dataset"]},"owner":"u1"}`, body)

	require.NoError(t, c.Unregister(context.Background(), pid))
	require.NoError(t, c.Unregister(context.Background(), "https://pid.example.com/gone"))
}

func TestClient_RegisterWithoutPID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(config.ClientConfig{BaseURL: srv.URL}, nil).Register(context.Background(), Filter{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}
