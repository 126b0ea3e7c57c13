package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
)

type staticCredential struct {
	token  string
	err    error
	scopes []string
}

func (c *staticCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestBase_DoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cred := &staticCredential{token: "t0k"}
	b := NewBase("search", config.ClientConfig{BaseURL: srv.URL + "/", Scope: "api://search/.default"}, cred)

	data, err := b.Do(context.Background(), http.MethodGet, "/ping", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, "Bearer t0k", gotAuth)
	assert.Equal(t, []string{"api://search/.default"}, cred.scopes)
}

func TestBase_DoMapsStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
	}{
		{"not found", http.StatusNotFound, apperr.ErrNotFound},
		{"server error", http.StatusBadGateway, apperr.ErrUpstreamUnavailable},
		{"unauthorized", http.StatusUnauthorized, apperr.ErrUpstreamUnavailable},
		{"forbidden", http.StatusForbidden, apperr.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewBase("directory", config.ClientConfig{BaseURL: srv.URL}, nil).
				Do(context.Background(), http.MethodGet, "/x", nil, nil)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestBase_DoBadRequestIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad filter", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewBase("search", config.ClientConfig{BaseURL: srv.URL}, nil).
		Do(context.Background(), http.MethodPost, "/search", nil, map[string]string{"q": "x"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.False(t, errors.Is(err, apperr.ErrUpstreamUnavailable))
}

func TestBase_DoTransportAndTokenFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewBase("search", config.ClientConfig{BaseURL: url}, nil).
		Do(context.Background(), http.MethodGet, "/", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)

	cred := &staticCredential{err: errors.New("aad down")}
	_, err = NewBase("search", config.ClientConfig{BaseURL: url, Scope: "s"}, cred).
		Do(context.Background(), http.MethodGet, "/", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestNewCredential_EmptyClientID(t *testing.T) {
	cred, err := NewCredential(config.AzureConfig{})
	require.NoError(t, err)
	assert.Nil(t, cred)
}
