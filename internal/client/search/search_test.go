package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
)

const sampleResponse = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_id": "https://pid.example.com/a", "_score": 1.5,
       "_source": {"lastChangeDateTime": ["2024-01-08T10:00:00Z"], "label": "A"}},
      {"_id": "https://pid.example.com/b", "_score": 0.5,
       "_source": {"lastChangeDateTime": "2023-12-01T00:00:00Z"}}
    ]
  }
}`

func TestParsePage(t *testing.T) {
	page, err := parsePage([]byte(sampleResponse), "lastChangeDateTime")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Hits, 2)
	assert.Equal(t, "https://pid.example.com/a", page.Hits[0].ID)
	assert.Equal(t, 1.5, page.Hits[0].Score)
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), page.Hits[0].LastModified)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), page.Hits[1].LastModified)
}

func TestParsePage_NumericTotalAndMillis(t *testing.T) {
	body := `{"hits":{"total":1,"hits":[{"_id":"x","_source":{"modified":1704067200000}}]}}`
	page, err := parsePage([]byte(body), "modified")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), page.Hits[0].LastModified)
}

func TestParsePage_Malformed(t *testing.T) {
	_, err := parsePage([]byte(`not json`), "")
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	_, err = parsePage([]byte(`{"took":3}`), "")
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestClient_Search(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(config.SearchConfig{
		ClientConfig:     config.ClientConfig{BaseURL: srv.URL},
		LastModifiedPath: "lastChangeDateTime",
	}, nil)
	page, err := c.Search(context.Background(), Request{
		Criteria:   json.RawMessage(`{"type":["dataset"]}`),
		SearchTerm: "sales",
		From:       100,
		Size:       50,
	})
	require.NoError(t, err)
	assert.Len(t, page.Hits, 2)
	assert.Equal(t, "sales", got.SearchTerm)
	assert.Equal(t, 100, got.From)
	assert.JSONEq(t, `{"type":["dataset"]}`, string(got.Criteria))
}
