// Package search 检索服务客户端
package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/tidwall/gjson"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client"
)

// Request 一次检索请求；Criteria 是过滤器里保存的不透明 JSON
type Request struct {
	Criteria   json.RawMessage `json:"aggregationFilters,omitempty"`
	SearchTerm string          `json:"searchTerm"`
	From       int             `json:"from"`
	Size       int             `json:"size"`
	OrderField string          `json:"orderField,omitempty"`
	Order      string          `json:"order,omitempty"`
}

// Hit 单条结果；ID 为资源的 PID URI
type Hit struct {
	ID           string
	Score        float64
	Source       json.RawMessage
	LastModified time.Time
}

// Page 一页结果及总数
type Page struct {
	Total int
	Hits  []Hit
}

// Client 检索服务
type Client struct {
	base             *client.Base
	lastModifiedPath string
}

func NewClient(cfg config.SearchConfig, cred azcore.TokenCredential) *Client {
	return &Client{
		base:             client.NewBase("search", cfg.ClientConfig, cred),
		lastModifiedPath: cfg.LastModifiedPath,
	}
}

// Search 执行检索。响应结构不合法时视为下游不可用。
func (c *Client) Search(ctx context.Context, req Request) (*Page, error) {
	data, err := c.base.Do(ctx, http.MethodPost, "/api/search", nil, req)
	if err != nil {
		return nil, err
	}
	return parsePage(data, c.lastModifiedPath)
}

func parsePage(data []byte, lastModifiedPath string) (*Page, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperr.Upstream("search", errors.New("invalid json response"))
	}
	res := gjson.ParseBytes(data)
	hits := res.Get("hits")
	if !hits.Exists() {
		return nil, apperr.Upstream("search", errors.New("response without hits"))
	}

	// hits.total 可能是数字，也可能是 {"value": n}
	total := hits.Get("total")
	if total.IsObject() {
		total = total.Get("value")
	}

	page := &Page{Total: int(total.Int())}
	for _, h := range hits.Get("hits").Array() {
		hit := Hit{
			ID:     h.Get("_id").String(),
			Score:  h.Get("_score").Float(),
			Source: json.RawMessage(h.Get("_source").Raw),
		}
		if lastModifiedPath != "" {
			if v := h.Get("_source." + lastModifiedPath); v.Exists() {
				hit.LastModified = lastModified(v)
			}
		}
		page.Hits = append(page.Hits, hit)
	}
	return page, nil
}

// 兼容 RFC3339 字符串、数组首元素、毫秒时间戳三种形式
func lastModified(v gjson.Result) time.Time {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return time.Time{}
		}
		v = arr[0]
	}
	if v.Type == gjson.Number {
		return time.UnixMilli(v.Int()).UTC()
	}
	t, err := time.Parse(time.RFC3339Nano, v.String())
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
