// Package registration 为保存的检索申请/注销持久标识（PID URI）
package registration

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/tidwall/gjson"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client"
)

// Filter 注册时提交的检索描述
type Filter struct {
	Name       string
	SearchTerm string
	FilterJSON []byte
	Owner      string
}

type Client struct {
	base *client.Base
}

func NewClient(cfg config.ClientConfig, cred azcore.TokenCredential) *Client {
	return &Client{base: client.NewBase("registration", cfg, cred)}
}

type registerRequest struct {
	Name       string    `json:"name"`
	SearchTerm string    `json:"searchTerm"`
	Filter     rawOrNull `json:"filter"`
	Owner      string    `json:"owner"`
}

// Register 返回分配的 PID URI
func (c *Client) Register(ctx context.Context, f Filter) (string, error) {
	data, err := c.base.Do(ctx, http.MethodPost, "/api/pidUris", nil, registerRequest{
		Name:       f.Name,
		SearchTerm: f.SearchTerm,
		Filter:     rawOrNull(f.FilterJSON),
		Owner:      f.Owner,
	})
	if err != nil {
		return "", err
	}
	pid := gjson.GetBytes(data, "pidUri").String()
	if pid == "" {
		return "", apperr.Upstream("registration", errEmptyPID)
	}
	return pid, nil
}

// Unregister 注销 PID；已不存在视为成功
func (c *Client) Unregister(ctx context.Context, pidURI string) error {
	_, err := c.base.Do(ctx, http.MethodDelete, "/api/pidUris", url.Values{"pidUri": {pidURI}}, nil)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}
