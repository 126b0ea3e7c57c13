// Package client 封装对目录、检索、注册服务的出站 HTTP 调用。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
)

const maxErrorBody = 512

// StatusError 下游返回的非 2xx 响应
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// NewCredential 根据 Azure 配置创建客户端凭据；未配置 ClientID 时返回 nil（不附带 token）
func NewCredential(cfg config.AzureConfig) (azcore.TokenCredential, error) {
	if cfg.ClientID == "" {
		return nil, nil
	}
	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return cred, nil
}

// Base 出站调用的公共部分：base url、超时、bearer token
type Base struct {
	name    string
	baseURL string
	scope   string
	cred    azcore.TokenCredential
	http    *http.Client
}

// NewBase name 用于错误信息；cred 可以为 nil
func NewBase(name string, cfg config.ClientConfig, cred azcore.TokenCredential) *Base {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Base{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		scope:   cfg.Scope,
		cred:    cred,
		http:    &http.Client{Timeout: timeout},
	}
}

// Name 下游服务名
func (b *Base) Name() string { return b.name }

// Do 发送请求并返回响应体。
// 传输错误、5xx、401/403 包装为 ErrUpstreamUnavailable；404 包装为 ErrNotFound；
// 其他非 2xx 返回 *StatusError。
func (b *Base) Do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", b.name, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", b.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := b.authorize(ctx, req); err != nil {
		return nil, apperr.Upstream(b.name, err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, apperr.Upstream(b.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream(b.name, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFound(b.name+" resource", path)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Upstream(b.name, statusError(resp.StatusCode, data))
	default:
		return nil, fmt.Errorf("%s: %w", b.name, statusError(resp.StatusCode, data))
	}
}

func (b *Base) authorize(ctx context.Context, req *http.Request) error {
	if b.cred == nil || b.scope == "" {
		return nil
	}
	tok, err := b.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{b.scope}})
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return nil
}

func statusError(code int, body []byte) *StatusError {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return &StatusError{Code: code, Body: s}
}
