// Package directory 目录服务（Graph 风格 API）客户端
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/config"
	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/client"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

const (
	userSelect  = "id,mail,displayName,givenName,surname,department,accountEnabled"
	groupSelect = "id,mail,displayName"
	searchTop   = 25
)

// User 目录中的用户
type User struct {
	ID             string `json:"id"`
	Mail           string `json:"mail"`
	DisplayName    string `json:"display_name"`
	GivenName      string `json:"given_name"`
	Surname        string `json:"surname"`
	Department     string `json:"department"`
	AccountEnabled bool   `json:"account_enabled"`
}

// Group 目录中的组
type Group struct {
	ID          string `json:"id"`
	Mail        string `json:"mail"`
	DisplayName string `json:"display_name"`
}

// Entity 搜索结果，Kind 为 user 或 group
type Entity struct {
	ID          string `json:"id"`
	Mail        string `json:"mail"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
}

// Directory 目录查询接口；缓存实现同样满足该接口
type Directory interface {
	GetUser(ctx context.Context, idOrEmail string) (*User, error)
	GetUsers(ctx context.Context, ids []string) ([]User, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
	Search(ctx context.Context, term string) ([]Entity, error)
}

type Client struct {
	base *client.Base
}

func NewClient(cfg config.DirectoryConfig, cred azcore.TokenCredential) *Client {
	return &Client{base: client.NewBase("directory", cfg.ClientConfig, cred)}
}

// GetUser 按对象 id 或邮箱查询；查不到或调用失败都返回 ErrNotFound
func (c *Client) GetUser(ctx context.Context, idOrEmail string) (*User, error) {
	data, err := c.base.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(idOrEmail), url.Values{"$select": {userSelect}}, nil)
	if err != nil {
		return nil, notFound("user", idOrEmail, err)
	}
	u := parseUser(gjson.ParseBytes(data))
	if u.ID == "" {
		return nil, apperr.NotFound("directory user", idOrEmail)
	}
	return &u, nil
}

// GetUsers 批量按对象 id 查询，查不到的 id 直接忽略
func (c *Client) GetUsers(ctx context.Context, ids []string) ([]User, error) {
	res := make([]User, 0, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	body := map[string]any{"ids": ids, "types": []string{"user"}}
	data, err := c.base.Do(ctx, http.MethodPost, "/directoryObjects/getByIds", nil, body)
	if err != nil {
		logger.Warn("directory bulk lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return res, nil
	}
	for _, v := range gjson.GetBytes(data, "value").Array() {
		if u := parseUser(v); u.ID != "" {
			res = append(res, u)
		}
	}
	return res, nil
}

func (c *Client) GetGroup(ctx context.Context, id string) (*Group, error) {
	data, err := c.base.Do(ctx, http.MethodGet, "/groups/"+url.PathEscape(id), url.Values{"$select": {groupSelect}}, nil)
	if err != nil {
		return nil, notFound("group", id, err)
	}
	r := gjson.ParseBytes(data)
	g := Group{ID: r.Get("id").String(), Mail: r.Get("mail").String(), DisplayName: r.Get("displayName").String()}
	if g.ID == "" {
		return nil, apperr.NotFound("directory group", id)
	}
	return &g, nil
}

// Search 按显示名或邮箱前缀搜索用户和组；失败时返回空结果
func (c *Client) Search(ctx context.Context, term string) ([]Entity, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Entity{}, nil
	}
	esc := strings.ReplaceAll(term, "'", "''")
	filter := fmt.Sprintf("startswith(displayName,'%s') or startswith(mail,'%s')", esc, esc)

	res := make([]Entity, 0)
	for _, kind := range []string{"user", "group"} {
		q := url.Values{
			"$filter": {filter},
			"$select": {groupSelect},
			"$top":    {fmt.Sprint(searchTop)},
		}
		data, err := c.base.Do(ctx, http.MethodGet, "/"+kind+"s", q, nil)
		if err != nil {
			logger.Warn("directory search failed", zap.String("kind", kind), zap.String("term", term), zap.Error(err))
			continue
		}
		for _, v := range gjson.GetBytes(data, "value").Array() {
			res = append(res, Entity{
				ID:          v.Get("id").String(),
				Mail:        v.Get("mail").String(),
				DisplayName: v.Get("displayName").String(),
				Kind:        kind,
			})
		}
	}
	return res, nil
}

func parseUser(r gjson.Result) User {
	return User{
		ID:             r.Get("id").String(),
		Mail:           r.Get("mail").String(),
		DisplayName:    r.Get("displayName").String(),
		GivenName:      r.Get("givenName").String(),
		Surname:        r.Get("surname").String(),
		Department:     r.Get("department").String(),
		AccountEnabled: r.Get("accountEnabled").Bool(),
	}
}

func notFound(kind, key string, err error) error {
	if !errors.Is(err, apperr.ErrNotFound) {
		logger.Warn("directory lookup failed", zap.String("kind", kind), zap.String("key", key), zap.Error(err))
	}
	return apperr.NotFound("directory "+kind, key)
}
