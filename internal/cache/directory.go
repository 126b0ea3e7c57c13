// Package cache 目录查询的 redis 旁路缓存
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/client/directory"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

const keyPrefix = "directory:"

// Directory 在 directory.Directory 前加一层 redis 缓存；redis 故障时直接回源
type Directory struct {
	next  directory.Directory
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

var _ directory.Directory = (*Directory)(nil)

func NewDirectory(next directory.Directory, cache *redis.Client, ttl time.Duration) *Directory {
	return &Directory{next: next, cache: cache, ttl: ttl}
}

func userKey(idOrEmail string) string {
	return keyPrefix + "user:" + strings.ToLower(idOrEmail)
}

func (d *Directory) GetUser(ctx context.Context, idOrEmail string) (*directory.User, error) {
	var u directory.User
	if d.get(ctx, userKey(idOrEmail), &u) {
		return &u, nil
	}
	res, err := d.next.GetUser(ctx, idOrEmail)
	if err != nil {
		return nil, err
	}
	d.set(ctx, userKey(idOrEmail), res)
	if !strings.EqualFold(res.ID, idOrEmail) {
		d.set(ctx, userKey(res.ID), res)
	}
	return res, nil
}

// GetUsers 先 MGET 命中的用户，只对缺失的 id 回源
func (d *Directory) GetUsers(ctx context.Context, ids []string) ([]directory.User, error) {
	if len(ids) == 0 {
		return []directory.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	cached := make(map[string]directory.User, len(ids))
	if vals, err := d.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var u directory.User
			if uErr := json.Unmarshal([]byte(str), &u); uErr == nil {
				cached[strings.ToLower(ids[i])] = u
			}
		}
	} else {
		logger.Warn("directory cache mget failed", zap.Error(err))
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[strings.ToLower(id)]; !ok {
			missing = append(missing, id)
		}
	}
	d.hits.Add(int64(len(ids) - len(missing)))
	d.misses.Add(int64(len(missing)))

	if len(missing) > 0 {
		loaded, err := d.next.GetUsers(ctx, missing)
		if err != nil {
			return nil, err
		}
		pipe := d.cache.Pipeline()
		for _, u := range loaded {
			cached[strings.ToLower(u.ID)] = u
			if payload, err := json.Marshal(u); err == nil {
				pipe.Set(ctx, userKey(u.ID), payload, d.ttl)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("directory cache pipeline failed", zap.Error(err))
		}
	}

	res := make([]directory.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := cached[strings.ToLower(id)]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (d *Directory) GetGroup(ctx context.Context, id string) (*directory.Group, error) {
	key := keyPrefix + "group:" + strings.ToLower(id)
	var g directory.Group
	if d.get(ctx, key, &g) {
		return &g, nil
	}
	res, err := d.next.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	d.set(ctx, key, res)
	return res, nil
}

func (d *Directory) Search(ctx context.Context, term string) ([]directory.Entity, error) {
	key := fmt.Sprintf("%ssearch:%s", keyPrefix, strings.ToLower(strings.TrimSpace(term)))
	var res []directory.Entity
	if d.get(ctx, key, &res) {
		return res, nil
	}
	res, err := d.next.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	// 空结果可能是下游故障，不缓存
	if len(res) > 0 {
		d.set(ctx, key, res)
	}
	return res, nil
}

func (d *Directory) get(ctx context.Context, key string, out any) bool {
	data, err := d.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("directory cache get failed", zap.String("key", key), zap.Error(err))
		}
		d.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		d.misses.Add(1)
		return false
	}
	d.hits.Add(1)
	return true
}

func (d *Directory) set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, payload, d.ttl).Err(); err != nil {
		logger.Warn("directory cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Stats 缓存命中统计
type Stats struct {
	Hits   int64
	Misses int64
}

func (d *Directory) Stats() Stats {
	return Stats{Hits: d.hits.Load(), Misses: d.misses.Load()}
}
