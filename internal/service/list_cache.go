package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/model/dto"
)

// ListCache 评论分页结果缓存
//
// 每个频道一个版本号，缓存 key 带版本号；新评论、表态变化时递增版本号，
// 旧 key 不再被读到，等 TTL 到期自然淘汰。nil 接收者上的所有方法都是空操作。
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &ListCache{client: client, ttl: ttl}
}

func versionKey(channelID int64) string {
	return fmt.Sprintf("comment:list:ver:%d", channelID)
}

func (c *ListCache) pageKey(ctx context.Context, channelID int64, limit, offset int) (string, error) {
	ver, err := c.client.Get(ctx, versionKey(channelID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("comment:list:%d:v%d:%d:%d", channelID, ver, limit, offset), nil
}

// Get 读取缓存的分页，未命中或出错时 ok 为 false
//
// 返回的 key 绑定了读取时的版本号，查库后用它回写：期间有新评论时版本号已递增，
// 回写的旧版本分页不会再被读到。key 为空表示不要回写。
func (c *ListCache) Get(ctx context.Context, channelID int64, limit, offset int) (page *dto.CommentPage, key string, ok bool) {
	if c == nil {
		return nil, "", false
	}
	key, err := c.pageKey(ctx, channelID, limit, offset)
	if err != nil {
		return nil, "", false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, key, false
	}

	page = &dto.CommentPage{}
	if err := json.Unmarshal(data, page); err != nil {
		return nil, key, false
	}
	return page, key, true
}

// Set 按 Get 返回的 key 写入分页缓存
func (c *ListCache) Set(ctx context.Context, key string, page *dto.CommentPage) error {
	if c == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal comment page: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Bump 使频道的分页缓存失效
func (c *ListCache) Bump(ctx context.Context, channelID int64) error {
	if c == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(channelID)).Err()
}

// OnCommentCreated 事件订阅者，新评论落库后使所在频道缓存失效
func (c *ListCache) OnCommentCreated(ctx context.Context, comment *model.Comment) error {
	return c.Bump(ctx, comment.ChannelID)
}
