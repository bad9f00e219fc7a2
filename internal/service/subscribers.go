package service

import (
	"github.com/qs3c/comment_go_server/internal/pkg/events"
	"github.com/qs3c/comment_go_server/internal/pkg/pubsub"
)

const (
	SubscriberListCache    = "list-cache"
	SubscriberRedisPublish = "redis-publish"
)

// RegisterSubscribers 注册评论创建事件的默认订阅者
//
// 列表缓存失效必须在请求返回前完成，否则作者刷新页面看不到自己的评论；
// 向下游广播则在后台进行。
func RegisterSubscribers(bus *events.Bus, cache *ListCache, publisher *pubsub.Publisher) {
	if cache != nil {
		bus.SubscribeAwait(SubscriberListCache, cache.OnCommentCreated)
	}
	if publisher != nil {
		bus.SubscribeFire(SubscriberRedisPublish, publisher.PublishCommentCreated)
	}
}
