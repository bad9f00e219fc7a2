package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/comment_go_server/internal/model"
)

const (
	DefaultChannel = "comment_events"

	TypeCommentCreated = "comment_created"
)

// CommentMessage 评论事件消息
type CommentMessage struct {
	Type          string   `json:"type"`
	CommentID     int64    `json:"comment_id"`
	ChannelID     int64    `json:"channel_id"`
	UserID        *int64   `json:"user_id,omitempty"`
	GuestName     string   `json:"guest_name,omitempty"`
	ParentID      *int64   `json:"parent_id,omitempty"`
	AttachmentIDs []string `json:"attachment_ids,omitempty"`
	Content       string   `json:"content"`
	CreatedAt     string   `json:"created_at"`
}

// NewCommentMessage 由原始评论构造消息
func NewCommentMessage(comment *model.Comment) *CommentMessage {
	return &CommentMessage{
		Type:          TypeCommentCreated,
		CommentID:     comment.ID,
		ChannelID:     comment.ChannelID,
		UserID:        comment.UserID,
		GuestName:     comment.Guest.Name,
		ParentID:      comment.ParentID,
		AttachmentIDs: comment.AttachmentIDs,
		Content:       comment.Content,
		CreatedAt:     comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher 创建发布者，channel 为空时使用默认频道
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// PublishCommentCreated 发布评论创建消息，可直接注册为事件订阅者
func (p *Publisher) PublishCommentCreated(ctx context.Context, comment *model.Comment) error {
	data, err := json.Marshal(NewCommentMessage(comment))
	if err != nil {
		return fmt.Errorf("failed to marshal comment message: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{client: client, channel: channel}
}

// Subscribe 订阅评论消息，直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*CommentMessage)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", s.channel, err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var commentMsg CommentMessage
			if err := json.Unmarshal([]byte(msg.Payload), &commentMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&commentMsg)
		}
	}
}
