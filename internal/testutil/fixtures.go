package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	email := fmt.Sprintf("test_%d@example.com", n)
	user := &model.User{
		Username:  fmt.Sprintf("testuser_%d", n),
		Email:     &email,
		AvatarURL: fmt.Sprintf("https://cdn.example.com/avatars/%d.png", n),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithDisabled 设置为禁用
func WithDisabled() func(*model.User) {
	return func(u *model.User) {
		u.Disabled = true
	}
}

// TestChannel 创建测试频道
func TestChannel(t *testing.T, db *gorm.DB, url string) *model.Channel {
	t.Helper()

	channel := &model.Channel{URL: url}
	if err := db.Create(channel).Error; err != nil {
		t.Fatalf("Failed to create test channel: %v", err)
	}

	return channel
}

// TestComment 创建测试评论并挂到频道列表上
func TestComment(t *testing.T, db *gorm.DB, userID, channelID int64, content string, opts ...func(*model.Comment)) *model.Comment {
	t.Helper()

	comment := &model.Comment{
		ChannelID: channelID,
		UserID:    &userID,
		Content:   content,
	}

	for _, opt := range opts {
		opt(comment)
	}

	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}

	link := &model.ChannelComment{ChannelID: channelID, CommentID: comment.ID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("Failed to link test comment: %v", err)
	}

	return comment
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Comment) {
	return func(c *model.Comment) {
		c.CreatedAt = at
		c.UpdatedAt = at
	}
}

// TestReply 创建测试回复
func TestReply(t *testing.T, db *gorm.DB, userID, channelID, parentID int64, content string) *model.Comment {
	t.Helper()

	reply := TestComment(t, db, userID, channelID, content, func(c *model.Comment) {
		c.ParentID = &parentID
	})

	link := &model.CommentReply{ParentID: parentID, ReplyID: reply.ID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("Failed to link test reply: %v", err)
	}

	return reply
}

// TestAttachment 创建一个处于保留期内的附件
func TestAttachment(t *testing.T, db *gorm.DB, ownerID int64, opts ...func(*model.Attachment)) *model.Attachment {
	t.Helper()

	id := uuid.NewString()
	expiresAt := time.Now().Add(time.Hour)
	attachment := &model.Attachment{
		ID:        id,
		OwnerID:   ownerID,
		State:     model.AttachmentReserved,
		ExpiresAt: &expiresAt,
		Filename:  "photo.png",
		MimeType:  "image/png",
		Size:      1024,
		ObjectKey: fmt.Sprintf("attachments/%d/%s.png", ownerID, id),
	}

	for _, opt := range opts {
		opt(attachment)
	}

	if err := db.Create(attachment).Error; err != nil {
		t.Fatalf("Failed to create test attachment: %v", err)
	}

	return attachment
}

// WithClaimed 设置为已绑定
func WithClaimed() func(*model.Attachment) {
	return func(a *model.Attachment) {
		a.State = model.AttachmentClaimed
		a.ExpiresAt = nil
	}
}

// WithExpiresAt 设置保留截止时间
func WithExpiresAt(at time.Time) func(*model.Attachment) {
	return func(a *model.Attachment) {
		a.ExpiresAt = &at
	}
}
