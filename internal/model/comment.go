package model

import (
	"strings"
	"time"
)

// GuestAuthor 游客作者信息，直接内嵌在评论记录中
type GuestAuthor struct {
	Name    string `gorm:"column:guest_name;size:50" json:"name"`
	Email   string `gorm:"column:guest_email;size:100" json:"email,omitempty"`
	Website string `gorm:"column:guest_website;size:255" json:"website,omitempty"`
}

// IsZero 是否未设置游客信息，只有空白的昵称视为未设置
func (g GuestAuthor) IsZero() bool {
	return strings.TrimSpace(g.Name) == ""
}

// Comment 评论
//
// ParentID 只在插入时写入，之后不再修改。回复、附件、点赞等列表都存放在
// 独立的关联表中，通过追加插入维护，下方 gorm:"-" 字段由仓储层按需填充。
type Comment struct {
	ID        int64       `gorm:"primaryKey" json:"id"`
	ChannelID int64       `gorm:"not null;index" json:"channel_id"`
	UserID    *int64      `gorm:"index" json:"user_id,omitempty"`
	Guest     GuestAuthor `gorm:"embedded" json:"guest,omitempty"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	ParentID  *int64      `gorm:"index" json:"parent_id,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	ReplyIDs      []int64  `gorm:"-" json:"reply_ids"`
	AttachmentIDs []string `gorm:"-" json:"attachment_ids"`
	Likes         []int64  `gorm:"-" json:"likes"`
	Dislikes      []int64  `gorm:"-" json:"dislikes"`
}

func (Comment) TableName() string {
	return "comments"
}

// IsGuest 是否为游客评论
func (c *Comment) IsGuest() bool {
	return c.UserID == nil
}

// CommentReply 回复列表，按 ID 递增即追加顺序
type CommentReply struct {
	ID        int64     `gorm:"primaryKey"`
	ParentID  int64     `gorm:"not null;index"`
	ReplyID   int64     `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

func (CommentReply) TableName() string {
	return "comment_replies"
}

// CommentAttachment 评论引用的附件
type CommentAttachment struct {
	ID           int64  `gorm:"primaryKey"`
	CommentID    int64  `gorm:"not null;index"`
	AttachmentID string `gorm:"size:36;not null;index"`
}

func (CommentAttachment) TableName() string {
	return "comment_attachments"
}

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid 是否为合法的表态类型
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// CommentReaction 点赞/点踩，同一用户对同一评论只能有一种表态
type CommentReaction struct {
	CommentID int64        `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64        `gorm:"primaryKey;autoIncrement:false"`
	Kind      ReactionKind `gorm:"size:10;not null"`
	CreatedAt time.Time
}

func (CommentReaction) TableName() string {
	return "comment_reactions"
}
