package model

import (
	"time"
)

// Channel 评论频道，以外部资源 URL 为唯一键
type Channel struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"size:700;uniqueIndex;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// ChannelComment 频道的评论列表，按 ID 递增即创建顺序
type ChannelComment struct {
	ID        int64 `gorm:"primaryKey"`
	ChannelID int64 `gorm:"not null;index"`
	CommentID int64 `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

func (ChannelComment) TableName() string {
	return "channel_comments"
}
