package model

import (
	"time"
)

type AttachmentState string

const (
	// AttachmentReserved 已上传、仍在保留期内，可被所有者绑定
	AttachmentReserved AttachmentState = "reserved"
	// AttachmentClaimed 已永久绑定到某条评论
	AttachmentClaimed AttachmentState = "claimed"
)

// Attachment 附件记录
//
// 状态只允许 reserved -> claimed 一次转换，转换时清空 ExpiresAt。
type Attachment struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   int64           `gorm:"not null;index" json:"owner_id"`
	State     AttachmentState `gorm:"size:16;not null;index" json:"state"`
	ExpiresAt *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	Filename  string          `gorm:"size:255" json:"filename"`
	MimeType  string          `gorm:"size:100" json:"mime_type"`
	Size      int64           `json:"size"`
	ObjectKey string          `gorm:"size:500;not null" json:"object_key"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// IsClaimed 是否已被绑定
func (a *Attachment) IsClaimed() bool {
	return a.State == AttachmentClaimed
}

// Claimable 在 now 时刻是否仍可被绑定
func (a *Attachment) Claimable(now time.Time) bool {
	if a.State != AttachmentReserved || a.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.After(now)
}
