package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/internal/model"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create 登记附件
func (r *AttachmentRepository) Create(ctx context.Context, attachment *model.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// GetByID 根据 ID 获取附件
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*model.Attachment, error) {
	var attachment model.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// GetByIDs 批量获取附件，不存在的 ID 不会出现在结果中
func (r *AttachmentRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Attachment, error) {
	result := make(map[string]*model.Attachment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var attachments []*model.Attachment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&attachments).Error; err != nil {
		return nil, err
	}
	for _, a := range attachments {
		result[a.ID] = a
	}
	return result, nil
}

// Claim 条件更新：仅当附件仍处于保留期内时标记为已绑定
//
// 返回 false 表示附件已被绑定或已过期。
func (r *AttachmentRepository) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Attachment{}).
		Where("id = ? AND state = ? AND expires_at > ?", id, model.AttachmentReserved, now).
		Updates(map[string]interface{}{
			"state":      model.AttachmentClaimed,
			"expires_at": nil,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListExpired 列出保留期已过仍未绑定的附件
func (r *AttachmentRepository) ListExpired(ctx context.Context, before time.Time, limit int) ([]*model.Attachment, error) {
	var attachments []*model.Attachment
	err := r.db.WithContext(ctx).
		Where("state = ? AND expires_at <= ?", model.AttachmentReserved, before).
		Order("expires_at ASC").
		Limit(limit).
		Find(&attachments).Error
	return attachments, err
}

// DeleteReserved 删除单个已过期的保留附件，附件不再满足条件时返回 gorm.ErrRecordNotFound
func (r *AttachmentRepository) DeleteReserved(ctx context.Context, id string, before time.Time) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND state = ? AND expires_at <= ?", id, model.AttachmentReserved, before).
		Delete(&model.Attachment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
