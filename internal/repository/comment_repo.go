package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/comment_go_server/internal/model"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create 创建评论及其附件引用
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment, attachmentIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if len(attachmentIDs) == 0 {
			return nil
		}

		links := make([]*model.CommentAttachment, len(attachmentIDs))
		for i, id := range attachmentIDs {
			links[i] = &model.CommentAttachment{CommentID: comment.ID, AttachmentID: id}
		}
		return tx.Create(&links).Error
	})
}

// GetByID 根据 ID 获取评论（不含关联列表）
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetPopulated 获取评论并填充回复、附件、表态列表
func (r *CommentRepository) GetPopulated(ctx context.Context, id int64) (*model.Comment, error) {
	comment, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Populate(ctx, []*model.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// Populate 批量填充评论的关联列表
func (r *CommentRepository) Populate(ctx context.Context, comments []*model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Comment, len(comments))
	ids := make([]int64, len(comments))
	for i, c := range comments {
		c.ReplyIDs = []int64{}
		c.AttachmentIDs = []string{}
		c.Likes = []int64{}
		c.Dislikes = []int64{}
		byID[c.ID] = c
		ids[i] = c.ID
	}

	db := r.db.WithContext(ctx)

	var replies []*model.CommentReply
	if err := db.Where("parent_id IN ?", ids).Order("id ASC").Find(&replies).Error; err != nil {
		return err
	}
	for _, link := range replies {
		c := byID[link.ParentID]
		c.ReplyIDs = append(c.ReplyIDs, link.ReplyID)
	}

	var attachments []*model.CommentAttachment
	if err := db.Where("comment_id IN ?", ids).Order("id ASC").Find(&attachments).Error; err != nil {
		return err
	}
	for _, link := range attachments {
		c := byID[link.CommentID]
		c.AttachmentIDs = append(c.AttachmentIDs, link.AttachmentID)
	}

	var reactions []*model.CommentReaction
	if err := db.Where("comment_id IN ?", ids).Order("created_at ASC").Find(&reactions).Error; err != nil {
		return err
	}
	for _, reaction := range reactions {
		c := byID[reaction.CommentID]
		switch reaction.Kind {
		case model.ReactionLike:
			c.Likes = append(c.Likes, reaction.UserID)
		case model.ReactionDislike:
			c.Dislikes = append(c.Dislikes, reaction.UserID)
		}
	}

	return nil
}

// AppendReply 把 replyID 追加到父评论的回复列表
//
// 单条 INSERT ... SELECT，父评论不存在时不写入任何行，返回 false。
func (r *CommentRepository) AppendReply(ctx context.Context, parentID, replyID int64) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"INSERT INTO comment_replies (parent_id, reply_id, created_at) SELECT id, ?, ? FROM comments WHERE id = ?",
		replyID, time.Now(), parentID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RemoveAttachment 移除评论对某个附件的引用
func (r *CommentRepository) RemoveAttachment(ctx context.Context, commentID int64, attachmentID string) error {
	return r.db.WithContext(ctx).
		Where("comment_id = ? AND attachment_id = ?", commentID, attachmentID).
		Delete(&model.CommentAttachment{}).Error
}

// ListByChannelID 获取频道评论列表，按创建时间倒序
func (r *CommentRepository) ListByChannelID(ctx context.Context, channelID int64, limit, offset int) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_comments ON channel_comments.comment_id = comments.id").
		Where("channel_comments.channel_id = ?", channelID).
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// SetReaction 设置用户对评论的表态，已存在时覆盖
func (r *CommentRepository) SetReaction(ctx context.Context, commentID, userID int64, kind model.ReactionKind) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind"}),
		}).
		Create(&model.CommentReaction{
			CommentID: commentID,
			UserID:    userID,
			Kind:      kind,
		}).Error
}

// DeleteReaction 取消表态
func (r *CommentRepository) DeleteReaction(ctx context.Context, commentID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&model.CommentReaction{}).Error
}
