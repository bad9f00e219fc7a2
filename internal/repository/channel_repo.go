package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/comment_go_server/internal/model"
)

type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// GetByURL 根据 URL 获取频道
func (r *ChannelRepository) GetByURL(ctx context.Context, url string) (*model.Channel, error) {
	var channel model.Channel
	err := r.db.WithContext(ctx).Where("url = ?", url).First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// Upsert 获取或创建频道
//
// 并发创建同一 URL 时依赖唯一索引：冲突的插入被忽略，随后统一按 URL 读回，
// 所有调用方拿到的是同一条记录。
func (r *ChannelRepository) Upsert(ctx context.Context, url string) (*model.Channel, error) {
	channel, err := r.GetByURL(ctx, url)
	if err == nil {
		return channel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoNothing: true,
		}).
		Create(&model.Channel{URL: url}).Error
	if err != nil {
		return nil, err
	}

	return r.GetByURL(ctx, url)
}

// AppendComment 把评论追加到频道的评论列表
func (r *ChannelRepository) AppendComment(ctx context.Context, channelID, commentID int64) error {
	return r.db.WithContext(ctx).Create(&model.ChannelComment{
		ChannelID: channelID,
		CommentID: commentID,
	}).Error
}

// CountComments 频道评论列表长度
func (r *ChannelRepository) CountComments(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChannelComment{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error
	return count, err
}

// CommentIDs 按追加顺序返回频道的评论 ID
func (r *ChannelRepository) CommentIDs(ctx context.Context, channelID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.ChannelComment{}).
		Where("channel_id = ?", channelID).
		Order("id ASC").
		Pluck("comment_id", &ids).Error
	return ids, err
}

// Count 频道总数
func (r *ChannelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Channel{}).Count(&count).Error
	return count, err
}
