package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/model/dto"
)

// DeletedUsername 作者账号已不存在时展示的名字
const DeletedUsername = "已注销用户"

// ViewResolver 把存储中的评论转换为对外展示结构，无副作用
type ViewResolver struct {
	users       *UserService
	attachments *AttachmentService
	policy      *bluemonday.Policy
}

func NewViewResolver(users *UserService, attachments *AttachmentService) *ViewResolver {
	return &ViewResolver{
		users:       users,
		attachments: attachments,
		policy:      bluemonday.StrictPolicy(),
	}
}

// FormatContent 转义 HTML 后把换行替换为 <br/>
func (r *ViewResolver) FormatContent(content string) string {
	return strings.ReplaceAll(r.policy.Sanitize(content), "\n", "<br/>")
}

// Resolve 解析单条评论
func (r *ViewResolver) Resolve(ctx context.Context, comment *model.Comment) (*dto.CommentView, error) {
	author, err := r.author(ctx, comment)
	if err != nil {
		return nil, err
	}

	attachments, err := r.attachments.Views(ctx, comment.AttachmentIDs)
	if err != nil {
		return nil, err
	}

	replyIDs := comment.ReplyIDs
	if replyIDs == nil {
		replyIDs = []int64{}
	}

	return &dto.CommentView{
		ID:          comment.ID,
		Author:      author,
		Content:     r.FormatContent(comment.Content),
		ParentID:    comment.ParentID,
		ReplyIDs:    replyIDs,
		Attachments: attachments,
		Likes:       len(comment.Likes),
		Dislikes:    len(comment.Dislikes),
		CreatedAt:   comment.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   comment.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// ResolveMany 按顺序解析一批评论
func (r *ViewResolver) ResolveMany(ctx context.Context, comments []*model.Comment) ([]*dto.CommentView, error) {
	views := make([]*dto.CommentView, 0, len(comments))
	for _, c := range comments {
		view, err := r.Resolve(ctx, c)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (r *ViewResolver) author(ctx context.Context, comment *model.Comment) (*dto.CommentAuthor, error) {
	if comment.IsGuest() {
		return &dto.CommentAuthor{
			Username: comment.Guest.Name,
			Website:  comment.Guest.Website,
			Guest:    true,
		}, nil
	}

	profile, err := r.users.Profile(ctx, *comment.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &dto.CommentAuthor{ID: *comment.UserID, Username: DeletedUsername}, nil
		}
		return nil, err
	}
	return profile, nil
}
