package dto

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Channel       string      `json:"channel" binding:"required,url,max=700"`
	Content       string      `json:"content" binding:"required,min=1"`
	ParentID      *int64      `json:"parent_id,omitempty"`
	AttachmentIDs []string    `json:"attachments,omitempty" binding:"omitempty,dive,uuid"`
	Guest         *GuestInput `json:"guest,omitempty"`
}

// GuestInput 游客身份
type GuestInput struct {
	Name    string `json:"name" binding:"required,min=1,max=50"`
	Email   string `json:"email,omitempty" binding:"omitempty,email,max=100"`
	Website string `json:"website,omitempty" binding:"omitempty,url,max=255"`
}

// ListCommentsQuery 评论列表查询
type ListCommentsQuery struct {
	Channel string `form:"channel" binding:"required,url,max=700"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

// ReactRequest 点赞/点踩
type ReactRequest struct {
	Kind string `json:"kind" binding:"required,oneof=like dislike"`
}

// CommentView 评论展示结构
type CommentView struct {
	ID          int64             `json:"id"`
	Author      *CommentAuthor    `json:"author"`
	Content     string            `json:"content"`
	ParentID    *int64            `json:"parent_id"`
	ReplyIDs    []int64           `json:"reply_ids"`
	Attachments []*AttachmentView `json:"attachments"`
	Likes       int               `json:"likes"`
	Dislikes    int               `json:"dislikes"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// CommentAuthor 评论作者公开信息，游客时 ID 为 0
type CommentAuthor struct {
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Website   string `json:"website,omitempty"`
	Guest     bool   `json:"guest"`
}

// CommentPage 评论分页结果
type CommentPage struct {
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []*CommentView `json:"items"`
}
