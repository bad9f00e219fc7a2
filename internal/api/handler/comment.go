package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/comment_go_server/internal/api/middleware"
	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/model/dto"
	"github.com/qs3c/comment_go_server/internal/pkg/response"
	"github.com/qs3c/comment_go_server/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List 获取频道评论列表
// GET /api/v1/comments?channel=<url>&limit=&offset=
func (h *CommentHandler) List(c *gin.Context) {
	var query dto.ListCommentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	page, err := h.commentService.List(c.Request.Context(), query.Channel, query.Limit, query.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, page)
}

// Create 发表评论，登录用户或填写昵称的游客
// POST /api/v1/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	author := service.Author{UserID: middleware.OptionalUserID(c)}
	if author.UserID == nil && req.Guest != nil {
		author.Guest = &model.GuestAuthor{
			Name:    req.Guest.Name,
			Email:   req.Guest.Email,
			Website: req.Guest.Website,
		}
	}

	view, err := h.commentService.Create(c.Request.Context(), author, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, view)
}

// Get 获取单条评论
// GET /api/v1/comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
	commentID, ok := commentIDParam(c)
	if !ok {
		return
	}

	view, err := h.commentService.Get(c.Request.Context(), commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, view)
}

// React 点赞/点踩
// POST /api/v1/comments/:id/reactions
func (h *CommentHandler) React(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	commentID, ok := commentIDParam(c)
	if !ok {
		return
	}

	var req dto.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	view, err := h.commentService.React(c.Request.Context(), userID, commentID, model.ReactionKind(req.Kind))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, view)
}

// Unreact 取消表态
// DELETE /api/v1/comments/:id/reactions
func (h *CommentHandler) Unreact(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	commentID, ok := commentIDParam(c)
	if !ok {
		return
	}

	view, err := h.commentService.Unreact(c.Request.Context(), userID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, view)
}

func commentIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的评论ID")
		return 0, false
	}
	return id, true
}
