package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/comment_go_server/internal/pkg/response"
	"github.com/qs3c/comment_go_server/internal/service"
)

// respondError 把服务层错误映射为响应码，未识别的错误记入 c.Errors 交给请求日志
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttachmentNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrAuthorRequired),
		errors.Is(err, service.ErrInvalidReaction),
		errors.Is(err, service.ErrTooManyAttachments),
		errors.Is(err, service.ErrInvalidObjectKey):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrPersistence):
		_ = c.Error(err)
		response.ServerError(c, service.ErrPersistence.Error())
	default:
		_ = c.Error(err)
		response.ServerError(c, "")
	}
}
