package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/api/handler"
	"github.com/qs3c/comment_go_server/internal/api/middleware"
)

type Router struct {
	commentHandler    *handler.CommentHandler
	attachmentHandler *handler.AttachmentHandler
	userHandler       *handler.UserHandler
	logger            logrus.FieldLogger
	cfg               *config.Config
}

func NewRouter(
	commentHandler *handler.CommentHandler,
	attachmentHandler *handler.AttachmentHandler,
	userHandler *handler.UserHandler,
	logger logrus.FieldLogger,
	cfg *config.Config,
) *Router {
	return &Router{
		commentHandler:    commentHandler,
		attachmentHandler: attachmentHandler,
		userHandler:       userHandler,
		logger:            logger,
		cfg:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})

	api := engine.Group("/api/v1")
	{
		// 评论 - 游客可读可写，登录后带上用户身份
		comments := api.Group("/comments")
		comments.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			comments.GET("", r.commentHandler.List)
			comments.POST("", r.commentHandler.Create)
			comments.GET("/:id", r.commentHandler.Get)
		}

		// 表态 - 需要认证
		reactions := api.Group("/comments/:id/reactions")
		reactions.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			reactions.POST("", r.commentHandler.React)
			reactions.DELETE("", r.commentHandler.Unreact)
		}

		// 附件 - 需要认证
		attachments := api.Group("/attachments")
		attachments.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			attachments.POST("", r.attachmentHandler.Reserve)
		}

		api.GET("/users/:id", r.userHandler.GetProfile)
	}

	return engine
}
