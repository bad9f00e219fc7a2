package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/api"
	"github.com/qs3c/comment_go_server/internal/api/handler"
	"github.com/qs3c/comment_go_server/internal/database"
	"github.com/qs3c/comment_go_server/internal/pkg/cron"
	"github.com/qs3c/comment_go_server/internal/pkg/events"
	"github.com/qs3c/comment_go_server/internal/pkg/logger"
	"github.com/qs3c/comment_go_server/internal/pkg/oss"
	"github.com/qs3c/comment_go_server/internal/pkg/pubsub"
	"github.com/qs3c/comment_go_server/internal/pkg/queue"
	"github.com/qs3c/comment_go_server/internal/repository"
	"github.com/qs3c/comment_go_server/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	log.Info("database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	log.Info("redis connected")

	// 初始化对象存储
	store, err := oss.Open(&cfg.OSS)
	if err != nil {
		log.WithError(err).Fatal("failed to init object store")
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// 初始化事件分发
	bus := events.NewBus(log)
	listCache := service.NewListCache(rdb, time.Duration(cfg.Comment.ListCacheSeconds)*time.Second)
	publisher := pubsub.NewPublisher(rdb, cfg.Events.PubSubChannel)
	service.RegisterSubscribers(bus, listCache, publisher)
	retryQueue := queue.NewQueue(rdb, cfg.Events.RetryQueue)

	// 初始化 Service
	userService := service.NewUserService(userRepo)
	attachmentService := service.NewAttachmentService(attachmentRepo, store, cfg, log)
	commentService := service.NewCommentService(service.CommentDeps{
		CommentRepo: commentRepo,
		ChannelRepo: channelRepo,
		Attachments: attachmentService,
		Views:       service.NewViewResolver(userService, attachmentService),
		Bus:         bus,
		Retry:       retryQueue,
		Cache:       listCache,
		Logger:      log,
		Config:      cfg,
	})

	// 初始化 Router
	router := api.NewRouter(
		handler.NewCommentHandler(commentService),
		handler.NewAttachmentHandler(attachmentService),
		handler.NewUserHandler(userService),
		log,
		cfg,
	)

	// 过期附件清理
	cronService := cron.NewService(attachmentService, cfg.Attachment.CleanupInterval, cfg.Attachment.CleanupBatch, log)
	cronService.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router.Setup()}

	go func() {
		log.WithField("addr", addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	cronService.Stop()
	bus.Drain()
	log.Info("server shutdown complete")
}
