package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/database"
	"github.com/qs3c/comment_go_server/internal/pkg/events"
	"github.com/qs3c/comment_go_server/internal/pkg/logger"
	"github.com/qs3c/comment_go_server/internal/pkg/pubsub"
	"github.com/qs3c/comment_go_server/internal/pkg/queue"
	"github.com/qs3c/comment_go_server/internal/repository"
	"github.com/qs3c/comment_go_server/internal/service"
	"github.com/qs3c/comment_go_server/internal/worker"
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

	// 补发与请求路径使用同一组订阅者
	bus := events.NewBus(log)
	listCache := service.NewListCache(rdb, time.Duration(cfg.Comment.ListCacheSeconds)*time.Second)
	service.RegisterSubscribers(bus, listCache, pubsub.NewPublisher(rdb, cfg.Events.PubSubChannel))

	processor := worker.NewProcessor(
		repository.NewCommentRepository(db),
		bus,
		queue.NewQueue(rdb, cfg.Events.RetryQueue),
		cfg.Events.MaxAttempts,
		log,
	)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	workers := cfg.Events.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	log.WithField("workers", workers).Info("worker started")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			processor.Run(ctx, workerID)
		}(i)
	}

	wg.Wait()
	bus.Drain()
	log.Info("worker shutdown complete")
}
