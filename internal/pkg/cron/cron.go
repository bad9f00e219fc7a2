package cron

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/comment_go_server/internal/service"
)

// Purger 过期附件清理
type Purger interface {
	PurgeExpired(ctx context.Context, batch int, dryRun bool) (*service.PurgeResult, error)
}

type Service struct {
	purger   Purger
	interval time.Duration
	batch    int
	logger   logrus.FieldLogger

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewService 创建定时任务服务，intervalMinutes <= 0 时按 10 分钟执行
func NewService(purger Purger, intervalMinutes, batch int, logger logrus.FieldLogger) *Service {
	interval := time.Duration(intervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Service{
		purger:   purger,
		interval: interval,
		batch:    batch,
		logger:   logger.WithField("component", "cron"),
		stopChan: make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	s.wg.Add(1)
	go s.runPurge()
	s.logger.WithField("interval", s.interval.String()).Info("cron service started")
}

// Stop 停止定时任务并等待当前一轮清理结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.logger.Info("cron service stopped")
}

func (s *Service) runPurge() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				s.logger.WithError(err).Error("purge expired attachments failed")
			}
		}
	}
}

// RunNow 立即执行一轮过期附件清理
func (s *Service) RunNow(ctx context.Context) (*service.PurgeResult, error) {
	result, err := s.purger.PurgeExpired(ctx, s.batch, false)
	if err != nil {
		return nil, err
	}
	if result.Scanned > 0 {
		s.logger.WithFields(logrus.Fields{
			"scanned": result.Scanned,
			"deleted": result.Deleted,
			"failed":  result.Failed,
		}).Info("expired attachments purged")
	}
	return result, nil
}
