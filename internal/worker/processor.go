package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/pkg/queue"
)

// CommentLoader 读取完整填充的评论
type CommentLoader interface {
	GetPopulated(ctx context.Context, id int64) (*model.Comment, error)
}

// Emitter 评论创建事件分发
type Emitter interface {
	Emit(ctx context.Context, comment *model.Comment) error
}

// RetryQueue 补发任务队列
type RetryQueue interface {
	Push(ctx context.Context, msg *queue.RetryMessage) error
	Pop(ctx context.Context, timeout time.Duration) (*queue.RetryMessage, error)
}

// Processor 评论事件补发处理器
//
// 评论落库后重新读取失败时，请求方会把评论 ID 放进补发队列；
// 这里重新读取并分发事件，失败则带上递增的 Attempt 重新入队，超过上限后丢弃。
type Processor struct {
	comments    CommentLoader
	bus         Emitter
	queue       RetryQueue
	maxAttempts int
	logger      logrus.FieldLogger
}

// NewProcessor 创建补发处理器
func NewProcessor(comments CommentLoader, bus Emitter, q RetryQueue, maxAttempts int, logger logrus.FieldLogger) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Processor{
		comments:    comments,
		bus:         bus,
		queue:       q,
		maxAttempts: maxAttempts,
		logger:      logger.WithField("component", "event-retry"),
	}
}

// Process 处理一条补发任务
func (p *Processor) Process(ctx context.Context, msg *queue.RetryMessage) error {
	log := p.logger.WithFields(logrus.Fields{"comment_id": msg.CommentID, "attempt": msg.Attempt})

	comment, err := p.comments.GetPopulated(ctx, msg.CommentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("comment vanished, dropping event")
		return nil
	}
	if err != nil {
		return p.retry(ctx, log, msg, fmt.Errorf("reload comment: %w", err))
	}

	if err := p.bus.Emit(ctx, comment); err != nil {
		return p.retry(ctx, log, msg, fmt.Errorf("emit comment created: %w", err))
	}

	log.Info("comment event delivered")
	return nil
}

func (p *Processor) retry(ctx context.Context, log logrus.FieldLogger, msg *queue.RetryMessage, cause error) error {
	if msg.Attempt >= p.maxAttempts {
		log.WithError(cause).Error("comment event dropped after max attempts")
		return cause
	}

	next := &queue.RetryMessage{CommentID: msg.CommentID, Attempt: msg.Attempt + 1, Reason: cause.Error()}
	if err := p.queue.Push(ctx, next); err != nil {
		return fmt.Errorf("requeue comment %d: %w", msg.CommentID, err)
	}
	log.WithError(cause).Warn("comment event requeued")
	return cause
}

// Run 循环从队列取任务，直到 ctx 取消
func (p *Processor) Run(ctx context.Context, workerID int) {
	log := p.logger.WithField("worker", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		default:
		}

		msg, err := p.queue.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("failed to pop retry message")
			continue
		}
		if msg == nil {
			continue
		}

		// 错误已在 Process 内记录
		_ = p.Process(ctx, msg)
	}
}
