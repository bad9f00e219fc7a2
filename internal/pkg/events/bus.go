package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/qs3c/comment_go_server/internal/model"
)

// Handler 评论创建事件处理函数，收到的是落库后完整填充的原始评论
type Handler func(ctx context.Context, comment *model.Comment) error

type subscriber struct {
	name   string
	handle Handler
}

// Bus 评论创建事件分发
//
// 两类订阅者：await 类在请求路径上并发执行并等待完成，任一失败即返回错误；
// fire 类在后台执行，错误只记录日志，不影响调用方。
type Bus struct {
	mu      sync.RWMutex
	awaited []subscriber
	fired   []subscriber

	inflight sync.WaitGroup
	logger   logrus.FieldLogger
}

func NewBus(logger logrus.FieldLogger) *Bus {
	return &Bus{logger: logger}
}

// SubscribeAwait 注册需要等待完成的订阅者
func (b *Bus) SubscribeAwait(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.awaited = append(b.awaited, subscriber{name: name, handle: h})
}

// SubscribeFire 注册后台执行的订阅者
func (b *Bus) SubscribeFire(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fired = append(b.fired, subscriber{name: name, handle: h})
}

// Emit 分发一次评论创建事件
//
// 先等待全部 await 订阅者；它们失败时 fire 订阅者不会被触发。
func (b *Bus) Emit(ctx context.Context, comment *model.Comment) error {
	if err := b.EmitAwait(ctx, comment); err != nil {
		return err
	}
	b.EmitFire(ctx, comment)
	return nil
}

// EmitAwait 只触发 await 订阅者
func (b *Bus) EmitAwait(ctx context.Context, comment *model.Comment) error {
	b.mu.RLock()
	awaited := append([]subscriber(nil), b.awaited...)
	b.mu.RUnlock()

	// 一个订阅者失败不取消其他订阅者，全部执行完后返回第一个错误
	var g errgroup.Group
	for _, s := range awaited {
		s := s
		g.Go(func() error {
			if err := call(ctx, s, comment); err != nil {
				return fmt.Errorf("subscriber %s: %w", s.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// EmitFire 只触发 fire 订阅者
func (b *Bus) EmitFire(ctx context.Context, comment *model.Comment) {
	b.mu.RLock()
	fired := append([]subscriber(nil), b.fired...)
	b.mu.RUnlock()

	// 请求结束后 ctx 会被取消，后台订阅者不能跟着一起取消
	bg := context.WithoutCancel(ctx)
	for _, s := range fired {
		s := s
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			if err := call(bg, s, comment); err != nil {
				b.logger.WithFields(logrus.Fields{
					"subscriber": s.name,
					"comment_id": comment.ID,
				}).WithError(err).Error("comment event subscriber failed")
			}
		}()
	}
}

// Drain 等待所有后台订阅者执行完毕
func (b *Bus) Drain() {
	b.inflight.Wait()
}

func call(ctx context.Context, s subscriber, comment *model.Comment) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handle(ctx, comment)
}
