package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/model/dto"
	"github.com/qs3c/comment_go_server/internal/pkg/events"
	"github.com/qs3c/comment_go_server/internal/pkg/queue"
	"github.com/qs3c/comment_go_server/internal/repository"
)

var (
	ErrCommentNotFound = errors.New("评论不存在")
	ErrEmptyContent    = errors.New("评论内容不能为空")
	ErrContentTooLong  = errors.New("评论内容过长")
	ErrAuthorRequired  = errors.New("请登录或填写昵称")
	ErrInvalidReaction = errors.New("不支持的表态类型")
	ErrPersistence     = errors.New("存储服务暂不可用，请稍后重试")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// Author 评论作者：登录用户或游客，二选一
type Author struct {
	UserID *int64
	Guest  *model.GuestAuthor
}

// RetryQueue 事件补发队列
type RetryQueue interface {
	Push(ctx context.Context, msg *queue.RetryMessage) error
}

// CommentDeps CommentService 依赖
type CommentDeps struct {
	CommentRepo *repository.CommentRepository
	ChannelRepo *repository.ChannelRepository
	Attachments *AttachmentService
	Views       *ViewResolver
	Bus         *events.Bus
	Retry       RetryQueue
	Cache       *ListCache
	Logger      logrus.FieldLogger
	Config      *config.Config
}

type CommentService struct {
	commentRepo *repository.CommentRepository
	channelRepo *repository.ChannelRepository
	attachments *AttachmentService
	views       *ViewResolver
	bus         *events.Bus
	retry       RetryQueue
	cache       *ListCache
	logger      logrus.FieldLogger
	cfg         *config.Config
}

func NewCommentService(deps CommentDeps) *CommentService {
	return &CommentService{
		commentRepo: deps.CommentRepo,
		channelRepo: deps.ChannelRepo,
		attachments: deps.Attachments,
		views:       deps.Views,
		bus:         deps.Bus,
		retry:       deps.Retry,
		cache:       deps.Cache,
		logger:      deps.Logger,
		cfg:         deps.Config,
	}
}

// Create 创建评论
//
// 各步骤之间没有事务：附件校验失败时不写任何数据；评论落库之后的失败
// 不回滚，只记录日志或交给补发队列。
func (s *CommentService) Create(ctx context.Context, author Author, req *dto.CreateCommentRequest) (*dto.CommentView, error) {
	if err := s.checkInput(author, req); err != nil {
		return nil, err
	}

	if err := s.attachments.Validate(ctx, author.UserID, req.AttachmentIDs); err != nil {
		return nil, err
	}

	channel, err := s.channelRepo.Upsert(ctx, req.Channel)
	if err != nil {
		return nil, persistenceError("upsert channel", err)
	}

	comment := &model.Comment{
		ChannelID: channel.ID,
		UserID:    author.UserID,
		Content:   req.Content,
		ParentID:  req.ParentID,
	}
	if author.UserID == nil {
		comment.Guest = *author.Guest
	}
	if err := s.commentRepo.Create(ctx, comment, req.AttachmentIDs); err != nil {
		return nil, persistenceError("insert comment", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"channel_id": channel.ID,
	})

	if req.ParentID != nil {
		linked, err := s.commentRepo.AppendReply(ctx, *req.ParentID, comment.ID)
		if err != nil {
			log.WithError(err).Error("failed to append reply")
			return nil, persistenceError("append reply", err)
		}
		if !linked {
			log.WithField("parent_id", *req.ParentID).Info("parent comment not found, reply left unlinked")
		}
	}

	if err := s.channelRepo.AppendComment(ctx, channel.ID, comment.ID); err != nil {
		log.WithError(err).Error("failed to append comment to channel")
		return nil, persistenceError("append channel comment", err)
	}

	s.claimAttachments(ctx, log, comment.ID, req.AttachmentIDs)

	populated, err := s.commentRepo.GetPopulated(ctx, comment.ID)
	if err != nil {
		s.enqueueRetry(ctx, log, comment.ID, err)
		return nil, persistenceError("reload comment", err)
	}

	if err := s.bus.Emit(ctx, populated); err != nil {
		return nil, fmt.Errorf("emit comment created: %w", err)
	}

	return s.views.Resolve(ctx, populated)
}

func (s *CommentService) checkInput(author Author, req *dto.CreateCommentRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return ErrEmptyContent
	}
	if limit := s.cfg.Comment.MaxContentLength; limit > 0 && utf8.RuneCountInString(req.Content) > limit {
		return ErrContentTooLong
	}
	if author.UserID == nil && (author.Guest == nil || author.Guest.IsZero()) {
		return ErrAuthorRequired
	}
	return nil
}

// claimAttachments 绑定附件，失败只记录，不影响评论创建
//
// 未绑定成功的附件（竞争失败或存储出错）都从本评论上解除引用：附件仍处于保留状态，
// 可能被其他评论绑定，必须保证一个附件最多被一条评论引用。
func (s *CommentService) claimAttachments(ctx context.Context, log logrus.FieldLogger, commentID int64, ids []string) {
	if len(ids) == 0 {
		return
	}
	for _, f := range s.attachments.Claim(ctx, ids) {
		entry := log.WithField("attachment_id", f.AttachmentID)
		if f.Lost {
			entry.Warn("soft inconsistency: attachment claim lost, unlinking from comment")
		} else {
			entry.WithError(f.Err).Warn("soft inconsistency: attachment claim failed, unlinking from comment")
		}
		if err := s.commentRepo.RemoveAttachment(ctx, commentID, f.AttachmentID); err != nil {
			entry.WithError(err).Error("failed to unlink attachment")
		}
	}
}

func (s *CommentService) enqueueRetry(ctx context.Context, log logrus.FieldLogger, commentID int64, cause error) {
	if s.retry == nil {
		log.WithError(cause).Error("comment reload failed, event not emitted")
		return
	}
	msg := &queue.RetryMessage{CommentID: commentID, Attempt: 1, Reason: cause.Error()}
	if err := s.retry.Push(context.WithoutCancel(ctx), msg); err != nil {
		log.WithError(err).Error("failed to enqueue comment event retry")
		return
	}
	log.WithError(cause).Warn("comment reload failed, event queued for retry")
}

// List 频道评论分页，按创建时间倒序
func (s *CommentService) List(ctx context.Context, channelURL string, limit, offset int) (*dto.CommentPage, error) {
	limit, offset = s.normalizePage(limit, offset)

	channel, err := s.channelRepo.Upsert(ctx, channelURL)
	if err != nil {
		return nil, persistenceError("upsert channel", err)
	}

	cached, cacheKey, ok := s.cache.Get(ctx, channel.ID, limit, offset)
	if ok {
		return cached, nil
	}

	total, err := s.channelRepo.CountComments(ctx, channel.ID)
	if err != nil {
		return nil, persistenceError("count comments", err)
	}

	comments, err := s.commentRepo.ListByChannelID(ctx, channel.ID, limit, offset)
	if err != nil {
		return nil, persistenceError("list comments", err)
	}
	if err := s.commentRepo.Populate(ctx, comments); err != nil {
		return nil, persistenceError("populate comments", err)
	}

	items, err := s.views.ResolveMany(ctx, comments)
	if err != nil {
		return nil, err
	}

	page := &dto.CommentPage{
		Total:  total,
		Limit:  limit,
		Offset: offset,
		Items:  items,
	}
	if err := s.cache.Set(ctx, cacheKey, page); err != nil {
		s.logger.WithField("channel_id", channel.ID).WithError(err).Warn("failed to cache comment page")
	}
	return page, nil
}

func (s *CommentService) normalizePage(limit, offset int) (int, int) {
	defaultLimit, maxLimit := s.cfg.Comment.DefaultLimit, s.cfg.Comment.MaxLimit
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Get 获取单条评论
func (s *CommentService) Get(ctx context.Context, commentID int64) (*dto.CommentView, error) {
	comment, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.views.Resolve(ctx, comment)
}

// React 点赞或点踩，重复提交同一表态无变化，切换表态会从另一侧移除
func (s *CommentService) React(ctx context.Context, userID, commentID int64, kind model.ReactionKind) (*dto.CommentView, error) {
	if !kind.Valid() {
		return nil, ErrInvalidReaction
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, "load comment")
	}
	if err := s.commentRepo.SetReaction(ctx, commentID, userID, kind); err != nil {
		return nil, persistenceError("set reaction", err)
	}
	s.bumpCache(ctx, comment.ChannelID)
	return s.Get(ctx, commentID)
}

// Unreact 取消表态
func (s *CommentService) Unreact(ctx context.Context, userID, commentID int64) (*dto.CommentView, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, "load comment")
	}
	if err := s.commentRepo.DeleteReaction(ctx, commentID, userID); err != nil {
		return nil, persistenceError("delete reaction", err)
	}
	s.bumpCache(ctx, comment.ChannelID)
	return s.Get(ctx, commentID)
}

func (s *CommentService) load(ctx context.Context, commentID int64) (*model.Comment, error) {
	comment, err := s.commentRepo.GetPopulated(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, "load comment")
	}
	return comment, nil
}

func (s *CommentService) bumpCache(ctx context.Context, channelID int64) {
	if err := s.cache.Bump(ctx, channelID); err != nil {
		s.logger.WithField("channel_id", channelID).WithError(err).Warn("failed to invalidate comment list cache")
	}
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	return persistenceError(op, err)
}
