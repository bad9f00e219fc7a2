package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/model/dto"
	"github.com/qs3c/comment_go_server/internal/repository"
)

var (
	ErrAttachmentNotFound = errors.New("附件不存在或不可用")
	ErrTooManyAttachments = errors.New("附件数量超出限制")
	ErrInvalidObjectKey   = errors.New("文件路径不合法")
)

// ObjectStore 附件对象存储，oss.Client 和 oss.StaticURLs 都满足
type ObjectStore interface {
	ObjectURL(objectKey string) (string, error)
	Delete(objectKey string) error
}

// ClaimFailure 一次未成功的绑定
//
// Lost 为 true 表示并发竞争失败（已被他人绑定或恰好过期），否则 Err 为存储错误。
type ClaimFailure struct {
	AttachmentID string
	Lost         bool
	Err          error
}

type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	store          ObjectStore
	cfg            *config.Config
	logger         logrus.FieldLogger
	now            func() time.Time
}

func NewAttachmentService(
	attachmentRepo *repository.AttachmentRepository,
	store ObjectStore,
	cfg *config.Config,
	logger logrus.FieldLogger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		store:          store,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// ObjectKeyPrefix 用户上传文件所在目录
func ObjectKeyPrefix(ownerID int64) string {
	return fmt.Sprintf("attachments/%d/", ownerID)
}

// Reserve 登记一个已上传的文件，进入保留期
func (s *AttachmentService) Reserve(ctx context.Context, ownerID int64, req *dto.ReserveAttachmentRequest) (*dto.ReserveAttachmentResponse, error) {
	if !strings.HasPrefix(req.ObjectKey, ObjectKeyPrefix(ownerID)) || strings.Contains(req.ObjectKey, "..") {
		return nil, ErrInvalidObjectKey
	}

	expiresAt := s.now().Add(s.reserveTTL())
	attachment := &model.Attachment{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		State:     model.AttachmentReserved,
		ExpiresAt: &expiresAt,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		Size:      req.Size,
		ObjectKey: req.ObjectKey,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, persistenceError("reserve attachment", err)
	}

	return &dto.ReserveAttachmentResponse{
		ID:        attachment.ID,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

// Validate 校验请求者可以绑定这些附件，不做任何写入
//
// 不存在、不属于请求者、已绑定、已过期、同一请求内重复，都视为不存在。
// 游客不拥有任何附件。
func (s *AttachmentService) Validate(ctx context.Context, requesterID *int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if limit := s.cfg.Comment.MaxAttachments; limit > 0 && len(ids) > limit {
		return ErrTooManyAttachments
	}
	if requesterID == nil {
		return ErrAttachmentNotFound
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ErrAttachmentNotFound
		}
		seen[id] = struct{}{}
	}

	found, err := s.attachmentRepo.GetByIDs(ctx, ids)
	if err != nil {
		return persistenceError("load attachments", err)
	}

	now := s.now()
	for _, id := range ids {
		a, ok := found[id]
		if !ok || a.OwnerID != *requesterID || !a.Claimable(now) {
			return ErrAttachmentNotFound
		}
	}
	return nil
}

// Claim 逐个把附件标记为已绑定，返回失败项
func (s *AttachmentService) Claim(ctx context.Context, ids []string) []ClaimFailure {
	var failures []ClaimFailure
	for _, id := range ids {
		ok, err := s.attachmentRepo.Claim(ctx, id, s.now())
		switch {
		case err != nil:
			failures = append(failures, ClaimFailure{AttachmentID: id, Err: err})
		case !ok:
			failures = append(failures, ClaimFailure{AttachmentID: id, Lost: true, Err: ErrAttachmentNotFound})
		}
	}
	return failures
}

// Views 解析附件公开信息，无法解析的附件直接跳过
func (s *AttachmentService) Views(ctx context.Context, ids []string) ([]*dto.AttachmentView, error) {
	views := make([]*dto.AttachmentView, 0, len(ids))
	if len(ids) == 0 {
		return views, nil
	}

	found, err := s.attachmentRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError("load attachments", err)
	}

	for _, id := range ids {
		a, ok := found[id]
		if !ok {
			continue
		}
		url, err := s.store.ObjectURL(a.ObjectKey)
		if err != nil {
			s.logger.WithField("attachment_id", id).WithError(err).Warn("failed to build attachment url")
			continue
		}
		views = append(views, &dto.AttachmentView{
			ID:       a.ID,
			Filename: a.Filename,
			MimeType: a.MimeType,
			Size:     a.Size,
			URL:      url,
		})
	}
	return views, nil
}

// PurgeResult 一次过期清理的结果
type PurgeResult struct {
	Scanned int
	Deleted int
	Failed  int
}

// PurgeExpired 清理保留期已过仍未绑定的附件：先删对象，再删记录
//
// 对象删除失败的附件保留记录，等待下一轮重试。
func (s *AttachmentService) PurgeExpired(ctx context.Context, batch int, dryRun bool) (*PurgeResult, error) {
	if batch <= 0 {
		batch = 100
	}

	expired, err := s.attachmentRepo.ListExpired(ctx, s.now(), batch)
	if err != nil {
		return nil, persistenceError("list expired attachments", err)
	}

	result := &PurgeResult{Scanned: len(expired)}
	for _, a := range expired {
		log := s.logger.WithFields(logrus.Fields{
			"attachment_id": a.ID,
			"object_key":    a.ObjectKey,
		})
		if dryRun {
			log.Info("expired attachment would be purged")
			continue
		}

		if err := s.store.Delete(a.ObjectKey); err != nil {
			log.WithError(err).Warn("failed to delete expired object")
			result.Failed++
			continue
		}
		if err := s.attachmentRepo.DeleteReserved(ctx, a.ID, s.now()); err != nil {
			log.WithError(err).Warn("failed to delete expired attachment record")
			result.Failed++
			continue
		}
		result.Deleted++
	}
	return result, nil
}

func (s *AttachmentService) reserveTTL() time.Duration {
	minutes := s.cfg.Attachment.ReserveMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}
