package service

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/model/dto"
	"github.com/qs3c/comment_go_server/internal/repository"
)

var ErrUserNotFound = errors.New("用户不存在")

const (
	profileCacheSize = 1024
	profileCacheTTL  = 5 * time.Minute
)

type cachedProfile struct {
	profile   dto.CommentAuthor
	expiresAt time.Time
}

// UserService 用户资料查询
//
// 评论列表会反复解析同一批作者，公开资料在进程内做短时 LRU 缓存。
type UserService struct {
	userRepo *repository.UserRepository
	profiles *lru.Cache[int64, cachedProfile]
	now      func() time.Time
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	profiles, err := lru.New[int64, cachedProfile](profileCacheSize)
	if err != nil {
		// 只有 size <= 0 时才会出错
		panic(err)
	}
	return &UserService{
		userRepo: userRepo,
		profiles: profiles,
		now:      time.Now,
	}
}

// GetUser 根据 ID 获取用户
func (s *UserService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("load user", err)
	}
	return user, nil
}

// ResolveProfile 用户公开资料
func (s *UserService) ResolveProfile(user *model.User) *dto.CommentAuthor {
	return &dto.CommentAuthor{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}
}

// Profile 获取用户公开资料，带缓存
func (s *UserService) Profile(ctx context.Context, userID int64) (*dto.CommentAuthor, error) {
	if item, ok := s.profiles.Get(userID); ok {
		if s.now().Before(item.expiresAt) {
			profile := item.profile
			return &profile, nil
		}
		s.profiles.Remove(userID)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := s.ResolveProfile(user)
	s.profiles.Add(userID, cachedProfile{
		profile:   *profile,
		expiresAt: s.now().Add(profileCacheTTL),
	})
	return profile, nil
}
