package service

import (
	"Lumen/internal/api/config"
	"Lumen/internal/api/dto"
	"Lumen/internal/model"
	"Lumen/internal/pkg/consts"
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/redis"
	"Lumen/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const userInfoCacheTTL = time.Hour

type UserService interface {
	GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserDTO, error)
	UpdateProfile(ctx context.Context, id uint64, req *dto.UpdateProfileDTO) (*dto.UserDTO, error)
}

type UserServiceImpl struct {
	userRepo  repository.UserRepo
	cache     redis.Cache
	publisher mq.Publisher
	queues    config.QueueNames
}

func NewUserService(userRepo repository.UserRepo, cache redis.Cache, publisher mq.Publisher, queues config.QueueNames) UserService {
	return &UserServiceImpl{
		userRepo:  userRepo,
		cache:     cache,
		publisher: publisher,
		queues:    queues,
	}
}

// GetUserSimpleInfo 先读缓存，缓存缺失时回源并写回
func (s *UserServiceImpl) GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	key := consts.UserSimpleInfoKey + strconv.FormatUint(id, 10)
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "user info cache read failed", "user_id", id, "err", err)
	}
	if value != "" {
		userDTO := &dto.UserDTO{}
		if err = json.Unmarshal([]byte(value), userDTO); err == nil {
			return userDTO, nil
		}
	}

	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	userDTO := toUserDTO(user)
	if jsonStr, err := json.Marshal(userDTO); err == nil {
		if err = s.cache.Set(ctx, key, string(jsonStr), userInfoCacheTTL); err != nil {
			log.WarnContext(ctx, "user info cache write failed", "user_id", id, "err", err)
		}
	}
	return userDTO, nil
}

// UpdateProfile 写关系库后发布 profile-sync 事件，只携带请求中出现的昵称与头像
// 事件未被 broker 确认时返回 ErrEventPublish，客户端重试同一请求即可补发
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id uint64, req *dto.UpdateProfileDTO) (*dto.UserDTO, error) {
	if req == nil || req.Empty() {
		return nil, ErrProfileNoChange
	}

	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	err = s.userRepo.UpdateUserDetail(ctx, id, &repository.UserDetailUpdate{
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		BannerURL: req.BannerURL,
		Bio:       req.Bio,
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, consts.UserSimpleInfoKey+strconv.FormatUint(id, 10))

	applyProfile(&user.UserDetail, req)

	change := events.ProfileChange{UserID: id, Name: req.Nickname, Photo: req.AvatarURL}
	if !change.Empty() {
		body, err := events.EncodeProfileChange(change)
		if err != nil {
			return nil, err
		}
		if err = s.publisher.Publish(ctx, s.queues.ProfileSync, body); err != nil {
			log.ErrorContext(ctx, "publish profile change failed", "user_id", id, "err", err)
			return nil, ErrEventPublish
		}
	}

	return toUserDTO(user), nil
}

func applyProfile(detail *model.UserDetail, req *dto.UpdateProfileDTO) {
	if req.Nickname != nil {
		detail.Nickname = *req.Nickname
	}
	if req.AvatarURL != nil {
		detail.AvatarURL = *req.AvatarURL
	}
	if req.BannerURL != nil {
		detail.BannerURL = *req.BannerURL
	}
	if req.Bio != nil {
		detail.Bio = req.Bio
	}
}

func toUserDTO(user *model.User) *dto.UserDTO {
	userDTO := &dto.UserDTO{}
	_ = copier.Copy(userDTO, &user.UserDetail)
	userDTO.UserID = user.ID
	if userDTO.AvatarURL == "" {
		userDTO.AvatarURL = consts.DefaultAvatarURL
	}
	return userDTO
}
