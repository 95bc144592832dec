package repository

import (
	"Lumen/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// UserDetailUpdate 资料修改，nil 表示不修改
type UserDetailUpdate struct {
	Nickname  *string
	AvatarURL *string
	BannerURL *string
	Bio       *string
}

type UserRepo interface {
	GetUserById(ctx context.Context, id uint64) (*model.User, error)
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error)
	UpdateUserDetail(ctx context.Context, id uint64, update *UserDetailUpdate) error
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

// GetUserById 用户不存在或已注销时返回 nil, nil
func (s *UserRepoImpl) GetUserById(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).
		Preload("UserDetail").
		Where("is_delete = ?", false).
		First(user, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return user, nil
}

func (s *UserRepoImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error) {
	details := make([]*model.UserDetail, 0, len(ids))
	if len(ids) == 0 {
		return details, nil
	}
	result := s.db.WithContext(ctx).
		Select("user_id", "nickname", "avatar_url").
		Where("user_id IN ?", ids).
		Find(&details)
	if result.Error != nil {
		return nil, result.Error
	}
	return details, nil
}

// UpdateUserDetail 只更新非 nil 字段
func (s *UserRepoImpl) UpdateUserDetail(ctx context.Context, id uint64, update *UserDetailUpdate) error {
	fields := map[string]interface{}{}
	if update.Nickname != nil {
		fields["nickname"] = *update.Nickname
	}
	if update.AvatarURL != nil {
		fields["avatar_url"] = *update.AvatarURL
	}
	if update.BannerURL != nil {
		fields["banner_url"] = *update.BannerURL
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if len(fields) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserDetail{}).
			Where("user_id = ?", id).
			Updates(fields).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("id = ?", id).
			Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
}
