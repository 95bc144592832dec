package dto

// UserDTO 用户简要信息
type UserDTO struct {
	UserID    uint64  `json:"userId"`
	Nickname  string  `json:"nickname"`
	AvatarURL string  `json:"avatarUrl"`
	BannerURL string  `json:"bannerUrl,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// UpdateProfileDTO 修改资料，字段缺失表示不修改
type UpdateProfileDTO struct {
	Nickname  *string `json:"nickname" validate:"omitempty,min=1,max=15"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=512"`
	BannerURL *string `json:"bannerUrl" validate:"omitempty,max=512"`
	Bio       *string `json:"bio" validate:"omitempty,max=200"`
}

// Empty 没有任何字段需要修改
func (d *UpdateProfileDTO) Empty() bool {
	return d.Nickname == nil && d.AvatarURL == nil && d.BannerURL == nil && d.Bio == nil
}
