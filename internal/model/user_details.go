package model

// UserDetail 用户资料，Nickname / AvatarURL 会冗余到内容与评论中
type UserDetail struct {
	UserID    uint64  `gorm:"primaryKey"`
	Nickname  string  `gorm:"type:varchar(50);not null"`
	AvatarURL string  `gorm:"type:varchar(512);column:avatar_url;default:'default_avatar.png'"`
	BannerURL string  `gorm:"type:varchar(512);column:banner_url;default:''"`
	Bio       *string `gorm:"type:varchar(255);default:''"`
}

func (UserDetail) TableName() string {
	return "user_detail"
}
