package dto

// FollowStatusDTO 关注状态
type FollowStatusDTO struct {
	Following      bool  `json:"following"`
	FollowerCount  int64 `json:"followerCount"`
	FollowingCount int64 `json:"followingCount"`
}

// FollowToggleDTO 切换关注结果
type FollowToggleDTO struct {
	Following bool `json:"following"`
}

// FollowingListDTO 关注列表
type FollowingListDTO struct {
	UserIDs []uint64 `json:"userIds"`
}
