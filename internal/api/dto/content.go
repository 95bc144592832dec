package dto

import "time"

// MediaDTO 媒体信息，URL 只接受配置的存储桶 (minio://bucket/key) 与公开媒体域名
type MediaDTO struct {
	URL      string `json:"url" validate:"required,max=1024,media_ref"`
	Type     string `json:"type" validate:"required,oneof=image video"`
	MimeType string `json:"mimeType" validate:"omitempty,max=100"`
}

// CreateContentDTO 发布内容
type CreateContentDTO struct {
	Description string     `json:"description" validate:"max=2000"`
	Media       []MediaDTO `json:"media" validate:"required,min=1,max=9,dive"`
}

// ContentDTO 内容详情
type ContentDTO struct {
	ID          string     `json:"id"`
	AuthorID    uint64     `json:"authorId"`
	AuthorName  string     `json:"authorName"`
	AuthorPhoto string     `json:"authorPhoto"`
	Description string     `json:"description"`
	Media       []MediaDTO `json:"media"`
	AutoTags    []string   `json:"autoTags"`
	LikeCount   int        `json:"likeCount"`
	Liked       bool       `json:"liked"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FeedPage 首页内容，HasMore 为 false 表示没有更多
type FeedPage struct {
	Items   []*ContentDTO `json:"items"`
	Page    int           `json:"page"`
	HasMore bool          `json:"hasMore"`
}

// LikeResultDTO 点赞切换结果
type LikeResultDTO struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}
