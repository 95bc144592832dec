package dto

import "time"

// CreateCommentDTO 发表评论
type CreateCommentDTO struct {
	Text     string  `json:"text" validate:"required,min=1,max=1000"`
	ParentID *string `json:"parentId" validate:"omitempty,len=24,hexadecimal"`
}

// CommentDTO 评论详情
type CommentDTO struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	UserID    uint64    `json:"userId"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto"`
	Text      string    `json:"text"`
	ParentID  *string   `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
