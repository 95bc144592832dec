package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// ContentModel 内容文档，author_name / author_photo 为冗余字段，由资料同步消费者最终一致地更新
type ContentModel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AuthorID    uint64             `bson:"author_id"`
	AuthorName  string             `bson:"author_name"`
	AuthorPhoto string             `bson:"author_photo"`
	Media       []Media            `bson:"media"`
	Description string             `bson:"description"`
	Likes       []uint64           `bson:"likes"`
	AutoTags    []string           `bson:"auto_tags"`
	CreatedAt   time.Time          `bson:"created_at"`
}

type Media struct {
	URL      string `bson:"url"`
	Type     string `bson:"type"`
	MimeType string `bson:"mime_type,omitempty"`
}

// LikedBy 判断用户是否点赞
func (c *ContentModel) LikedBy(userID uint64) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CommentModel 评论文档，user_name / user_photo 为冗余字段
type CommentModel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ContentID string             `bson:"content_id"`
	UserID    uint64             `bson:"user_id"`
	UserName  string             `bson:"user_name"`
	UserPhoto string             `bson:"user_photo"`
	Text      string             `bson:"text"`
	ParentID  *string            `bson:"parent_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}
