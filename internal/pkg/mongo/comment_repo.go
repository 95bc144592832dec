package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const commentCollection = "comments"

type CommentRepo interface {
	Create(ctx context.Context, comment *CommentModel) (string, error)
	ListByContent(ctx context.Context, contentID string, limit, offset int64) ([]*CommentModel, error)
	DeleteByContent(ctx context.Context, contentID string) (int64, error)
	UpdateAuthorProfile(ctx context.Context, userID uint64, name, photo *string) (int64, error)
}

type commentRepoImpl struct {
	col *mongo.Collection
}

func NewCommentRepo(db *mongo.Database) CommentRepo {
	return &commentRepoImpl{
		col: db.Collection(commentCollection),
	}
}

func (s *commentRepoImpl) Create(ctx context.Context, comment *CommentModel) (string, error) {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, comment); err != nil {
		return "", err
	}
	return comment.ID.Hex(), nil
}

// ListByContent 分页获取评论 (按时间倒序)
func (s *commentRepoImpl) ListByContent(ctx context.Context, contentID string, limit, offset int64) ([]*CommentModel, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, bson.M{"content_id": contentID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*CommentModel, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *commentRepoImpl) DeleteByContent(ctx context.Context, contentID string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"content_id": contentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UpdateAuthorProfile 只更新传入的字段
func (s *commentRepoImpl) UpdateAuthorProfile(ctx context.Context, userID uint64, name, photo *string) (int64, error) {
	set := bson.M{}
	if name != nil {
		set["user_name"] = *name
	}
	if photo != nil {
		set["user_photo"] = *photo
	}
	if len(set) == 0 {
		return 0, nil
	}
	res, err := s.col.UpdateMany(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
