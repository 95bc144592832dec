package mongo

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contentCollection = "contents"

// SampleFilter 补量候选过滤条件
type SampleFilter struct {
	ExcludeIDs     []string
	ExcludeAuthors []uint64
	// NotLikedBy 排除该用户已点赞的内容，0 表示不过滤
	NotLikedBy uint64
}

type ContentRepo interface {
	Create(ctx context.Context, content *ContentModel) (string, error)
	GetByID(ctx context.Context, id string) (*ContentModel, error)
	GetByIDs(ctx context.Context, ids []string) ([]*ContentModel, error)
	ListByAuthor(ctx context.Context, authorID uint64, limit, offset int64) ([]*ContentModel, error)
	ListByAuthors(ctx context.Context, authorIDs []uint64, limit, offset int64) ([]*ContentModel, int64, error)
	ListSince(ctx context.Context, since time.Time, limit int64) ([]*ContentModel, error)
	Delete(ctx context.Context, id string, authorID uint64) (bool, error)
	ToggleLike(ctx context.Context, id string, userID uint64) (liked bool, likeCount int, err error)
	UpdateAuthorProfile(ctx context.Context, authorID uint64, name, photo *string) (int64, error)
	AddAutoTags(ctx context.Context, id string, tags []string) error
	Sample(ctx context.Context, filter SampleFilter, n int, seed *uint64, pool int) ([]string, error)
}

type contentRepoImpl struct {
	col *mongo.Collection
}

func NewContentRepo(db *mongo.Database) ContentRepo {
	return &contentRepoImpl{
		col: db.Collection(contentCollection),
	}
}

// Create 插入内容并返回 id
func (s *contentRepoImpl) Create(ctx context.Context, content *ContentModel) (string, error) {
	if content.ID.IsZero() {
		content.ID = primitive.NewObjectID()
	}
	if content.Likes == nil {
		content.Likes = []uint64{}
	}
	if content.AutoTags == nil {
		content.AutoTags = []string{}
	}
	_, err := s.col.InsertOne(ctx, content)
	if err != nil {
		return "", err
	}
	return content.ID.Hex(), nil
}

// GetByID 内容不存在时返回 nil, nil
func (s *contentRepoImpl) GetByID(ctx context.Context, id string) (*ContentModel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var content ContentModel
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&content)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// GetByIDs 按传入顺序返回，不存在的 id 跳过
func (s *contentRepoImpl) GetByIDs(ctx context.Context, ids []string) ([]*ContentModel, error) {
	oids := toObjectIDs(ids)
	if len(oids) == 0 {
		return []*ContentModel{}, nil
	}
	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*ContentModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}

	byID := make(map[string]*ContentModel, len(list))
	for _, c := range list {
		byID[c.ID.Hex()] = c
	}
	out := make([]*ContentModel, 0, len(list))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListByAuthor 分页获取作者的内容 (按时间倒序)
func (s *contentRepoImpl) ListByAuthor(ctx context.Context, authorID uint64, limit, offset int64) ([]*ContentModel, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	return s.find(ctx, bson.M{"author_id": authorID}, opts)
}

// ListByAuthors 分页获取多个作者的内容 (按时间倒序)，同时返回总数
func (s *contentRepoImpl) ListByAuthors(ctx context.Context, authorIDs []uint64, limit, offset int64) ([]*ContentModel, int64, error) {
	if len(authorIDs) == 0 {
		return []*ContentModel{}, 0, nil
	}
	filter := bson.M{"author_id": bson.M{"$in": authorIDs}}
	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if offset >= total {
		return []*ContentModel{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	list, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListSince 获取某时间之后创建的内容
func (s *contentRepoImpl) ListSince(ctx context.Context, since time.Time, limit int64) ([]*ContentModel, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	return s.find(ctx, bson.M{"created_at": bson.M{"$gte": since}}, opts)
}

func (s *contentRepoImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*ContentModel, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*ContentModel, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete 只删除属于 authorID 的内容
func (s *contentRepoImpl) Delete(ctx context.Context, id string, authorID uint64) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid, "author_id": authorID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ToggleLike 单文档原子切换点赞状态，返回切换后的状态与点赞数
func (s *contentRepoImpl) ToggleLike(ctx context.Context, id string, userID uint64) (bool, int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, 0, mongo.ErrNoDocuments
	}

	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, likes}},
				bson.M{"$setDifference": bson.A{likes, bson.A{userID}}},
				bson.M{"$concatArrays": bson.A{likes, bson.A{userID}}},
			}},
		}}},
	}

	var content ContentModel
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"likes": 1}),
	).Decode(&content)
	if err != nil {
		return false, 0, err
	}
	return content.LikedBy(userID), len(content.Likes), nil
}

// UpdateAuthorProfile 只更新传入的字段，重复执行结果不变
func (s *contentRepoImpl) UpdateAuthorProfile(ctx context.Context, authorID uint64, name, photo *string) (int64, error) {
	set := bson.M{}
	if name != nil {
		set["author_name"] = *name
	}
	if photo != nil {
		set["author_photo"] = *photo
	}
	if len(set) == 0 {
		return 0, nil
	}
	res, err := s.col.UpdateMany(ctx, bson.M{"author_id": authorID}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AddAutoTags 集合并集合并标签
func (s *contentRepoImpl) AddAutoTags(ctx context.Context, id string, tags []string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	if len(tags) == 0 {
		return nil
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"auto_tags": bson.M{"$each": tags}}})
	return err
}

// Sample 随机抽取补量候选
// seed 为 nil 时使用 $sample；否则取最新的 pool 条候选，按 seed 洗牌，保证同一会话结果稳定
func (s *contentRepoImpl) Sample(ctx context.Context, filter SampleFilter, n int, seed *uint64, pool int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	match := bson.M{}
	if oids := toObjectIDs(filter.ExcludeIDs); len(oids) > 0 {
		match["_id"] = bson.M{"$nin": oids}
	}
	if len(filter.ExcludeAuthors) > 0 {
		match["author_id"] = bson.M{"$nin": filter.ExcludeAuthors}
	}
	if filter.NotLikedBy != 0 {
		match["likes"] = bson.M{"$ne": filter.NotLikedBy}
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if seed == nil {
		pipeline = append(pipeline, bson.D{{Key: "$sample", Value: bson.M{"size": n}}})
	} else {
		if pool < n {
			pool = n
		}
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
			bson.D{{Key: "$limit", Value: pool}},
		)
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"_id": 1}}})

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID.Hex())
	}
	if seed != nil {
		rng := rand.New(rand.NewPCG(*seed, *seed>>1|1))
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		if len(ids) > n {
			ids = ids[:n]
		}
	}
	return ids, nil
}

func toObjectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}
